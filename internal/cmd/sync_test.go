package cmd

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncPrintsRegeneratedDocument(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"doc.txt": "Adding:\n>>> 1 + 1\n3\n",
	})
	path := filepath.Join(dir, "doc.txt")

	stdout, _, err := execute(t, "sync", path)
	require.NoError(t, err)
	assert.Equal(t, "Adding:\n>>> 1 + 1\n2\n", stdout)
	assert.Equal(t, "Adding:\n>>> 1 + 1\n3\n", readFile(t, path), "document is not modified")
}

func TestSyncWrite(t *testing.T) {
	doc := "# Guide\n\n```\n>>> x = 6\n>>> x * 7\n0\n```\n\nMore prose.\n"
	dir := setupProject(t, map[string]string{"guide.md": doc})
	path := filepath.Join(dir, "guide.md")

	_, stderr, err := execute(t, "sync", "--write", path)
	require.NoError(t, err)
	assert.Equal(t, "# Guide\n\n```\n>>> x = 6\n>>> x * 7\n42\n```\n\nMore prose.\n", readFile(t, path))
	assert.Contains(t, stderr, "Updated")

	_, stderr, err = execute(t, "sync", "--write", path)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "Updated", "an up to date document is not rewritten")
}

func TestSyncCheck(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"fresh.txt": ">>> 2 * 3\n6\n",
		"stale.txt": ">>> 2 * 3\n5\n",
	})

	_, _, err := execute(t, "sync", "--check", filepath.Join(dir, "fresh.txt"))
	require.NoError(t, err)

	stdout, stderr, err := execute(t, "sync", "--check", dir)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOutOfDate))
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "stale.txt is out of date")
	assert.Equal(t, ">>> 2 * 3\n5\n", readFile(t, filepath.Join(dir, "stale.txt")))
}

func TestSyncDiff(t *testing.T) {
	dir := setupProject(t, map[string]string{"doc.txt": ">>> 10 // 3\n4\n"})
	path := filepath.Join(dir, "doc.txt")

	stdout, _, err := execute(t, "sync", "--diff", path)
	require.NoError(t, err)
	assert.Contains(t, stdout, "--- "+path)
	assert.Contains(t, stdout, "-4\n")
	assert.Contains(t, stdout, "+3\n")
	assert.NotContains(t, stdout, "\x1b[", "no color when writing to a buffer")
}

func TestSyncWriteAndCheckConflict(t *testing.T) {
	dir := setupProject(t, map[string]string{"doc.txt": ">>> 1\n1\n"})

	_, _, err := execute(t, "sync", "--write", "--check", filepath.Join(dir, "doc.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be used together")
}

func TestSyncUnexpectedKindKeepsRecordedOutput(t *testing.T) {
	doc := ">>> y\n5\n>>> 1 / 0\n1\n"
	dir := setupProject(t, map[string]string{"doc.txt": doc})

	stdout, stderr, err := execute(t, "sync", "--unexpected", "NameError", filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, ">>> y\n5\n>>> 1 / 0\nTraceback (most recent call last):\nZeroDivisionError: division by zero\n", stdout)
	assert.Contains(t, stderr, "unexpected NameError")
}

func TestSyncUnexpectedKindsFromConfig(t *testing.T) {
	dir := setupProject(t, map[string]string{
		".docsync/config.yaml": "unexpected_kinds: [NameError]\n",
		"doc.txt":              ">>> y\n5\n",
	})

	stdout, _, err := execute(t, "sync", filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, ">>> y\n5\n", stdout)
}

func TestSyncSkipsFrontMatterSkip(t *testing.T) {
	doc := "---\ndocsync:\n  skip: true\n---\n\n```\n>>> 1 + 1\n3\n```\n"
	dir := setupProject(t, map[string]string{"skip.md": doc})
	path := filepath.Join(dir, "skip.md")

	stdout, stderr, err := execute(t, "sync", "--write", path)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "Skipping")
	assert.Equal(t, doc, readFile(t, path))
}

func TestSyncReportsParseErrors(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"bad.txt":  ">>>1 + 1\n2\n",
		"good.txt": ">>> 1 + 1\n2\n",
	})

	stdout, stderr, err := execute(t, "sync", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 documents failed")
	assert.Contains(t, stderr, "Document could not be parsed")
	assert.Contains(t, stderr, "bad.txt:1")
	assert.Equal(t, ">>> 1 + 1\n2\n", stdout, "valid documents are still synced")
}

func TestSyncWritesRunLog(t *testing.T) {
	dir := setupProject(t, map[string]string{
		".docsync/config.yaml": "file_log: true\n",
		"doc.txt":              ">>> 1 + 1\n2\n",
	})

	_, _, err := execute(t, "sync", filepath.Join(dir, "doc.txt"))
	require.NoError(t, err)

	log := readFile(t, filepath.Join(dir, ".docsync", "logs", "latest.log"))
	assert.Contains(t, log, "=== docsync Run Log ===")
	assert.Contains(t, log, "=== SYNC SUMMARY ===")
}

func TestSyncDirectoryProcessesEveryDocument(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"a.txt":          ">>> 'a' * 2\n''\n",
		"nested/b.md":    "```\n>>> len([1, 2])\n0\n```\n",
		"ignored.go":     ">>> 1\n2\n",
		"node_modules/c": ">>> 1\n2\n",
	})

	_, _, err := execute(t, "sync", "--write", dir)
	require.NoError(t, err)

	assert.Equal(t, ">>> 'a' * 2\n'aa'\n", readFile(t, filepath.Join(dir, "a.txt")))
	assert.Equal(t, "```\n>>> len([1, 2])\n2\n```\n", readFile(t, filepath.Join(dir, "nested", "b.md")))
	assert.Equal(t, ">>> 1\n2\n", readFile(t, filepath.Join(dir, "ignored.go")))
	assert.Equal(t, ">>> 1\n2\n", readFile(t, filepath.Join(dir, "node_modules", "c")))
}

func TestSyncJobsKeepsDocumentOrder(t *testing.T) {
	files := map[string]string{}
	var want string
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		files[name+".txt"] = ">>> '" + name + "' * 3\nstale\n"
		want += ">>> '" + name + "' * 3\n'" + name + name + name + "'\n"
	}
	dir := setupProject(t, files)

	stdout, _, err := execute(t, "sync", "--jobs", "3", dir)
	require.NoError(t, err)
	assert.Equal(t, want, stdout)
}

func TestSyncJobsMustBePositive(t *testing.T) {
	dir := setupProject(t, map[string]string{"doc.txt": ">>> 1\n1\n"})

	_, _, err := execute(t, "sync", "-j", "0", filepath.Join(dir, "doc.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--jobs must be at least 1")
}
