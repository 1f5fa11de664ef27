package cmd

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateCommand_ValidDocuments(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"one.txt":  ">>> 1\n1\n",
		"two.md":   "```\n>>> a = 1\n>>> a\n1\n```\n",
		"skip.md":  "---\ndocsync:\n  skip: true\n---\n",
		"notes.md": "No examples here.\n",
	})

	stdout, _, err := execute(t, "validate", dir)
	if err != nil {
		t.Fatalf("validate returned error for valid documents: %v", err)
	}

	for _, want := range []string{
		"one.txt: 1 example\n",
		"two.md: 2 examples\n",
		"skip.md: 0 examples (skipped by front matter)\n",
		"notes.md: 0 examples\n",
		"All 4 documents valid",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("expected %q in output, got: %s", want, stdout)
		}
	}
}

func TestValidateCommand_InvalidDocument(t *testing.T) {
	dir := setupProject(t, map[string]string{
		"bad.txt": "  >>> for i in [1]:\n ...     i\n",
	})

	stdout, _, err := execute(t, "validate", filepath.Join(dir, "bad.txt"))
	if err == nil {
		t.Fatal("validate should return error for an invalid document")
	}
	if !strings.Contains(stdout, "Validation failed") {
		t.Errorf("Expected validation failed message, got: %s", stdout)
	}
	if !strings.Contains(stdout, "inconsistent leading whitespace") {
		t.Errorf("Expected whitespace error, got: %s", stdout)
	}
	if !strings.Contains(stdout, "Align every continuation") {
		t.Errorf("Expected suggestion, got: %s", stdout)
	}
}

func TestValidateCommand_DoesNotExecute(t *testing.T) {
	dir := setupProject(t, map[string]string{"doc.txt": ">>> 1 / 0\nwrong\n"})

	stdout, _, err := execute(t, "validate", filepath.Join(dir, "doc.txt"))
	if err != nil {
		t.Fatalf("validate returned error: %v", err)
	}
	if strings.Contains(stdout, "ZeroDivisionError") {
		t.Errorf("validate should not execute examples, got: %s", stdout)
	}
}

func TestValidateCommand_MissingPath(t *testing.T) {
	dir := setupProject(t, nil)

	_, _, err := execute(t, "validate", filepath.Join(dir, "missing.md"))
	if err == nil {
		t.Fatal("validate should fail for a missing path")
	}
}
