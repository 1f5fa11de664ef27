package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(">>> 1\n1\n"), 0644))
	}
}

func rel(t *testing.T, root string, files []string) []string {
	t.Helper()
	out := make([]string, len(files))
	for i, f := range files {
		r, err := filepath.Rel(root, f)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(r)
	}
	return out
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root,
		"README.md",
		"notes.TXT",
		"image.png",
		"guide/intro.md",
		"guide/deep/more.rst",
		".hidden/secret.md",
		"node_modules/pkg/readme.md",
	)
	exts := []string{".md", "txt", ".rst"}

	tests := []struct {
		name string
		opts ScanOptions
		want []string
	}{
		{
			name: "top level only",
			opts: ScanOptions{Extensions: exts},
			want: []string{"README.md", "notes.TXT"},
		},
		{
			name: "recursive skips hidden and excluded",
			opts: ScanOptions{Extensions: exts, Recursive: true, ExcludeDirs: []string{"node_modules"}},
			want: []string{"README.md", "guide/deep/more.rst", "guide/intro.md", "notes.TXT"},
		},
		{
			name: "max depth",
			opts: ScanOptions{Extensions: exts, Recursive: true, MaxDepth: 2, ExcludeDirs: []string{"node_modules"}},
			want: []string{"README.md", "guide/intro.md", "notes.TXT"},
		},
		{
			name: "pattern on name without extension",
			opts: ScanOptions{Extensions: exts, Recursive: true, Pattern: "^(intro|more)$"},
			want: []string{"guide/deep/more.rst", "guide/intro.md"},
		},
		{
			name: "no extension filter",
			opts: ScanOptions{},
			want: []string{"README.md", "image.png", "notes.TXT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ScanDirectory(root, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rel(t, root, result.Files))
			assert.Empty(t, result.Errors)
		})
	}
}

func TestScanDirectoryErrors(t *testing.T) {
	_, err := ScanDirectory(filepath.Join(t.TempDir(), "missing"), ScanOptions{})
	assert.Error(t, err)

	dir := t.TempDir()
	writeFiles(t, dir, "doc.md")
	_, err = ScanDirectory(filepath.Join(dir, "doc.md"), ScanOptions{})
	assert.ErrorContains(t, err, "not a directory")

	_, err = ScanDirectory(t.TempDir(), ScanOptions{Pattern: "("})
	assert.ErrorContains(t, err, "invalid pattern")
}

func TestCollect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.md", "b.txt", "docs/c.md", "docs/skip.png")

	result, err := Collect([]string{
		filepath.Join(root, "docs"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "docs", "c.md"),
		filepath.Join(root, "docs", "skip.png"),
	}, ScanOptions{Extensions: []string{".md"}})
	require.NoError(t, err)

	// explicit files bypass the extension filter; duplicates collapse
	assert.Equal(t, []string{"b.txt", "docs/c.md", "docs/skip.png"}, rel(t, root, result.Files))
}

func TestCollectMissingPath(t *testing.T) {
	_, err := Collect([]string{filepath.Join(t.TempDir(), "nope.md")}, ScanOptions{})
	assert.ErrorContains(t, err, "failed to access")
}
