package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/docsync/internal/config"
	"github.com/harrison/docsync/internal/fileutil"
	"github.com/harrison/docsync/internal/models"
	"github.com/harrison/docsync/internal/parser"
)

// excludedDirs are never scanned for documents.
var excludedDirs = []string{config.DirName, "node_modules", "vendor", "testdata"}

// collectDocuments expands args into the document paths to process.
func (s *settings) collectDocuments(args []string) (*fileutil.ScanResult, error) {
	result, err := fileutil.Collect(args, fileutil.ScanOptions{
		Extensions:  s.cfg.Extensions,
		Recursive:   true,
		ExcludeDirs: excludedDirs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to collect documents: %w", err)
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no documents found in %v", args)
	}
	return result, nil
}

// loadDocument reads and parses path, returning the document together with
// the bytes it was parsed from.
func loadDocument(path string, opts parser.Options) (*models.Document, []byte, error) {
	format := parser.DetectFormat(path)
	p, err := parser.NewParser(format, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	doc.Path = path
	return doc, data, nil
}

// historyKey is the path a document's runs are recorded under: relative to
// the project root when the document lives inside it.
func historyKey(root, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}
