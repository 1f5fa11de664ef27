package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// ScanOptions configures document discovery
type ScanOptions struct {
	// Pattern is a regex pattern to match filenames (without extension)
	Pattern string
	// Extensions is a list of file extensions to include (e.g., ".md", ".txt")
	Extensions []string
	// Recursive enables recursive directory scanning
	Recursive bool
	// ExcludeDirs is a list of directory names to exclude (e.g., "node_modules")
	ExcludeDirs []string
	// MaxDepth limits recursion depth (0 = unlimited, 1 = current dir only)
	MaxDepth int
}

// ScanResult contains the results of a scan
type ScanResult struct {
	// Files contains the matched document paths, cleaned and sorted
	Files []string
	// Errors contains non-fatal errors encountered during scanning
	Errors []error
}

// matcher holds the compiled filters of a ScanOptions.
type matcher struct {
	pattern  *regexp.Regexp
	exts     map[string]bool
	excluded map[string]bool
}

func newMatcher(opts ScanOptions) (*matcher, error) {
	m := &matcher{
		exts:     make(map[string]bool),
		excluded: make(map[string]bool),
	}
	if opts.Pattern != "" {
		re, err := regexp.Compile(opts.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		m.pattern = re
	}
	for _, ext := range opts.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.exts[strings.ToLower(ext)] = true
	}
	for _, dir := range opts.ExcludeDirs {
		m.excluded[dir] = true
	}
	return m, nil
}

func (m *matcher) matches(filename string) bool {
	ext := filepath.Ext(filename)
	if len(m.exts) > 0 && !m.exts[strings.ToLower(ext)] {
		return false
	}
	if m.pattern != nil && !m.pattern.MatchString(strings.TrimSuffix(filename, ext)) {
		return false
	}
	return true
}

// Collect resolves paths into documents. Each path may name a file, which is
// included as is, or a directory, which is scanned with opts.
func Collect(paths []string, opts ScanOptions) (*ScanResult, error) {
	m, err := newMatcher(opts)
	if err != nil {
		return nil, err
	}

	result := &ScanResult{}
	seen := make(map[string]bool)
	add := func(path string) {
		path = filepath.Clean(path)
		if !seen[path] {
			seen[path] = true
			result.Files = append(result.Files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		files, errs := m.scan(path, opts)
		for _, f := range files {
			add(f)
		}
		result.Errors = append(result.Errors, errs...)
	}

	sort.Strings(result.Files)
	return result, nil
}

// ScanDirectory scans a single directory for documents matching opts.
func ScanDirectory(dir string, opts ScanOptions) (*ScanResult, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}
	return Collect([]string{dir}, opts)
}

func (m *matcher) scan(root string, opts ScanOptions) ([]string, []error) {
	var files []string
	var errs []error

	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			errs = append(errs, fmt.Errorf("error accessing %s: %w", path, err))
			return nil
		}
		if path == root {
			return nil
		}

		if d.IsDir() {
			if m.excluded[d.Name()] || strings.HasPrefix(d.Name(), ".") || !opts.Recursive {
				return filepath.SkipDir
			}
			if opts.MaxDepth > 0 {
				rel, _ := filepath.Rel(root, path)
				if strings.Count(rel, string(filepath.Separator))+1 >= opts.MaxDepth {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !d.Type().IsRegular() || !m.matches(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, errs
}
