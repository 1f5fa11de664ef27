package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FindProjectRoot returns the project directory configuration is loaded from
// Priority order:
//  1. DOCSYNC_HOME environment variable (if set)
//  2. Nearest ancestor of start containing a .docsync directory
//  3. start itself (fallback)
func FindProjectRoot(start string) (string, error) {
	if home := os.Getenv("DOCSYNC_HOME"); home != "" {
		return home, nil
	}

	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", start, err)
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		abs = filepath.Dir(abs)
	}

	current := abs
	for {
		if info, err := os.Stat(filepath.Join(current, DirName)); err == nil && info.IsDir() {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}

	return abs, nil
}

// ResolvePath anchors a relative path from the configuration at root.
func ResolvePath(root, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
