// Package discovery expands the glob patterns given on the command line into
// the list of source files to protect.
package discovery

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// Extensions lists the source file extensions the service accepts.
var Extensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// Expand resolves every pattern, keeps recognized source files and removes
// duplicates by resolved absolute path. Order follows the patterns, then the
// glob's lexical order. No matches is not an error.
func Expand(patterns []string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !IsSource(m) {
				continue
			}
			key := identity(m)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}

// identity is the absolute, symlink-free form of path, or path itself when
// it cannot be resolved.
func identity(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// IsSource reports whether path has a recognized source extension.
func IsSource(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}
