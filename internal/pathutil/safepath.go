// Package pathutil keeps store files inside the configured data directory.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveSafePath resolves userPath against baseDir and rejects results that
// leave baseDir once symlinks are followed.
//
// Relative paths are joined with baseDir; absolute paths are accepted only if
// they already point inside it. Neither baseDir nor userPath has to exist:
// the deepest existing ancestor of each is resolved and the missing tail is
// re-attached, so a data directory that has not been created yet still works.
//
// Returns an error for empty or whitespace-only paths, paths containing NUL,
// and paths that escape baseDir.
func ResolveSafePath(baseDir, userPath string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", fmt.Errorf("path is empty or whitespace-only")
	}
	if strings.ContainsRune(userPath, 0) {
		return "", fmt.Errorf("path contains null byte")
	}

	candidate := userPath
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(baseDir, candidate)
	}

	resolved, err := resolveExisting(filepath.Clean(candidate))
	if err != nil {
		return "", err
	}
	base, err := resolveExisting(filepath.Clean(baseDir))
	if err != nil {
		return "", fmt.Errorf("failed to resolve base directory: %w", err)
	}

	rel, err := filepath.Rel(base, resolved)
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", userPath)
	}

	return resolved, nil
}

// resolveExisting evaluates symlinks on the longest existing prefix of path
// and appends the remaining, not yet created, components unchanged.
func resolveExisting(path string) (string, error) {
	var missing []string
	current := path

	for {
		if _, err := os.Lstat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				return "", fmt.Errorf("failed to resolve symlinks: %w", err)
			}
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat %s: %w", current, err)
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing parent directory found")
		}
		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
