package staging

import (
	"errors"
	"path/filepath"
	"strings"
)

// normalizePath resolves a user-provided path (relative to root, or absolute
// under root) to a clean, slash-separated, root-relative path. It rejects
// paths that escape the root or resolve to the root itself.
func normalizePath(userPath, root string) (string, error) {
	if strings.TrimSpace(userPath) == "" {
		return "", invalid("path", userPath, "path is empty")
	}

	var relPath string
	if filepath.IsAbs(userPath) {
		if root == "" {
			return "", invalid("path", userPath, "absolute paths need a project root")
		}
		rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(userPath))
		if err != nil {
			return "", &ValidationError{Field: "path", Value: userPath, Reason: "cannot compute project-relative path", Err: err}
		}
		relPath = rel
	} else {
		relPath = filepath.Clean(userPath)
	}

	// Reject paths outside the project
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return "", invalid("path", userPath, "path is outside the project root")
	}

	// Reject the project root itself
	if relPath == "." {
		return "", invalid("path", userPath, "path resolves to the project root")
	}

	return filepath.ToSlash(relPath), nil
}

// dedupKey returns the identity used to merge file changes.
func dedupKey(path string, caseInsensitive bool) string {
	if caseInsensitive {
		return strings.ToLower(path)
	}
	return path
}

// normalizeDir is like normalizePath but accepts the root itself, returned as ".".
func normalizeDir(userDir, root string) (string, error) {
	if userDir == "" || userDir == "." {
		return ".", nil
	}
	if filepath.IsAbs(userDir) && root != "" && filepath.Clean(userDir) == filepath.Clean(root) {
		return ".", nil
	}
	if !filepath.IsAbs(userDir) && filepath.Clean(userDir) == "." {
		return ".", nil
	}
	dir, err := normalizePath(userDir, root)
	if err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			vErr.Field = "directory"
		}
		return "", err
	}
	return dir, nil
}
