// Package fsops provides the filesystem operations used to flush staged
// file changes.
//
// All project mutations go through the FS interface, which is backed by an
// afero.Fs rooted at the project directory. Paths given to FS methods are
// project-relative.
//
// Key features:
//   - Atomic writes using temp file + rename
//   - Rooted at the project, so relative paths cannot escape it
//   - Case-sensitivity detection for the dedup policy
//   - Testable with afero's in-memory filesystem
package fsops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/spf13/afero"
)

// FS provides an abstraction for filesystem operations on a project.
type FS interface {
	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// AtomicWrite writes data to path atomically using temp file + rename.
	AtomicWrite(path string, data []byte, perm os.FileMode) error
}

// AferoFS implements FS on top of an afero.Fs.
type AferoFS struct {
	fs afero.Fs
}

// New wraps an existing afero filesystem. Paths are used as given.
func New(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewProjectFS returns an FS backed by the OS filesystem and rooted at root.
func NewProjectFS(root string) *AferoFS {
	return New(afero.NewBasePathFs(afero.NewOsFs(), root))
}

// Afero returns the underlying afero filesystem.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

// ReadFile reads the entire contents of a file.
func (a *AferoFS) ReadFile(path string) ([]byte, error) {
	return afero.ReadFile(a.fs, path)
}

// AtomicWrite writes data to path atomically using temp file + rename.
func (a *AferoFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	// Create parent directory if needed
	dir := filepath.Dir(path)
	if err := a.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	// Create temp file in the same directory as target
	tmpFile, err := afero.TempFile(a.fs, dir, ".solid-tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := filepath.Join(dir, filepath.Base(tmpFile.Name()))

	// Clean up temp file on error
	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
			_ = a.fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := a.fs.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := a.fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	// Success - don't clean up temp file
	tmpFile = nil
	return nil
}

// ErrNoCasedEntry is returned by DetectCaseInsensitive when dir has no
// entry whose name changes under case folding.
var ErrNoCasedEntry = errors.New("no entry with a cased name")

// DetectCaseInsensitive reports whether the filesystem under dir treats
// names case-insensitively. It stats an existing entry under its
// case-swapped name and never writes.
func DetectCaseInsensitive(fs afero.Fs, dir string) (bool, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	for _, entry := range entries {
		swapped := swapCase(entry.Name())
		if swapped == entry.Name() {
			continue
		}
		_, err := fs.Stat(filepath.Join(dir, swapped))
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to stat %s: %w", swapped, err)
		}
		// The swapped name resolved. Unless it is a separate entry of
		// its own, it resolved to entry.
		return !hasEntry(entries, swapped), nil
	}
	return false, ErrNoCasedEntry
}

func swapCase(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsUpper(r):
			return unicode.ToLower(r)
		case unicode.IsLower(r):
			return unicode.ToUpper(r)
		}
		return r
	}, name)
}

func hasEntry(entries []os.FileInfo, name string) bool {
	for _, e := range entries {
		if e.Name() == name {
			return true
		}
	}
	return false
}
