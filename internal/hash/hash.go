// Package hash provides content hashing used to skip redundant writes.
//
// Before a staged file is written, its new content is hashed and compared to
// the hash of the file on disk; identical content is not rewritten, which
// keeps repeated runs of the same scaffolding step idempotent.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// Hasher provides an abstraction for content hashing.
type Hasher interface {
	// Sum returns the hash of data.
	Sum(data []byte) string

	// HashFile computes the hash of the file at the given path.
	HashFile(path string) (string, error)
}

// SHA256Hasher implements Hasher using SHA-256.
type SHA256Hasher struct {
	fs afero.Fs
}

// NewSHA256Hasher creates a SHA256Hasher reading files from fs.
func NewSHA256Hasher(fs afero.Fs) *SHA256Hasher {
	return &SHA256Hasher{fs: fs}
}

// Sum returns the hex-encoded SHA-256 of data.
func (h *SHA256Hasher) Sum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// HashFile computes the SHA-256 hash of the file at the given path.
func (h *SHA256Hasher) HashFile(path string) (string, error) {
	file, err := h.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}
