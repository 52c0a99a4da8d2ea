package engine

import "errors"

var (
	// ErrNilStore indicates a flush was called without a store.
	ErrNilStore = errors.New("no staging store")

	// ErrPartialWrite indicates at least one file could not be written.
	ErrPartialWrite = errors.New("some files could not be written")

	// ErrPackageManager indicates a package-manager invocation failed.
	ErrPackageManager = errors.New("package installation failed")

	// ErrCommandFailed indicates a staged command exited non-zero or could
	// not be launched.
	ErrCommandFailed = errors.New("command failed")
)
