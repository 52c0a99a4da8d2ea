// Package config manages solid configuration and its file locations.
//
// Settings come from, in increasing priority: built-in defaults, the user
// config file, the project's .solid.yaml, SOLID_* environment variables,
// and command-line flags bound by the CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// AppName is the application name.
	AppName = "solid"

	// ConfigFileName is the user config file name.
	ConfigFileName = "config.yaml"

	// ProjectFileName is the per-project config file name.
	ProjectFileName = ".solid.yaml"
)

// Paths contains the filesystem paths used by solid.
type Paths struct {
	// Dir is the user config directory (default: $XDG_CONFIG_HOME/solid)
	Dir string

	// Config is the path to the user config file
	Config string
}

// DefaultPaths returns the default paths for solid.
// Paths can be overridden with environment variables:
// - SOLID_CONFIG_DIR: Override the config directory
// - XDG_CONFIG_HOME: Base directory when SOLID_CONFIG_DIR is unset
func DefaultPaths() (*Paths, error) {
	dir := os.Getenv("SOLID_CONFIG_DIR")
	if dir == "" {
		base := os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to get user home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
		dir = filepath.Join(base, AppName)
	}

	return &Paths{
		Dir:    dir,
		Config: filepath.Join(dir, ConfigFileName),
	}, nil
}

// ProjectConfig returns the path of the project config file in root.
func ProjectConfig(root string) string {
	return filepath.Join(root, ProjectFileName)
}
