// Package project locates the JavaScript project a command operates on.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ManifestName is the file that marks a project root.
const ManifestName = "package.json"

// ErrNotInProject is returned when no package.json is found above the
// starting directory.
var ErrNotInProject = errors.New("not in a JavaScript project (no package.json found)")

// Manifest is the subset of package.json the CLI reads.
type Manifest struct {
	Name            string            `json:"name"`
	PackageManager  string            `json:"packageManager"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// HasDependency reports whether name is a runtime or dev dependency.
func (m *Manifest) HasDependency(name string) bool {
	if _, ok := m.Dependencies[name]; ok {
		return true
	}
	_, ok := m.DevDependencies[name]
	return ok
}

// HasScript reports whether the manifest defines the named script.
func (m *Manifest) HasScript(name string) bool {
	_, ok := m.Scripts[name]
	return ok
}

// IsSolidStart reports whether the project depends on SolidStart.
func (m *Manifest) IsSolidStart() bool {
	return m.HasDependency("@solidjs/start")
}

// Project is a discovered project root.
type Project struct {
	// Root is the absolute directory containing package.json
	Root string

	// Manifest is the parsed package.json
	Manifest *Manifest
}

// Locator finds projects on a filesystem.
type Locator struct {
	fs afero.Fs
}

// NewLocator creates a Locator over fs. Paths handed to it must be absolute.
func NewLocator(fs afero.Fs) *Locator {
	return &Locator{fs: fs}
}

// NewOSLocator creates a Locator over the real filesystem.
func NewOSLocator() *Locator {
	return NewLocator(afero.NewOsFs())
}

// Discover finds the project root by walking up from cwd looking for package.json.
func (l *Locator) Discover(cwd string) (*Project, error) {
	absPath, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	current := absPath
	for {
		manifestPath := filepath.Join(current, ManifestName)
		if info, err := l.fs.Stat(manifestPath); err == nil && info.Mode().IsRegular() {
			manifest, err := l.ReadManifest(current)
			if err != nil {
				return nil, err
			}
			return &Project{Root: current, Manifest: manifest}, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return nil, ErrNotInProject
		}
		current = parent
	}
}

// ReadManifest parses package.json in root.
func (l *Locator) ReadManifest(root string) (*Manifest, error) {
	data, err := afero.ReadFile(l.fs, filepath.Join(root, ManifestName))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ManifestName, err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ManifestName, err)
	}
	return &m, nil
}

// IsEmptyDir reports whether dir does not exist or contains no entries.
func (l *Locator) IsEmptyDir(dir string) (bool, error) {
	entries, err := afero.ReadDir(l.fs, dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	return len(entries) == 0, nil
}
