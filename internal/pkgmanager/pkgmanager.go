// Package pkgmanager builds package-manager invocations for npm, pnpm, yarn and bun.
package pkgmanager

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Name identifies a package manager.
type Name string

const (
	NPM  Name = "npm"
	PNPM Name = "pnpm"
	Yarn Name = "yarn"
	Bun  Name = "bun"
)

// Auto selects the package manager from the project.
const Auto = "auto"

// Manager knows the argv conventions of one package manager.
type Manager struct {
	name       Name
	installCmd string
	devFlag    string
}

var managers = map[Name]Manager{
	NPM:  {name: NPM, installCmd: "install", devFlag: "--save-dev"},
	PNPM: {name: PNPM, installCmd: "add", devFlag: "-D"},
	Yarn: {name: Yarn, installCmd: "add", devFlag: "--dev"},
	Bun:  {name: Bun, installCmd: "add", devFlag: "-d"},
}

// lockfiles maps lockfile names to their manager, in detection priority order.
var lockfiles = []struct {
	file string
	name Name
}{
	{"pnpm-lock.yaml", PNPM},
	{"yarn.lock", Yarn},
	{"bun.lockb", Bun},
	{"bun.lock", Bun},
	{"package-lock.json", NPM},
}

// Get returns the manager called name.
func Get(name string) (Manager, error) {
	m, ok := managers[Name(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Manager{}, fmt.Errorf("unknown package manager %q (expected npm, pnpm, yarn or bun)", name)
	}
	return m, nil
}

// Name returns the manager's executable name.
func (m Manager) Name() Name {
	return m.name
}

// InstallArgs returns the argv installing specs, as dev dependencies when dev is set.
func (m Manager) InstallArgs(dev bool, specs []string) []string {
	args := []string{string(m.name), m.installCmd}
	if dev {
		args = append(args, m.devFlag)
	}
	return append(args, specs...)
}

// InstallAllArgs returns the argv installing every dependency the manifest
// declares. pnpm, yarn and bun reject their add command without packages.
func (m Manager) InstallAllArgs() []string {
	return []string{string(m.name), "install"}
}

// RunScriptArgs returns the argv running a package.json script.
func (m Manager) RunScriptArgs(script string) []string {
	return []string{string(m.name), "run", script}
}

// ExecArgs returns the argv running a package binary without installing it.
func (m Manager) ExecArgs(bin string, args ...string) []string {
	var prefix []string
	switch m.name {
	case PNPM:
		prefix = []string{"pnpm", "dlx", bin}
	case Yarn:
		prefix = []string{"yarn", "dlx", bin}
	case Bun:
		prefix = []string{"bunx", bin}
	default:
		prefix = []string{"npx", bin}
	}
	return append(prefix, args...)
}

// Detect selects the manager for the project in root. A non-auto override
// wins; then the manifest's packageManager field ("pnpm@9.1.0"); then the
// first lockfile found; npm otherwise.
func Detect(fs afero.Fs, root, override, manifestField string) (Manager, error) {
	if override != "" && override != Auto {
		return Get(override)
	}

	if manifestField != "" {
		name, _, _ := strings.Cut(manifestField, "@")
		if m, err := Get(name); err == nil {
			return m, nil
		}
	}

	for _, lf := range lockfiles {
		if ok, _ := afero.Exists(fs, filepath.Join(root, lf.file)); ok {
			return managers[lf.name], nil
		}
	}
	return managers[NPM], nil
}
