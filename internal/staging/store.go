package staging

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"mvdan.cc/sh/v3/shell"

	"github.com/danieljhkim/solidcli/internal/constraint"
)

// packageNameRegex is the npm package-name grammar (lower case, url-safe,
// optionally scoped).
var packageNameRegex = regexp.MustCompile(`^(?:@[a-z0-9\-~][a-z0-9\-._~]*/)?[a-z0-9\-~][a-z0-9\-._~]*$`)

const maxPackageNameLength = 214

// Options configures a Store.
type Options struct {
	// Root is the absolute project root. Staged paths must resolve inside it.
	Root string

	// CaseInsensitive folds file dedup keys. Set it only when the target
	// filesystem is known to be case-insensitive.
	CaseInsensitive bool
}

// Store is the staging area for one CLI invocation.
// It assumes a single writer.
type Store struct {
	opts     Options
	files    []FileChange
	packages []PackageInstall
	commands []Command
}

// NewStore creates an empty Store.
func NewStore(opts Options) *Store {
	return &Store{opts: opts}
}

// Root returns the project root the store validates paths against.
func (s *Store) Root() string {
	return s.opts.Root
}

// StageFile records a file change. It performs no I/O.
func (s *Store) StageFile(path string, op FileOperation, label string) error {
	relPath, err := normalizePath(path, s.opts.Root)
	if err != nil {
		return err
	}
	if err := validateOperation(relPath, op); err != nil {
		return err
	}

	incoming := FileChange{
		Path:  relPath,
		Key:   dedupKey(relPath, s.opts.CaseInsensitive),
		Op:    op.clone(),
		Label: label,
	}
	merged, err := mergeFile(s.files, incoming)
	if err != nil {
		return err
	}
	s.files = merged
	return nil
}

func validateOperation(path string, op FileOperation) error {
	switch op.Kind {
	case OpWrite, OpAppend:
		if len(op.Edits) > 0 {
			return invalid("operation", path, fmt.Sprintf("%s does not take edits", op.Kind))
		}
	case OpPatch:
		if len(op.Edits) == 0 {
			return invalid("operation", path, "patch has no edits")
		}
		for _, edit := range op.Edits {
			if _, err := regexp.Compile(edit.Match); err != nil {
				return &ValidationError{Field: "operation", Value: path, Reason: "invalid edit pattern", Err: err}
			}
		}
	default:
		return invalid("operation", path, fmt.Sprintf("unknown operation %q", op.Kind))
	}
	return nil
}

// StagePackage records a package install. An empty constraint means
// "latest compatible".
func (s *Store) StagePackage(name string, kind DepKind, versionConstraint string) error {
	if len(name) > maxPackageNameLength || !packageNameRegex.MatchString(name) {
		return invalid("package", name, "not a valid package name")
	}
	if kind != DepRuntime && kind != DepDev {
		return invalid("package", name, fmt.Sprintf("unknown dependency kind %q", kind))
	}
	r, err := constraint.Parse(versionConstraint)
	if err != nil {
		return &ValidationError{Field: "constraint", Value: versionConstraint, Reason: "cannot parse constraint", Err: err}
	}

	merged, err := mergePackage(s.packages, PackageInstall{Name: name, Kind: kind, Constraint: r})
	if err != nil {
		return err
	}
	s.packages = merged
	return nil
}

// StageCommand records a command invocation. Exact duplicates (same argv and
// directory) are collapsed; otherwise staging order is preserved.
func (s *Store) StageCommand(args []string, dir string) error {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		return invalid("command", strings.Join(args, " "), "command is empty")
	}
	relDir, err := normalizeDir(dir, s.opts.Root)
	if err != nil {
		return err
	}
	s.commands = mergeCommand(s.commands, Command{Args: slices.Clone(args), Dir: relDir})
	return nil
}

// StageCommandLine splits a shell command line into words and stages it.
// Variables are expanded from the current environment.
func (s *Store) StageCommandLine(line, dir string) error {
	args, err := shell.Fields(line, nil)
	if err != nil {
		return &ValidationError{Field: "command", Value: line, Reason: "cannot parse command line", Err: err}
	}
	return s.StageCommand(args, dir)
}

// IsEmpty reports whether nothing is staged.
func (s *Store) IsEmpty() bool {
	return len(s.files) == 0 && len(s.packages) == 0 && len(s.commands) == 0
}

// Clear discards everything staged.
func (s *Store) Clear() {
	s.files = nil
	s.packages = nil
	s.commands = nil
}

// Files returns a copy of the effective file changes in staging order.
func (s *Store) Files() []FileChange {
	out := make([]FileChange, len(s.files))
	for i, f := range s.files {
		out[i] = f.clone()
	}
	return out
}

// Packages returns a copy of the effective package installs in staging order.
func (s *Store) Packages() []PackageInstall {
	return slices.Clone(s.packages)
}

// Commands returns a copy of the staged commands in staging order.
func (s *Store) Commands() []Command {
	out := make([]Command, len(s.commands))
	for i, c := range s.commands {
		out[i] = c.clone()
	}
	return out
}

// DrainFiles returns the file changes and empties that collection.
func (s *Store) DrainFiles() []FileChange {
	out := s.files
	s.files = nil
	return out
}

// DrainPackages returns the package installs and empties that collection.
func (s *Store) DrainPackages() []PackageInstall {
	out := s.packages
	s.packages = nil
	return out
}

// DrainCommands returns the commands and empties that collection.
func (s *Store) DrainCommands() []Command {
	out := s.commands
	s.commands = nil
	return out
}
