package staging

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/danieljhkim/solidcli/internal/constraint"
)

// Phase identifies one flush phase. Phases always run in declaration order.
type Phase string

const (
	PhaseFiles    Phase = "files"
	PhasePackages Phase = "packages"
	PhaseCommands Phase = "commands"
)

// Phases lists every phase in flush order.
var Phases = []Phase{PhaseFiles, PhasePackages, PhaseCommands}

// OpKind is the content-producing operation of a file change.
type OpKind string

const (
	OpWrite  OpKind = "write"
	OpAppend OpKind = "append"
	OpPatch  OpKind = "patch"
)

// Edit is one step of a patch. Match is a regular expression; every match
// is replaced with Replace (which may reference groups as $1).
type Edit struct {
	Match   string
	Replace string

	// Optional edits may match nothing. Required edits that match nothing
	// fail the file.
	Optional bool
}

// FileOperation describes how the new content of a file is produced.
type FileOperation struct {
	Kind OpKind

	// Content is the full content (OpWrite) or the appended text (OpAppend).
	Content string

	// Edits are applied in order to the current content (OpPatch).
	Edits []Edit
}

// Write returns an operation replacing the whole file.
func Write(content string) FileOperation {
	return FileOperation{Kind: OpWrite, Content: content}
}

// Append returns an operation appending content to the file, creating it if needed.
func Append(content string) FileOperation {
	return FileOperation{Kind: OpAppend, Content: content}
}

// Patch returns an operation transforming the existing file content.
func Patch(edits ...Edit) FileOperation {
	return FileOperation{Kind: OpPatch, Edits: edits}
}

func (op FileOperation) clone() FileOperation {
	op.Edits = slices.Clone(op.Edits)
	return op
}

// FileChange is one effective pending file mutation.
type FileChange struct {
	// Path is the project-relative, slash-separated, cleaned path
	Path string

	// Key is the dedup key (Path, case-folded on case-insensitive targets)
	Key string

	// Op is the operation to perform
	Op FileOperation

	// Label is an optional human-readable description
	Label string
}

func (f FileChange) clone() FileChange {
	f.Op = f.Op.clone()
	return f
}

// DepKind distinguishes runtime dependencies from development dependencies.
type DepKind string

const (
	DepRuntime DepKind = "runtime"
	DepDev     DepKind = "dev"
)

// PackageInstall is one effective pending package install.
type PackageInstall struct {
	Name       string
	Kind       DepKind
	Constraint constraint.Range
}

// Spec returns the package-manager argument for this install ("name" or
// "name@constraint").
func (p PackageInstall) Spec() string {
	if p.Constraint.IsAny() {
		return p.Name
	}
	return p.Name + "@" + p.Constraint.String()
}

// Command is one pending command invocation.
type Command struct {
	// Args is the argv of the invocation
	Args []string

	// Dir is the project-relative working directory ("." for the root)
	Dir string
}

// Line returns the invocation as a single display string.
func (c Command) Line() string {
	return strings.Join(c.Args, " ")
}

// Display returns Line, followed by the working directory when it is not
// the project root. Entries that differ only by directory stay distinct.
func (c Command) Display() string {
	if c.Dir == "" || c.Dir == "." {
		return c.Line()
	}
	return fmt.Sprintf("%s (in %s)", c.Line(), c.Dir)
}

func (c Command) equal(o Command) bool {
	return c.Dir == o.Dir && slices.Equal(c.Args, o.Args)
}

func (c Command) clone() Command {
	c.Args = slices.Clone(c.Args)
	return c
}

// DisplayLine is one rendered summary line.
type DisplayLine struct {
	Phase Phase  `json:"phase"`
	Text  string `json:"text"`
}

// ApplyEdits applies edits to content in order.
func ApplyEdits(content string, edits []Edit) (string, error) {
	for i, edit := range edits {
		re, err := regexp.Compile(edit.Match)
		if err != nil {
			return "", fmt.Errorf("edit %d: invalid pattern %q: %w", i+1, edit.Match, err)
		}
		if !re.MatchString(content) {
			if edit.Optional {
				continue
			}
			return "", fmt.Errorf("edit %d: pattern %q not found", i+1, edit.Match)
		}
		content = re.ReplaceAllString(content, edit.Replace)
	}
	return content, nil
}
