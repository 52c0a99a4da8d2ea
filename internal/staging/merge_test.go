package staging

import (
	"errors"
	"testing"

	"github.com/danieljhkim/solidcli/internal/constraint"
)

func fileChange(path string, op FileOperation) FileChange {
	return FileChange{Path: path, Key: path, Op: op}
}

func TestMergeFile(t *testing.T) {
	tests := []struct {
		name        string
		prev        FileOperation
		next        FileOperation
		wantKind    OpKind
		wantContent string
		wantEdits   int
		wantErr     bool
	}{
		{
			name:        "write supersedes write",
			prev:        Write("old"),
			next:        Write("new"),
			wantKind:    OpWrite,
			wantContent: "new",
		},
		{
			name:        "write supersedes append",
			prev:        Append("tail"),
			next:        Write("full"),
			wantKind:    OpWrite,
			wantContent: "full",
		},
		{
			name:        "write supersedes patch",
			prev:        Patch(Edit{Match: "a", Replace: "b"}),
			next:        Write("full"),
			wantKind:    OpWrite,
			wantContent: "full",
		},
		{
			name:        "append after append concatenates",
			prev:        Append("one\n"),
			next:        Append("two\n"),
			wantKind:    OpAppend,
			wantContent: "one\ntwo\n",
		},
		{
			name:      "patch after patch concatenates edits",
			prev:      Patch(Edit{Match: "a", Replace: "b"}),
			next:      Patch(Edit{Match: "c", Replace: "d"}, Edit{Match: "e", Replace: "f"}),
			wantKind:  OpPatch,
			wantEdits: 3,
		},
		{
			name:        "patch after write folds into write",
			prev:        Write("ssr: true"),
			next:        Patch(Edit{Match: `ssr: true`, Replace: "ssr: false"}),
			wantKind:    OpWrite,
			wantContent: "ssr: false",
		},
		{
			name:    "patch after write that does not apply",
			prev:    Write("nothing here"),
			next:    Patch(Edit{Match: `ssr: true`, Replace: "ssr: false"}),
			wantErr: true,
		},
		{
			name:    "append after write is ambiguous",
			prev:    Write("full"),
			next:    Append("tail"),
			wantErr: true,
		},
		{
			name:    "append after patch is ambiguous",
			prev:    Patch(Edit{Match: "a", Replace: "b"}),
			next:    Append("tail"),
			wantErr: true,
		},
		{
			name:    "patch after append is ambiguous",
			prev:    Append("tail"),
			next:    Patch(Edit{Match: "a", Replace: "b"}),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []FileChange{fileChange("other.ts", Write("x")), fileChange("a.ts", tt.prev)}

			merged, err := mergeFile(existing, fileChange("a.ts", tt.next))
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				if existing[1].Op.Kind != tt.prev.Kind {
					t.Error("existing collection must not be modified on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("mergeFile failed: %v", err)
			}

			if len(merged) != 2 {
				t.Fatalf("expected 2 entries, got %d", len(merged))
			}
			got := merged[1]
			if got.Path != "a.ts" {
				t.Fatalf("merged entry moved: %+v", merged)
			}
			if got.Op.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Op.Kind, tt.wantKind)
			}
			if tt.wantContent != "" && got.Op.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", got.Op.Content, tt.wantContent)
			}
			if tt.wantEdits != 0 && len(got.Op.Edits) != tt.wantEdits {
				t.Errorf("Edits = %d, want %d", len(got.Op.Edits), tt.wantEdits)
			}
		})
	}
}

func TestMergeFile_KeepsLabel(t *testing.T) {
	existing := []FileChange{{Path: "a.ts", Key: "a.ts", Op: Write("1"), Label: "first"}}

	merged, err := mergeFile(existing, FileChange{Path: "a.ts", Key: "a.ts", Op: Write("2")})
	if err != nil {
		t.Fatalf("mergeFile failed: %v", err)
	}
	if merged[0].Label != "first" {
		t.Errorf("expected earlier label to be kept when none is given, got %q", merged[0].Label)
	}
}

func TestMergePackage(t *testing.T) {
	tests := []struct {
		name    string
		prev    string
		next    string
		want    string
		wantErr bool
	}{
		{"latest then caret", "", "^1.2.0", "^1.2.0", false},
		{"caret then latest", "^1.2.0", "", "^1.2.0", false},
		{"tilde inside caret", "^1.0.0", "~1.4.0", "~1.4.0", false},
		{"caret around tilde", "~1.4.0", "^1.0.0", "~1.4.0", false},
		{"equal ranges keep first spelling", "^1.2.0", ">=1.2.0 <2.0.0", "^1.2.0", false},
		{"partial overlap", ">=1.0.0 <1.5.0", "^1.2.0", ">=1.2.0 <1.5.0", false},
		{"disjoint", "^1.0.0", "^2.0.0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := []PackageInstall{{Name: "pkg", Kind: DepRuntime, Constraint: constraint.MustParse(tt.prev)}}
			incoming := PackageInstall{Name: "pkg", Kind: DepRuntime, Constraint: constraint.MustParse(tt.next)}

			merged, err := mergePackage(existing, incoming)
			if tt.wantErr {
				if !errors.Is(err, ErrIncompatibleConstraint) {
					t.Fatalf("expected ErrIncompatibleConstraint, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("mergePackage failed: %v", err)
			}
			if len(merged) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(merged))
			}
			if got := merged[0].Constraint.String(); got != tt.want {
				t.Errorf("Constraint = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergeCommand(t *testing.T) {
	a := Command{Args: []string{"npm", "run", "format"}, Dir: "."}
	b := Command{Args: []string{"npm", "run", "lint"}, Dir: "."}

	cmds := mergeCommand(nil, a)
	cmds = mergeCommand(cmds, b)
	cmds = mergeCommand(cmds, Command{Args: []string{"npm", "run", "format"}, Dir: "."})

	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].Line() != "npm run format" || cmds[1].Line() != "npm run lint" {
		t.Errorf("expected first-seen order, got %v", cmds)
	}
}
