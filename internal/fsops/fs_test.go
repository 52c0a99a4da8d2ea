package fsops

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestAferoFS_AtomicWrite(t *testing.T) {
	fs := New(afero.NewMemMapFs())

	if err := fs.AtomicWrite("src/routes/index.tsx", []byte("hello"), 0644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, err := fs.ReadFile("src/routes/index.tsx")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q, want %q", data, "hello")
	}

	// Overwrite keeps a single file and no temp leftovers
	if err := fs.AtomicWrite("src/routes/index.tsx", []byte("world"), 0644); err != nil {
		t.Fatalf("AtomicWrite overwrite failed: %v", err)
	}
	entries, err := afero.ReadDir(fs.Afero(), "src/routes")
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected only the target file, got %v", names)
	}
}

func TestAferoFS_AtomicWrite_ReadOnly(t *testing.T) {
	fs := New(afero.NewReadOnlyFs(afero.NewMemMapFs()))

	if err := fs.AtomicWrite("a.txt", []byte("x"), 0644); err == nil {
		t.Error("expected error writing to read-only filesystem")
	}
}

func TestNewProjectFS_RootedWrites(t *testing.T) {
	root := t.TempDir()
	fs := NewProjectFS(root)

	if err := fs.AtomicWrite("src/app.tsx", []byte("app"), 0644); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, "src", "app.tsx"))
	if err != nil {
		t.Fatalf("expected file under project root: %v", err)
	}
	if string(data) != "app" {
		t.Errorf("content = %q, want %q", data, "app")
	}
}

// foldingFs resolves every Stat case-insensitively, like the default
// macOS and Windows filesystems.
type foldingFs struct {
	afero.Fs
}

func (f foldingFs) Stat(name string) (os.FileInfo, error) {
	return f.Fs.Stat(strings.ToLower(name))
}

func TestDetectCaseInsensitive(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		folding bool
		want    bool
		wantErr error
	}{
		{name: "case-sensitive", files: []string{"package.json"}, want: false},
		{name: "case-insensitive", files: []string{"package.json"}, folding: true, want: true},
		{name: "names differing by case", files: []string{"README", "readme"}, want: false},
		{name: "skips uncased names", files: []string{"123", "app.ts"}, want: false},
		{name: "nothing to compare", files: []string{"123"}, wantErr: ErrNoCasedEntry},
		{name: "empty directory", wantErr: ErrNoCasedEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := afero.NewMemMapFs()
			if err := mem.MkdirAll("/project", 0755); err != nil {
				t.Fatal(err)
			}
			for _, f := range tt.files {
				if err := afero.WriteFile(mem, filepath.Join("/project", f), []byte("x"), 0644); err != nil {
					t.Fatal(err)
				}
			}

			// Read-only, so any write during detection fails the test.
			var fs afero.Fs = afero.NewReadOnlyFs(mem)
			if tt.folding {
				fs = foldingFs{fs}
			}

			got, err := DetectCaseInsensitive(fs, "/project")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectCaseInsensitive failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectCaseInsensitive() = %v, want %v", got, tt.want)
			}

			entries, _ := afero.ReadDir(mem, "/project")
			if len(entries) != len(tt.files) {
				t.Errorf("detection changed the directory: %d entries, want %d", len(entries), len(tt.files))
			}
		})
	}
}
