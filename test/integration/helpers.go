package integration

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/danieljhkim/solidcli/internal/clock"
	"github.com/danieljhkim/solidcli/internal/engine"
	"github.com/danieljhkim/solidcli/internal/fsops"
	"github.com/danieljhkim/solidcli/internal/hash"
	"github.com/danieljhkim/solidcli/internal/pkgmanager"
	"github.com/danieljhkim/solidcli/internal/session"
	"github.com/danieljhkim/solidcli/internal/shell"
	"github.com/danieljhkim/solidcli/internal/staging"
)

// testEnv is a session wired to real components over a temporary project.
type testEnv struct {
	root    string
	session *session.Session
	output  *bytes.Buffer
}

// setupSession creates a project directory and a session that flushes into
// it with the shell interpreter. Package installs are not exercised here.
func setupSession(t *testing.T) *testEnv {
	t.Helper()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "package.json"), "{\n  \"name\": \"demo\"\n}\n")

	pm, err := pkgmanager.Get(string(pkgmanager.NPM))
	if err != nil {
		t.Fatalf("pkgmanager.Get: %v", err)
	}

	fs := fsops.NewProjectFS(root)
	output := &bytes.Buffer{}
	eng := engine.New(
		fs,
		shell.NewInterpRunner(output, output),
		pm,
		hash.NewSHA256Hasher(fs.Afero()),
		clock.NewSteppingClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Millisecond),
		nil,
		engine.Config{Root: root, Concurrency: 2},
	)

	store := staging.NewStore(staging.Options{Root: root})
	return &testEnv{
		root:    root,
		session: session.New(store, eng),
		output:  output,
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
