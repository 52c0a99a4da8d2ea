package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestQuoteArgs(t *testing.T) {
	got, err := quoteArgs([]string{"echo", "hello world", "$HOME", "it's"})
	if err != nil {
		t.Fatalf("quoteArgs failed: %v", err)
	}
	for _, word := range []string{"'hello world'", "'$HOME'"} {
		if !strings.Contains(got, word) {
			t.Errorf("quoteArgs() = %q, expected it to contain %q", got, word)
		}
	}
}

func TestInterpRunner_Builtin(t *testing.T) {
	var stdout bytes.Buffer
	r := NewInterpRunner(&stdout, nil)

	err := r.Run(context.Background(), Invocation{Args: []string{"echo", "hello $USER"}, Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := strings.TrimSpace(stdout.String()); got != "hello $USER" {
		t.Errorf("stdout = %q, want arguments passed verbatim", got)
	}
}

func TestInterpRunner_WorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	var stdout bytes.Buffer
	r := NewInterpRunner(&stdout, nil)

	if err := r.Run(context.Background(), Invocation{Args: []string{"pwd"}, Dir: dir}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, _ := filepath.EvalSymlinks(strings.TrimSpace(stdout.String()))
	want, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("pwd = %q, want %q", got, want)
	}
}

func TestInterpRunner_ExitStatus(t *testing.T) {
	r := NewInterpRunner(nil, nil)

	err := r.Run(context.Background(), Invocation{Args: []string{"exit", "3"}, Dir: t.TempDir()})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 {
		t.Errorf("Code = %d, want 3", exitErr.Code)
	}
}

func TestInterpRunner_NotFound(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("PATH lookup semantics differ on windows")
	}
	r := NewInterpRunner(nil, nil)

	err := r.Run(context.Background(), Invocation{Args: []string{"solid-definitely-not-a-program"}, Dir: t.TempDir()})
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != ExitCodeNotFound {
		t.Errorf("Code = %d, want %d", exitErr.Code, ExitCodeNotFound)
	}
}

func TestInterpRunner_CreatesFilesInDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses touch")
	}
	dir := t.TempDir()
	r := NewInterpRunner(nil, nil)

	if err := r.Run(context.Background(), Invocation{Args: []string{"touch", "marker"}, Dir: dir}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "marker")); err != nil {
		t.Errorf("expected marker file in working directory: %v", err)
	}
}

func TestFakeRunner(t *testing.T) {
	f := NewFakeRunner()
	boom := errors.New("boom")
	f.FailWith("npm run lint", boom)

	if err := f.Run(context.Background(), Invocation{Args: []string{"npm", "run", "format"}}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := f.Run(context.Background(), Invocation{Args: []string{"npm", "run", "lint"}}); !errors.Is(err, boom) {
		t.Errorf("expected configured error, got %v", err)
	}
	if got := len(f.Calls()); got != 2 {
		t.Errorf("expected 2 recorded calls, got %d", got)
	}
}
