package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/danieljhkim/solidcli/internal/clock"
	"github.com/danieljhkim/solidcli/internal/fsops"
	"github.com/danieljhkim/solidcli/internal/hash"
	"github.com/danieljhkim/solidcli/internal/pkgmanager"
	"github.com/danieljhkim/solidcli/internal/shell"
	"github.com/danieljhkim/solidcli/internal/staging"
)

const testRoot = "/project"

// recordingFS wraps an FS, counting writes and failing the configured paths.
type recordingFS struct {
	fsops.FS

	mu     sync.Mutex
	writes []string
	fail   map[string]error
}

func newRecordingFS(base fsops.FS) *recordingFS {
	return &recordingFS{FS: base, fail: make(map[string]error)}
}

func (r *recordingFS) AtomicWrite(path string, data []byte, perm os.FileMode) error {
	r.mu.Lock()
	r.writes = append(r.writes, filepath.ToSlash(path))
	err := r.fail[filepath.ToSlash(path)]
	r.mu.Unlock()
	if err != nil {
		return err
	}
	return r.FS.AtomicWrite(path, data, perm)
}

func (r *recordingFS) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

type testEnv struct {
	mem    afero.Fs
	fs     *recordingFS
	runner *shell.FakeRunner
	clock  *clock.FakeClock
	engine *Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := afero.NewMemMapFs()
	fs := newRecordingFS(fsops.New(mem))
	runner := shell.NewFakeRunner()
	clk := clock.NewSteppingClock(time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), time.Second)
	pm, err := pkgmanager.Get("npm")
	if err != nil {
		t.Fatal(err)
	}
	eng := New(fs, runner, pm, hash.NewSHA256Hasher(mem), clk, nil, Config{Root: testRoot, Concurrency: 2})
	return &testEnv{mem: mem, fs: fs, runner: runner, clock: clk, engine: eng}
}

func (env *testEnv) readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(env.mem, path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func newStore() *staging.Store {
	return staging.NewStore(staging.Options{Root: testRoot})
}

func mustStage(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("staging failed: %v", err)
	}
}

func TestFlush_NilStore(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.FlushFiles(ctx, nil); !errors.Is(err, ErrNilStore) {
		t.Errorf("FlushFiles: expected ErrNilStore, got %v", err)
	}
	if _, err := env.engine.FlushPackages(ctx, nil); !errors.Is(err, ErrNilStore) {
		t.Errorf("FlushPackages: expected ErrNilStore, got %v", err)
	}
	if _, err := env.engine.FlushCommands(ctx, nil); !errors.Is(err, ErrNilStore) {
		t.Errorf("FlushCommands: expected ErrNilStore, got %v", err)
	}
}

func TestFlushFiles_WritesAndDrains(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	mustStage(t, store.StageFile("src/routes/index.tsx", staging.Write("export default () => <h1/>;\n"), ""))
	mustStage(t, store.StageFile("src/app.css", staging.Write("body {}\n"), ""))

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if result.Err() != nil {
		t.Fatalf("unexpected phase error: %v", result.Err())
	}
	if want := []string{"src/routes/index.tsx", "src/app.css"}; !slices.Equal(result.Succeeded, want) {
		t.Errorf("Succeeded = %v, want %v", result.Succeeded, want)
	}
	if got := env.readFile(t, "src/routes/index.tsx"); got != "export default () => <h1/>;\n" {
		t.Errorf("unexpected content %q", got)
	}
	if len(store.Files()) != 0 {
		t.Error("expected file collection to be drained")
	}
}

func TestFlushFiles_LastStagedContentWins(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	mustStage(t, store.StageFile("src/a.ts", staging.Write("A"), ""))
	mustStage(t, store.StageFile("src/a.ts", staging.Write("B"), ""))

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if len(result.Succeeded) != 1 {
		t.Errorf("expected one write, got %v", result.Succeeded)
	}
	if got := env.readFile(t, "src/a.ts"); got != "B" {
		t.Errorf("content = %q, want B", got)
	}
}

func TestFlushFiles_PartialFailure(t *testing.T) {
	env := newTestEnv(t)
	writeErr := errors.New("permission denied")
	env.fs.fail["b.ts"] = writeErr

	store := newStore()
	for _, p := range []string{"a.ts", "b.ts", "c.ts"} {
		mustStage(t, store.StageFile(p, staging.Write(p), ""))
	}

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}

	if want := []string{"a.ts", "c.ts"}; !slices.Equal(result.Succeeded, want) {
		t.Errorf("Succeeded = %v, want %v", result.Succeeded, want)
	}
	if len(result.Failed) != 1 || result.Failed[0].Item != "b.ts" {
		t.Fatalf("Failed = %+v, want b.ts", result.Failed)
	}

	phaseErr := result.Err()
	if !errors.Is(phaseErr, ErrPartialWrite) {
		t.Errorf("expected ErrPartialWrite, got %v", phaseErr)
	}
	if !errors.Is(phaseErr, writeErr) {
		t.Errorf("expected cause to be preserved, got %v", phaseErr)
	}

	if got := env.readFile(t, "a.ts"); got != "a.ts" {
		t.Errorf("a.ts content = %q", got)
	}
	if ok, _ := afero.Exists(env.mem, "b.ts"); ok {
		t.Error("b.ts should not exist")
	}
}

func TestFlushFiles_SkipsUnchangedContent(t *testing.T) {
	env := newTestEnv(t)
	if err := afero.WriteFile(env.mem, "README.md", []byte("same"), 0644); err != nil {
		t.Fatal(err)
	}

	store := newStore()
	mustStage(t, store.StageFile("README.md", staging.Write("same"), ""))

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if !slices.Equal(result.Succeeded, []string{"README.md"}) {
		t.Errorf("Succeeded = %v, want README.md", result.Succeeded)
	}
	if n := env.fs.writeCount(); n != 0 {
		t.Errorf("expected no writes for unchanged content, got %d", n)
	}
}

func TestFlushFiles_AppendAndPatch(t *testing.T) {
	env := newTestEnv(t)
	if err := afero.WriteFile(env.mem, ".gitignore", []byte("node_modules\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := afero.WriteFile(env.mem, "app.config.ts", []byte(`export default defineConfig({});`), 0644); err != nil {
		t.Fatal(err)
	}

	store := newStore()
	mustStage(t, store.StageFile(".gitignore", staging.Append(".vinxi\n"), ""))
	mustStage(t, store.StageFile("new.txt", staging.Append("created\n"), ""))
	mustStage(t, store.StageFile("app.config.ts", staging.Patch(staging.Edit{
		Match:   `defineConfig\(\{\}\)`,
		Replace: `defineConfig({ ssr: false })`,
	}), ""))

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if result.Err() != nil {
		t.Fatalf("unexpected phase error: %v", result.Err())
	}

	if got := env.readFile(t, ".gitignore"); got != "node_modules\n.vinxi\n" {
		t.Errorf(".gitignore = %q", got)
	}
	if got := env.readFile(t, "new.txt"); got != "created\n" {
		t.Errorf("new.txt = %q", got)
	}
	if got := env.readFile(t, "app.config.ts"); got != `export default defineConfig({ ssr: false });` {
		t.Errorf("app.config.ts = %q", got)
	}
}

func TestFlushFiles_PatchFailures(t *testing.T) {
	env := newTestEnv(t)
	if err := afero.WriteFile(env.mem, "present.ts", []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	store := newStore()
	mustStage(t, store.StageFile("missing.ts", staging.Patch(staging.Edit{Match: "a", Replace: "b"}), ""))
	mustStage(t, store.StageFile("present.ts", staging.Patch(staging.Edit{Match: "absent", Replace: "x"}), ""))

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if len(result.Failed) != 2 {
		t.Fatalf("expected 2 failures, got %+v", result.Failed)
	}
	if got := env.readFile(t, "present.ts"); got != "hello" {
		t.Errorf("present.ts modified: %q", got)
	}
}

func TestFlushFiles_ManyConcurrentWrites(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	var want []string
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		p := "src/" + name + ".ts"
		want = append(want, p)
		mustStage(t, store.StageFile(p, staging.Write(name), ""))
	}

	result, err := env.engine.FlushFiles(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushFiles failed: %v", err)
	}
	if !slices.Equal(result.Succeeded, want) {
		t.Errorf("Succeeded = %v, want staged order %v", result.Succeeded, want)
	}
}

func TestFlushPackages_OneInvocationPerKind(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	mustStage(t, store.StagePackage("@solidjs/router", staging.DepRuntime, "^0.x"))
	mustStage(t, store.StagePackage("tailwindcss", staging.DepDev, "^4.0.0"))
	mustStage(t, store.StagePackage("solid-js", staging.DepRuntime, ""))
	mustStage(t, store.StagePackage("postcss", staging.DepDev, ""))

	result, err := env.engine.FlushPackages(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushPackages failed: %v", err)
	}
	if result.Err() != nil {
		t.Fatalf("unexpected phase error: %v", result.Err())
	}

	calls := env.runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 invocations, got %d: %v", len(calls), calls)
	}
	if want := []string{"npm", "install", "@solidjs/router@^0.x", "solid-js"}; !slices.Equal(calls[0].Args, want) {
		t.Errorf("runtime invocation = %v, want %v", calls[0].Args, want)
	}
	if want := []string{"npm", "install", "--save-dev", "tailwindcss@^4.0.0", "postcss"}; !slices.Equal(calls[1].Args, want) {
		t.Errorf("dev invocation = %v, want %v", calls[1].Args, want)
	}
	if calls[0].Dir != testRoot {
		t.Errorf("Dir = %q, want %q", calls[0].Dir, testRoot)
	}
	if len(result.Succeeded) != 4 {
		t.Errorf("expected 4 succeeded, got %v", result.Succeeded)
	}
}

func TestFlushPackages_FailedBatch(t *testing.T) {
	env := newTestEnv(t)
	pmErr := &shell.ExitError{Args: []string{"npm"}, Code: 1}
	env.runner.FailWith("npm install solid-js @solidjs/meta", pmErr)

	store := newStore()
	mustStage(t, store.StagePackage("solid-js", staging.DepRuntime, ""))
	mustStage(t, store.StagePackage("@solidjs/meta", staging.DepRuntime, ""))
	mustStage(t, store.StagePackage("vitest", staging.DepDev, ""))

	result, err := env.engine.FlushPackages(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushPackages failed: %v", err)
	}

	if len(result.Failed) != 2 {
		t.Errorf("expected both runtime packages failed, got %+v", result.Failed)
	}
	if !slices.Equal(result.Succeeded, []string{"vitest"}) {
		t.Errorf("Succeeded = %v, want [vitest]", result.Succeeded)
	}
	if !errors.Is(result.Err(), ErrPackageManager) {
		t.Errorf("expected ErrPackageManager, got %v", result.Err())
	}
	var exitErr *shell.ExitError
	if !errors.As(result.Err(), &exitErr) {
		t.Errorf("expected ExitError cause, got %v", result.Err())
	}
	if len(env.runner.Calls()) != 2 {
		t.Errorf("expected dev batch to still run, got %v", env.runner.Calls())
	}
}

func TestFlushCommands_StopsAtFirstFailure(t *testing.T) {
	env := newTestEnv(t)
	env.runner.FailWith("npx tailwindcss init", &shell.ExitError{Args: []string{"npx"}, Code: 2})

	store := newStore()
	mustStage(t, store.StageCommand([]string{"npm", "run", "format"}, ""))
	mustStage(t, store.StageCommand([]string{"npx", "tailwindcss", "init"}, ""))
	mustStage(t, store.StageCommand([]string{"npm", "run", "lint"}, "packages/web"))

	result, err := env.engine.FlushCommands(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushCommands failed: %v", err)
	}

	if !slices.Equal(result.Succeeded, []string{"npm run format"}) {
		t.Errorf("Succeeded = %v", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].Item != "npx tailwindcss init" {
		t.Errorf("Failed = %+v", result.Failed)
	}
	if !slices.Equal(result.Skipped, []string{"npm run lint (in packages/web)"}) {
		t.Errorf("Skipped = %v", result.Skipped)
	}
	if !errors.Is(result.Err(), ErrCommandFailed) {
		t.Errorf("expected ErrCommandFailed, got %v", result.Err())
	}
	if n := len(env.runner.Calls()); n != 2 {
		t.Errorf("expected 2 invocations, got %d", n)
	}
}

func TestFlushCommands_WorkingDirectory(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	mustStage(t, store.StageCommand([]string{"npm", "test"}, "packages/web"))
	mustStage(t, store.StageCommand([]string{"npm", "test"}, ""))

	if _, err := env.engine.FlushCommands(context.Background(), store); err != nil {
		t.Fatalf("FlushCommands failed: %v", err)
	}

	calls := env.runner.Calls()
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if want := filepath.Join(testRoot, "packages", "web"); calls[0].Dir != want {
		t.Errorf("Dir = %q, want %q", calls[0].Dir, want)
	}
	if calls[1].Dir != testRoot {
		t.Errorf("Dir = %q, want %q", calls[1].Dir, testRoot)
	}
}

func TestFlushCommands_ItemsNameTheDirectory(t *testing.T) {
	env := newTestEnv(t)
	env.runner.FailWith("npm test", &shell.ExitError{Args: []string{"npm", "test"}, Code: 1})

	store := newStore()
	mustStage(t, store.StageCommand([]string{"npm", "test"}, "packages/web"))
	mustStage(t, store.StageCommand([]string{"npm", "test"}, ""))

	result, err := env.engine.FlushCommands(context.Background(), store)
	if err != nil {
		t.Fatalf("FlushCommands failed: %v", err)
	}
	if len(result.Failed) != 1 || result.Failed[0].Item != "npm test (in packages/web)" {
		t.Errorf("Failed = %+v", result.Failed)
	}
	if !slices.Equal(result.Skipped, []string{"npm test"}) {
		t.Errorf("Skipped = %v", result.Skipped)
	}
}

func TestFlushCommands_IgnoresCancellation(t *testing.T) {
	env := newTestEnv(t)
	store := newStore()
	mustStage(t, store.StageCommand([]string{"npm", "run", "format"}, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := env.engine.FlushCommands(ctx, store)
	if err != nil {
		t.Fatalf("FlushCommands failed: %v", err)
	}
	if len(result.Succeeded) != 1 {
		t.Errorf("expected command to run despite cancelled context, got %+v", result)
	}
}

func TestFlush_PhaseOrderAndIndependence(t *testing.T) {
	env := newTestEnv(t)
	env.runner.FailWith("npm install solid-js", errors.New("registry unreachable"))
	env.fs.fail["b.ts"] = errors.New("read-only")

	store := newStore()
	for _, p := range []string{"a.ts", "b.ts", "c.ts"} {
		mustStage(t, store.StageFile(p, staging.Write(p), ""))
	}
	mustStage(t, store.StagePackage("solid-js", staging.DepRuntime, ""))
	mustStage(t, store.StageCommand([]string{"npm", "run", "format"}, ""))

	ctx := context.Background()
	files, _ := env.engine.FlushFiles(ctx, store)
	packages, _ := env.engine.FlushPackages(ctx, store)
	commands, _ := env.engine.FlushCommands(ctx, store)

	if len(files.Succeeded) != 2 || len(files.Failed) != 1 {
		t.Errorf("files: %d succeeded, %d failed; want 2, 1", len(files.Succeeded), len(files.Failed))
	}
	if len(packages.Failed) != 1 {
		t.Errorf("packages: expected failure, got %+v", packages)
	}
	if len(commands.Succeeded) != 1 {
		t.Errorf("commands: expected to run after package failure, got %+v", commands)
	}

	if !files.FinishedAt.Before(packages.StartedAt) {
		t.Errorf("files finished at %v, not before packages started at %v", files.FinishedAt, packages.StartedAt)
	}
	if !packages.FinishedAt.Before(commands.StartedAt) {
		t.Errorf("packages finished at %v, not before commands started at %v", packages.FinishedAt, commands.StartedAt)
	}
	if !store.IsEmpty() {
		t.Error("expected store to be empty after all phases")
	}
}

func TestPhaseResult_Err(t *testing.T) {
	var nilResult *PhaseResult
	if nilResult.Err() != nil {
		t.Error("nil result should have no error")
	}

	r := newPhaseResult(staging.PhaseFiles, ErrPartialWrite, time.Time{})
	r.succeed("a")
	if r.Err() != nil {
		t.Error("result without failures should have no error")
	}
	r.fail("b", errors.New("boom"))
	if r.Total() != 2 {
		t.Errorf("Total() = %d, want 2", r.Total())
	}
	if !errors.Is(r.Err(), ErrPartialWrite) {
		t.Errorf("expected ErrPartialWrite, got %v", r.Err())
	}
	if r.Failed[0].Message != "boom" {
		t.Errorf("Message = %q, want boom", r.Failed[0].Message)
	}
}
