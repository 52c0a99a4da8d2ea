// Package shell runs staged command invocations.
//
// Invocations are executed by the mvdan.cc/sh interpreter so that commands
// behave the same on every platform: argv is quoted into a single simple
// command, parsed, and run with the project directory as working directory.
// External programs are resolved through PATH by the interpreter's default
// exec handler.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// ExitCodeNotFound is the exit status reported when a program cannot be launched.
const ExitCodeNotFound = 127

// Invocation is one command to run.
type Invocation struct {
	// Args is the argv; Args[0] is the program
	Args []string

	// Dir is the absolute working directory
	Dir string
}

// String returns the invocation as a display string.
func (inv Invocation) String() string {
	return strings.Join(inv.Args, " ")
}

// Runner runs invocations to completion.
type Runner interface {
	Run(ctx context.Context, inv Invocation) error
}

// ExitError reports a command that exited with a non-zero status.
type ExitError struct {
	Args []string
	Code int
}

func (e *ExitError) Error() string {
	if e.Code == ExitCodeNotFound {
		return fmt.Sprintf("%s: command not found or could not be launched", strings.Join(e.Args, " "))
	}
	return fmt.Sprintf("%s: exited with status %d", strings.Join(e.Args, " "), e.Code)
}

// InterpRunner implements Runner with the mvdan.cc/sh interpreter.
type InterpRunner struct {
	// Stdout and Stderr receive the command output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// Env is the environment in KEY=VALUE form. Nil inherits os.Environ().
	Env []string
}

// NewInterpRunner creates an InterpRunner writing to the given streams.
func NewInterpRunner(stdout, stderr io.Writer) *InterpRunner {
	return &InterpRunner{Stdout: stdout, Stderr: stderr}
}

// Run executes inv and waits for it to finish.
func (r *InterpRunner) Run(ctx context.Context, inv Invocation) error {
	if len(inv.Args) == 0 {
		return errors.New("empty invocation")
	}

	script, err := quoteArgs(inv.Args)
	if err != nil {
		return err
	}
	prog, err := syntax.NewParser().Parse(strings.NewReader(script), "invocation")
	if err != nil {
		return fmt.Errorf("failed to parse invocation: %w", err)
	}

	env := r.Env
	if env == nil {
		env = os.Environ()
	}
	stdout, stderr := r.Stdout, r.Stderr
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	runner, err := interp.New(
		interp.Dir(inv.Dir),
		interp.Env(expand.ListEnviron(env...)),
		interp.StdIO(nil, stdout, stderr),
	)
	if err != nil {
		return fmt.Errorf("failed to create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var exitStatus interp.ExitStatus
		if errors.As(err, &exitStatus) {
			return &ExitError{Args: inv.Args, Code: int(exitStatus)}
		}
		return fmt.Errorf("failed to run %s: %w", inv, err)
	}
	return nil
}

// quoteArgs renders argv as a single shell command with every word quoted,
// so no argument is subject to expansion.
func quoteArgs(args []string) (string, error) {
	words := make([]string, len(args))
	for i, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("cannot quote argument %q: %w", arg, err)
		}
		words[i] = quoted
	}
	return strings.Join(words, " "), nil
}

// FakeRunner implements Runner by recording invocations. It never starts a
// process.
type FakeRunner struct {
	mu      sync.Mutex
	calls   []Invocation
	results map[string]error
}

// NewFakeRunner creates a FakeRunner where every invocation succeeds.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{results: make(map[string]error)}
}

// FailWith makes invocations whose String() equals line return err.
func (f *FakeRunner) FailWith(line string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[line] = err
}

// Run records inv and returns the configured result.
func (f *FakeRunner) Run(ctx context.Context, inv Invocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv.Args = append([]string(nil), inv.Args...)
	f.calls = append(f.calls, inv)
	return f.results[inv.String()]
}

// Calls returns the recorded invocations in order.
func (f *FakeRunner) Calls() []Invocation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Invocation(nil), f.calls...)
}
