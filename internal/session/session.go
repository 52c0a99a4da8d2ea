// Package session drives one CLI run from staging to flush.
//
// A Session owns a staging.Store. Command handlers stage changes through the
// session; at the end of the run Finish shows the summary, asks for
// confirmation, and either flushes every phase in order or aborts without
// touching the project.
//
//	Empty ──stage──▶ Staging ──RequestConfirmation──▶ AwaitingConfirmation
//	                    │                                  │         │
//	                  Abort                              Abort     Commit
//	                    ▼                                  ▼         ▼
//	                 Aborted ◀─────────────────────────────┘     Flushing ──▶ Done
package session

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/solidcli/internal/engine"
	"github.com/danieljhkim/solidcli/internal/staging"
)

var (
	// ErrInvalidTransition indicates an operation not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid session transition")

	// ErrAborted indicates the user declined to apply the staged changes.
	ErrAborted = errors.New("aborted")
)

// State is the lifecycle state of a session.
type State int

const (
	StateEmpty State = iota
	StateStaging
	StateAwaitingConfirmation
	StateFlushing
	StateDone
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateStaging:
		return "staging"
	case StateAwaitingConfirmation:
		return "awaiting-confirmation"
	case StateFlushing:
		return "flushing"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Flusher performs the flush phases. *engine.Engine implements it.
type Flusher interface {
	FlushFiles(ctx context.Context, store *staging.Store) (*engine.PhaseResult, error)
	FlushPackages(ctx context.Context, store *staging.Store) (*engine.PhaseResult, error)
	FlushCommands(ctx context.Context, store *staging.Store) (*engine.PhaseResult, error)
}

// PhaseRunner wraps the execution of one phase, for example with a spinner.
// It must call run exactly once and return its results.
type PhaseRunner func(phase staging.Phase, run func() (*engine.PhaseResult, error)) (*engine.PhaseResult, error)

// Confirmer asks the user whether the summarized changes should be applied.
type Confirmer interface {
	Confirm(ctx context.Context, summary []staging.DisplayLine) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, summary []staging.DisplayLine) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, summary []staging.DisplayLine) (bool, error) {
	return f(ctx, summary)
}

// AlwaysConfirm is a Confirmer that accepts without asking.
var AlwaysConfirm = ConfirmFunc(func(context.Context, []staging.DisplayLine) (bool, error) {
	return true, nil
})

// Report collects the results of the three phases. A phase that did not
// run is nil.
type Report struct {
	Files    *engine.PhaseResult `json:"files,omitempty"`
	Packages *engine.PhaseResult `json:"packages,omitempty"`
	Commands *engine.PhaseResult `json:"commands,omitempty"`
}

// Phases returns the non-nil phase results in flush order.
func (r *Report) Phases() []*engine.PhaseResult {
	if r == nil {
		return nil
	}
	var out []*engine.PhaseResult
	for _, p := range []*engine.PhaseResult{r.Files, r.Packages, r.Commands} {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

// Err joins the errors of every failed phase, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, p := range r.Phases() {
		if err := p.Err(); err != nil {
			errs = append(errs, fmt.Errorf("%s phase: %w", p.Phase, err))
		}
	}
	return errors.Join(errs...)
}

// Option configures a Session.
type Option func(*Session)

// WithPhaseRunner wraps each phase with fn.
func WithPhaseRunner(fn PhaseRunner) Option {
	return func(s *Session) {
		s.runPhase = fn
	}
}

// WithLogger sets the session logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// Session is one staging-to-flush lifecycle.
type Session struct {
	store    *staging.Store
	flusher  Flusher
	state    State
	runPhase PhaseRunner
	logger   *log.Logger
}

// New creates a session over store, flushed by flusher.
func New(store *staging.Store, flusher Flusher, opts ...Option) *Session {
	s := &Session{
		store:   store,
		flusher: flusher,
		state:   StateEmpty,
		runPhase: func(_ staging.Phase, run func() (*engine.PhaseResult, error)) (*engine.PhaseResult, error) {
			return run()
		},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return s.state
}

// Root returns the project root of the underlying store.
func (s *Session) Root() string {
	return s.store.Root()
}

func (s *Session) transition(to State, allowed ...State) error {
	for _, from := range allowed {
		if s.state == from {
			s.logger.Debug("session transition", "from", s.state, "to", to)
			s.state = to
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, s.state, to)
}

// stage runs fn against the store if staging is allowed.
func (s *Session) stage(fn func() error) error {
	if s.state != StateEmpty && s.state != StateStaging {
		return fmt.Errorf("%w: cannot stage changes while %s", ErrInvalidTransition, s.state)
	}
	if err := fn(); err != nil {
		return err
	}
	return s.transition(StateStaging, StateEmpty, StateStaging)
}

// StageFile stages a file change.
func (s *Session) StageFile(path string, op staging.FileOperation, label string) error {
	return s.stage(func() error {
		return s.store.StageFile(path, op, label)
	})
}

// StagePackage stages a package install.
func (s *Session) StagePackage(name string, kind staging.DepKind, constraint string) error {
	return s.stage(func() error {
		return s.store.StagePackage(name, kind, constraint)
	})
}

// StageCommand stages a command invocation.
func (s *Session) StageCommand(args []string, dir string) error {
	return s.stage(func() error {
		return s.store.StageCommand(args, dir)
	})
}

// StageCommandLine stages a command given as a shell line.
func (s *Session) StageCommandLine(line, dir string) error {
	return s.stage(func() error {
		return s.store.StageCommandLine(line, dir)
	})
}

// Summary returns the display lines of everything currently staged.
func (s *Session) Summary() []staging.DisplayLine {
	return staging.Summarize(s.store)
}

// IsEmpty reports whether nothing is staged.
func (s *Session) IsEmpty() bool {
	return s.store.IsEmpty()
}

// RequestConfirmation freezes staging and returns the summary to show.
func (s *Session) RequestConfirmation() ([]staging.DisplayLine, error) {
	if err := s.transition(StateAwaitingConfirmation, StateStaging); err != nil {
		return nil, err
	}
	return s.Summary(), nil
}

// Abort discards every staged change. No phase runs.
func (s *Session) Abort() error {
	if err := s.transition(StateAborted, StateEmpty, StateStaging, StateAwaitingConfirmation); err != nil {
		return err
	}
	s.store.Clear()
	return nil
}

// Commit runs the files, packages and commands phases in that order. A
// failing phase does not prevent the later phases from running; failures
// are reported through the Report. The returned error is non-nil only when
// Commit is called in the wrong state or a phase could not start.
func (s *Session) Commit(ctx context.Context) (*Report, error) {
	if err := s.transition(StateFlushing, StateAwaitingConfirmation); err != nil {
		return nil, err
	}

	report := &Report{}
	phases := []struct {
		phase staging.Phase
		flush func(context.Context, *staging.Store) (*engine.PhaseResult, error)
		dst   **engine.PhaseResult
	}{
		{staging.PhaseFiles, s.flusher.FlushFiles, &report.Files},
		{staging.PhasePackages, s.flusher.FlushPackages, &report.Packages},
		{staging.PhaseCommands, s.flusher.FlushCommands, &report.Commands},
	}

	for _, p := range phases {
		result, err := s.runPhase(p.phase, func() (*engine.PhaseResult, error) {
			return p.flush(ctx, s.store)
		})
		if err != nil {
			s.store.Clear()
			s.state = StateDone
			return report, fmt.Errorf("failed to run %s phase: %w", p.phase, err)
		}
		*p.dst = result
		s.logger.Debug("phase finished", "phase", p.phase,
			"succeeded", len(result.Succeeded), "failed", len(result.Failed), "skipped", len(result.Skipped))
	}

	s.store.Clear()
	if err := s.transition(StateDone, StateFlushing); err != nil {
		return report, err
	}
	return report, nil
}

// Finish ends the run. With nothing staged it completes without prompting.
// Otherwise it asks confirmer; a refusal aborts the session and returns
// ErrAborted, an acceptance commits.
func (s *Session) Finish(ctx context.Context, confirmer Confirmer) (*Report, error) {
	if s.state == StateEmpty || (s.state == StateStaging && s.store.IsEmpty()) {
		s.state = StateDone
		return &Report{}, nil
	}

	summary, err := s.RequestConfirmation()
	if err != nil {
		return nil, err
	}

	ok, err := confirmer.Confirm(ctx, summary)
	if err != nil {
		_ = s.Abort()
		return nil, fmt.Errorf("failed to confirm changes: %w", err)
	}
	if !ok {
		if err := s.Abort(); err != nil {
			return nil, err
		}
		return nil, ErrAborted
	}

	return s.Commit(ctx)
}
