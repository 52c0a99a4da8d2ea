package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/danieljhkim/solidcli/internal/staging"
)

// Failure is one entry that could not be applied.
type Failure struct {
	// Item identifies the entry (path, package spec or command line and its directory)
	Item string `json:"item"`

	// Message is Err rendered for display
	Message string `json:"error"`

	Err error `json:"-"`
}

// PhaseResult reports the outcome of one flush phase.
type PhaseResult struct {
	Phase      staging.Phase `json:"phase"`
	Succeeded  []string      `json:"succeeded"`
	Failed     []Failure     `json:"failed"`
	Skipped    []string      `json:"skipped"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`

	sentinel error
}

func newPhaseResult(phase staging.Phase, sentinel error, startedAt time.Time) *PhaseResult {
	return &PhaseResult{
		Phase:     phase,
		Succeeded: []string{},
		Failed:    []Failure{},
		Skipped:   []string{},
		StartedAt: startedAt,
		sentinel:  sentinel,
	}
}

func (r *PhaseResult) succeed(item string) {
	r.Succeeded = append(r.Succeeded, item)
}

func (r *PhaseResult) fail(item string, err error) {
	r.Failed = append(r.Failed, Failure{Item: item, Message: err.Error(), Err: err})
}

func (r *PhaseResult) skip(item string) {
	r.Skipped = append(r.Skipped, item)
}

// Total returns the number of entries the phase handled.
func (r *PhaseResult) Total() int {
	return len(r.Succeeded) + len(r.Failed) + len(r.Skipped)
}

// OK reports whether every entry succeeded.
func (r *PhaseResult) OK() bool {
	return r == nil || len(r.Failed) == 0
}

// Err returns the aggregated phase error, or nil if nothing failed. The
// result matches the phase sentinel with errors.Is, as well as each
// individual failure cause.
func (r *PhaseResult) Err() error {
	if r.OK() {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Item, f.Err))
	}
	return fmt.Errorf("%w: %w", r.sentinel, errors.Join(errs...))
}
