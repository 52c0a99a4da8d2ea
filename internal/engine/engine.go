// Package engine flushes staged changes to the project.
//
// The engine is the only component that mutates the project. It drains one
// collection of a staging.Store per phase and performs the side effects:
//
//   - FlushFiles: writes file changes concurrently, atomically, skipping
//     files whose content would not change
//   - FlushPackages: one package-manager invocation per dependency kind
//   - FlushCommands: runs commands in staged order, stopping at the first failure
//
// Each flush returns a PhaseResult that attributes every entry to success,
// failure or skip. A failed entry never aborts the remaining phases; that
// decision belongs to the caller.
package engine

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/danieljhkim/solidcli/internal/clock"
	"github.com/danieljhkim/solidcli/internal/fsops"
	"github.com/danieljhkim/solidcli/internal/hash"
	"github.com/danieljhkim/solidcli/internal/pkgmanager"
	"github.com/danieljhkim/solidcli/internal/shell"
)

// DefaultConcurrency is the number of files written in parallel when
// Config.Concurrency is not set.
const DefaultConcurrency = 4

// Config holds the engine's scalar settings.
type Config struct {
	// Root is the absolute project directory; commands run relative to it
	Root string

	// Concurrency bounds parallel file writes
	Concurrency int
}

// Engine performs the flush phases.
type Engine struct {
	fs          fsops.FS
	runner      shell.Runner
	pm          pkgmanager.Manager
	hasher      hash.Hasher
	clock       clock.Clock
	logger      *log.Logger
	root        string
	concurrency int
}

// New creates a new Engine with the given dependencies. A nil logger
// discards log output.
func New(
	fs fsops.FS,
	runner shell.Runner,
	pm pkgmanager.Manager,
	hasher hash.Hasher,
	clk clock.Clock,
	logger *log.Logger,
	cfg Config,
) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		fs:          fs,
		runner:      runner,
		pm:          pm,
		hasher:      hasher,
		clock:       clk,
		logger:      logger,
		root:        cfg.Root,
		concurrency: concurrency,
	}
}
