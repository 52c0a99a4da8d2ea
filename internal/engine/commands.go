package engine

import (
	"context"
	"path/filepath"

	"github.com/danieljhkim/solidcli/internal/shell"
	"github.com/danieljhkim/solidcli/internal/staging"
)

// FlushCommands drains the store's commands and runs them sequentially in
// staged order. The first failing command stops the phase; the commands
// after it are reported as skipped.
//
// Once started, the phase runs to completion even if ctx is cancelled.
func (e *Engine) FlushCommands(ctx context.Context, store *staging.Store) (*PhaseResult, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	result := newPhaseResult(staging.PhaseCommands, ErrCommandFailed, e.clock.Now())
	commands := store.DrainCommands()
	ctx = context.WithoutCancel(ctx)

	for i, cmd := range commands {
		item := cmd.Display()
		inv := shell.Invocation{
			Args: cmd.Args,
			Dir:  filepath.Join(e.root, filepath.FromSlash(cmd.Dir)),
		}
		e.logger.Debug("running command", "cmd", cmd.Line(), "dir", cmd.Dir)

		if err := e.runner.Run(ctx, inv); err != nil {
			e.logger.Warn("command failed", "cmd", item, "err", err)
			result.fail(item, err)
			for _, rest := range commands[i+1:] {
				result.skip(rest.Display())
			}
			break
		}
		result.succeed(item)
	}

	result.FinishedAt = e.clock.Now()
	return result, nil
}
