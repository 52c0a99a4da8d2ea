package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/solidcli/internal/shell"
	"github.com/danieljhkim/solidcli/internal/staging"
)

// FlushPackages drains the store's package installs and runs the package
// manager once per dependency kind, runtime first. A failed invocation marks
// every package of its batch as failed; the other batch is still attempted.
//
// Once started, the phase runs to completion even if ctx is cancelled.
func (e *Engine) FlushPackages(ctx context.Context, store *staging.Store) (*PhaseResult, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	result := newPhaseResult(staging.PhasePackages, ErrPackageManager, e.clock.Now())
	installs := store.DrainPackages()
	ctx = context.WithoutCancel(ctx)

	for _, kind := range []staging.DepKind{staging.DepRuntime, staging.DepDev} {
		var specs []string
		for _, p := range installs {
			if p.Kind == kind {
				specs = append(specs, p.Spec())
			}
		}
		if len(specs) == 0 {
			continue
		}

		inv := shell.Invocation{
			Args: e.pm.InstallArgs(kind == staging.DepDev, specs),
			Dir:  e.root,
		}
		e.logger.Debug("installing packages", "kind", kind, "cmd", inv.String())

		if err := e.runner.Run(ctx, inv); err != nil {
			err = fmt.Errorf("%s: %w", inv.String(), err)
			e.logger.Warn("package installation failed", "kind", kind, "err", err)
			for _, spec := range specs {
				result.fail(spec, err)
			}
			continue
		}
		for _, spec := range specs {
			result.succeed(spec)
		}
	}

	result.FinishedAt = e.clock.Now()
	return result, nil
}
