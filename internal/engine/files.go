package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/solidcli/internal/staging"
)

const filePerm os.FileMode = 0644

// FlushFiles drains the store's file changes and writes them to the project.
//
// Writes run concurrently up to the configured limit. Each path succeeds or
// fails on its own; a failure never rolls back other paths. Files whose new
// content equals the current content are left untouched and reported as
// succeeded.
func (e *Engine) FlushFiles(ctx context.Context, store *staging.Store) (*PhaseResult, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	result := newPhaseResult(staging.PhaseFiles, ErrPartialWrite, e.clock.Now())
	changes := store.DrainFiles()
	e.logger.Debug("flushing files", "count", len(changes))

	// Results are stored by index so attribution does not depend on
	// completion order.
	outcomes := make([]error, len(changes))
	var g errgroup.Group
	g.SetLimit(e.concurrency)
	for i, change := range changes {
		g.Go(func() error {
			outcomes[i] = e.writeFile(change)
			return nil
		})
	}
	_ = g.Wait()

	for i, change := range changes {
		if err := outcomes[i]; err != nil {
			e.logger.Warn("file write failed", "path", change.Path, "err", err)
			result.fail(change.Path, err)
			continue
		}
		result.succeed(change.Path)
	}

	result.FinishedAt = e.clock.Now()
	return result, nil
}

// writeFile computes the final content of one change and writes it.
func (e *Engine) writeFile(change staging.FileChange) error {
	path := filepath.FromSlash(change.Path)

	current, exists, err := e.readCurrent(path)
	if err != nil {
		return err
	}

	content, err := renderContent(change.Op, current, exists)
	if err != nil {
		return err
	}

	if exists {
		onDisk, err := e.hasher.HashFile(path)
		if err == nil && onDisk == e.hasher.Sum([]byte(content)) {
			e.logger.Debug("file unchanged", "path", change.Path)
			return nil
		}
	}

	if err := e.fs.AtomicWrite(path, []byte(content), filePerm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	e.logger.Debug("wrote file", "path", change.Path, "op", change.Op.Kind)
	return nil
}

func (e *Engine) readCurrent(path string) ([]byte, bool, error) {
	data, err := e.fs.ReadFile(path)
	if err == nil {
		return data, true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	return nil, false, fmt.Errorf("failed to read current content: %w", err)
}

// renderContent produces the content op leaves behind given the file's
// current content.
func renderContent(op staging.FileOperation, current []byte, exists bool) (string, error) {
	switch op.Kind {
	case staging.OpWrite:
		return op.Content, nil
	case staging.OpAppend:
		return string(current) + op.Content, nil
	case staging.OpPatch:
		if !exists {
			return "", errors.New("cannot patch a file that does not exist")
		}
		return staging.ApplyEdits(string(current), op.Edits)
	default:
		return "", fmt.Errorf("unknown operation kind: %s", op.Kind)
	}
}
