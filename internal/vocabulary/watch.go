package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the vocabulary whenever its file is written, created,
// renamed or removed. It blocks until ctx is cancelled.
//
// The parent directory is watched rather than the file itself so that
// editors which replace the file via rename keep triggering reloads.
// onReload, if non-nil, is called after every reload attempt with its result.
func (v *Vocabulary) Watch(ctx context.Context, logger *slog.Logger, onReload func(error)) error {
	if v.path == "" {
		<-ctx.Done()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create vocabulary watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(v.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(v.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}

			err := v.Reload()
			if err != nil {
				logger.Warn("status vocabulary reload failed", "path", v.path, "error", err)
			} else {
				logger.Info("status vocabulary reloaded", "path", v.path)
			}
			if onReload != nil {
				onReload(err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("status vocabulary watcher error", "error", err)
		}
	}
}
