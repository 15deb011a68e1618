package statestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadCallback is called after an external change to the state file is
// detected (for example the user restoring a backup over the slot by hand).
type ReloadCallback func()

// Watch starts an fsnotify watcher on the state file's directory and invokes
// cb when the slot changes on disk through anything other than this process,
// until ctx is cancelled. Events are debounced so an editor's
// write-then-rename dance produces a single reload.
func Watch(ctx context.Context, store *File, logger *slog.Logger, cb ReloadCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(store.Path())
	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", store.Path()))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(200 * time.Millisecond)
			debounceCh = debounce.C
		} else {
			debounce.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			data, readErr := os.ReadFile(store.Path())
			if readErr != nil {
				// Slot removed or unreadable; the next Load falls back
				// to a fresh calendar, so still worth a reload.
				logger.Warn("watcher: read failed", slog.String("error", readErr.Error()))
				if cb != nil {
					cb()
				}
				continue
			}
			if store.OwnWrite(data) {
				continue
			}
			logger.Info("watcher: external change detected")
			if cb != nil {
				cb()
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != store.Path() {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
