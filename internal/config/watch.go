package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/PabloGalante/haven-intake/internal/observability"
)

const reloadDebounce = 100 * time.Millisecond

// Watch reloads the config file at path whenever it changes and hands each
// valid result to onChange. Invalid edits are logged and skipped. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often replace the file instead of writing it.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watching %s: %w", path, err)
	}

	log := observability.LoggerFromContext(ctx).With("path", path)
	log.Info("watching config file")

	debounce := time.NewTimer(reloadDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			debounce.Reset(reloadDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("config watcher error", "error", err)

		case <-debounce.C:
			cfg, err := LoadFile(path)
			if err != nil {
				log.Error("ignoring invalid config change", "error", err)
				continue
			}
			onChange(cfg)
		}
	}
}
