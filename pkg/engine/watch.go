package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-runs the study whenever the network file changes, calling
// onStudy with each outcome. Editor saves arrive as bursts of events,
// so changes are debounced before re-solving. Blocks until ctx is
// cancelled or the watcher dies.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration, onStudy func(*Study, error)) error {
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors that save via
	// rename-and-replace would otherwise drop the watch after one save.
	dir := filepath.Dir(e.config.NetworkPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	target, err := filepath.Abs(e.config.NetworkPath)
	if err != nil {
		return err
	}

	e.Logger.Info("Watching network file", "path", e.config.NetworkPath, "debounce", debounce)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			evPath, err := filepath.Abs(ev.Name)
			if err != nil || evPath != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(debounce)
			}

		case <-fire:
			timer = nil
			fire = nil
			onStudy(e.Run(ctx))

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.Logger.Warn("Watcher error", "error", err)
		}
	}
}
