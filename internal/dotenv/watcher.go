package dotenv

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDuration coalesces the burst of events editors emit on save.
const debounceDuration = 100 * time.Millisecond

// Watch invalidates the cached credential whenever the env file changes.
// It watches the parent directory rather than the file itself so that
// write-via-rename saves (and recreation of a deleted file) keep working.
// Call it in a goroutine; it blocks until the context is canceled. Only
// useful when caching is enabled.
func (l *Loader) Watch(ctx context.Context) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		l.logger.Error("create fsnotify watcher", "err", err)
		return
	}
	defer func() { _ = w.Close() }()

	abs, err := filepath.Abs(l.path)
	if err != nil {
		l.logger.Error("resolve env file path", "path", l.path, "err", err)
		return
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		l.logger.Error("watch env file directory", "dir", filepath.Dir(abs), "err", err)
		return
	}

	l.logger.Info("watching env file", "path", abs)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDuration, func() {
				l.logger.Debug("env file changed, dropping cached credential")
				l.Invalidate()
			})

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.logger.Warn("env file watch error", "err", err)
		}
	}
}
