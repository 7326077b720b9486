package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ResumeDebounce is how long the watcher waits after the last change to the
// resume file before reloading. Uploads arrive as several write events.
const ResumeDebounce = 2 * time.Second

// WatchResume calls reload whenever the resume file is created, written or
// renamed into place. It watches the parent directory so replacing the file
// is seen too. Blocks until ctx is done.
func WatchResume(ctx context.Context, path string, reload func(context.Context)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("resume watcher: %w", err)
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("resume watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("resume watcher: watch %s: %w", dir, err)
	}
	target := filepath.Clean(path)
	slog.Info("resume watcher started", slog.String("path", target))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target || !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(ResumeDebounce)
			} else {
				timer.Reset(ResumeDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			slog.Info("resume changed, reloading knowledge", slog.String("path", target))
			reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("resume watcher error", slog.Any("error", err))
		}
	}
}
