package dashboard

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const reloadOps = fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove

// StartWatching drops the cached history or model whenever its file changes, so the
// next interaction loads it again. Directories are watched rather than files so that
// atomic replace-by-rename is seen. Watching stops when ctx is done.
func (d *Dashboard) StartWatching(ctx context.Context) error {
	targets := make(map[string]func())
	if d.settings.DataPath != "" {
		targets[absPath(d.settings.DataPath)] = d.history.Reset
	}
	if d.settings.ModelPath != "" {
		targets[absPath(d.settings.ModelPath)] = d.model.Reset
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := make(map[string]bool)
	for path := range targets {
		dir := filepath.Dir(path)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return err
		}
		dirs[dir] = true
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&reloadOps == 0 {
					continue
				}
				if reset, ok := targets[absPath(event.Name)]; ok {
					reset()
					d.logger.Info("file changed, cache dropped",
						zap.String("path", event.Name),
						zap.String("op", event.Op.String()))
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				d.logger.Warn("file watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func absPath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return filepath.Clean(abs)
	}
	return filepath.Clean(path)
}
