package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"issuegrid/internal/logging"
)

const reloadDebounce = 250 * time.Millisecond

// configWatcher reports changes to the config file and organize files.
// Parent directories are watched so editors that replace files on save are
// still seen.
type configWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	onReload func(context.Context)

	mu    sync.Mutex
	files map[string]bool
	dirs  map[string]bool
}

func newConfigWatcher(configPath string, organizeFiles []string, onReload func(context.Context), logger *slog.Logger) (*configWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	cw := &configWatcher{
		watcher:  watcher,
		logger:   logging.NewComponentLogger(logger, "config-watch"),
		onReload: onReload,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
	}
	if err := cw.add(configPath); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	cw.setFiles(organizeFiles)
	return cw, nil
}

func (cw *configWatcher) add(path string) error {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.addLocked(path)
}

func (cw *configWatcher) addLocked(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	cw.files[abs] = true
	dir := filepath.Dir(abs)
	if cw.dirs[dir] {
		return nil
	}
	if err := cw.watcher.Add(dir); err != nil {
		return err
	}
	cw.dirs[dir] = true
	cw.logger.Debug("watching directory", logging.String("dir", dir))
	return nil
}

// setFiles adds organize files discovered after a reload. Files are never
// unwatched; a stale entry only causes a harmless extra reload.
func (cw *configWatcher) setFiles(paths []string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	for _, path := range paths {
		if err := cw.addLocked(path); err != nil {
			cw.logger.Warn("cannot watch organize file",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "config_watch_failed"),
				logging.String(logging.FieldImpact, "edits to this file need a manual reload"),
			)
		}
	}
}

func (cw *configWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	cw.mu.Lock()
	defer cw.mu.Unlock()
	return cw.files[abs]
}

func (cw *configWatcher) run(ctx context.Context) {
	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if !cw.relevant(event) {
				continue
			}
			cw.logger.Debug("config change detected", logging.String("path", event.Name), logging.String("op", event.Op.String()))
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			pending = timer.C
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			cw.logger.Warn("config watch error", logging.Error(err), logging.String(logging.FieldEventType, "config_watch_failed"))
		case <-pending:
			pending = nil
			cw.onReload(ctx)
		}
	}
}

func (cw *configWatcher) close() error {
	return cw.watcher.Close()
}
