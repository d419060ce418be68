// Package watcher reloads the registry when its configuration file is
// changed by another process, such as `contexter config` run while the
// server is up.
package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceInterval = 100 * time.Millisecond

// Reloader re-reads persisted state. *registry.Registry implements it.
type Reloader interface {
	Reload() error
}

// ConfigWatcher watches a single file. The parent directory is watched
// rather than the file itself so atomic replace-by-rename is still seen.
type ConfigWatcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	target    string
	reloader  Reloader
	logger    *slog.Logger
	reloaded  chan struct{}
}

// NewConfigWatcher prepares a watcher for path. The parent directory is
// created when missing so a file written later is still picked up.
func NewConfigWatcher(path string, reloader Reloader, logger *slog.Logger) (*ConfigWatcher, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	w := &ConfigWatcher{
		fsWatcher: fsWatcher,
		target:    target,
		reloader:  reloader,
		logger:    logger,
		reloaded:  make(chan struct{}, 1),
	}
	w.debouncer = NewDebouncer(debounceInterval, w.reload)
	return w, nil
}

// Reloaded receives a value after each successful reload.
func (w *ConfigWatcher) Reloaded() <-chan struct{} {
	return w.reloaded
}

// Start processes file system events until the watcher is closed.
// Call this in a goroutine.
func (w *ConfigWatcher) Start() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watcher error", "error", err)
		}
	}
}

func (w *ConfigWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.target {
		return
	}

	// Removal and rename-away leave the current state in place; an atomic
	// replacement is followed by a Create for the new file.
	switch {
	case event.Has(fsnotify.Create):
		w.debouncer.Add(w.target, OpCreate)
	case event.Has(fsnotify.Write):
		w.debouncer.Add(w.target, OpWrite)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.logger.Debug("config file moved away, keeping current state", "path", w.target)
	}
}

func (w *ConfigWatcher) reload(changes []Change) {
	if err := w.reloader.Reload(); err != nil {
		w.logger.Warn("reloading config failed, keeping current state", "path", w.target, "error", err)
		return
	}
	w.logger.Info("config reloaded", "path", w.target, "changes", len(changes))

	select {
	case w.reloaded <- struct{}{}:
	default:
	}
}

// Close stops the watcher and drops pending reloads.
func (w *ConfigWatcher) Close() error {
	w.debouncer.Stop()
	return w.fsWatcher.Close()
}
