package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads the project list when projects.json is edited outside the
// process, e.g. by `consult project edit`.
type Watcher struct {
	store    *Store
	run      Runner
	watcher  *fsnotify.Watcher
	onReload func()
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewWatcher watches the store directory. onReload, if set, is called on the
// Runner after a reload. When run is nil the reload runs on the watcher
// goroutine under the store lock.
func NewWatcher(s *Store, run Runner, onReload func(), logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if run == nil {
		run = s.Do
	}
	return &Watcher{
		store:    s,
		run:      run,
		watcher:  fw,
		onReload: onReload,
		done:     make(chan struct{}),
		logger:   logger.With("component", "watcher"),
	}, nil
}

// Start begins watching. Editors often replace files by rename, so the
// directory is watched rather than the file.
func (w *Watcher) Start() error {
	if err := EnsureDir(w.store.Dir()); err != nil {
		return err
	}
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.store.Dir(), err)
	}
	w.wg.Add(1)
	go w.eventLoop()
	return nil
}

// Stop ends the watch and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
	})
	return err
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	target := filepath.Clean(w.store.Projects.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Chmod) {
				continue
			}
			w.run(w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) reload() {
	reloaded, err := w.store.Projects.ReloadIfNewer()
	if err != nil {
		w.logger.Warn("reloading project list", "error", err)
		return
	}
	if !reloaded {
		return
	}
	w.logger.Info("project list reloaded", "projects", w.store.Projects.Len())
	if w.onReload != nil {
		w.onReload()
	}
}
