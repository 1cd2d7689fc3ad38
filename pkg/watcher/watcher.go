package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/statfold/statfold/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw *fsnotify.Watcher
	log logger.Logger
	cfg Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// New creates a file system watcher for record directories.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if log == nil {
		log = logger.Nop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:      fsw,
		log:      log,
		cfg:      cfg,
		events:   make(chan Event, cfg.EventBuffer),
		errors:   make(chan error, 8),
		stopChan: make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start.
func (w *watcher) Start(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if w.running {
		w.mu.Unlock()
		return ErrAlreadyStarted
	}
	w.running = true
	w.mu.Unlock()

	watchable := make([]string, 0, len(paths))
	for _, path := range paths {
		expanded := expandHome(path)
		if _, err := os.Stat(expanded); err != nil {
			if os.IsNotExist(err) {
				w.log.Warn("watch path does not exist, skipping", "path", expanded)
				continue
			}
			return fmt.Errorf("failed to stat path %s: %w", expanded, err)
		}
		watchable = append(watchable, expanded)
	}

	if len(watchable) == 0 {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return ErrNoWatchablePaths
	}

	for _, path := range watchable {
		if err := w.addTree(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
	}

	w.log.Info("watcher started",
		"paths", watchable,
		"debounce", w.cfg.DebounceInterval)

	go w.run(ctx)
	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false

	w.log.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	close(w.events)
	close(w.errors)

	w.pendingMu.Lock()
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = nil
	w.pendingMu.Unlock()

	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

// run forwards fsnotify events until stopped.
func (w *watcher) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopChan:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("fsnotify error", "error", err)
			select {
			case w.errors <- err:
			default:
				w.log.Warn("error channel full, dropping error")
			}
		}
	}
}

// handleEvent classifies one fsnotify event and debounces it.
func (w *watcher) handleEvent(ev fsnotify.Event) {
	// New subdirectories join the watch; record files get debounced.
	if ev.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.log.Warn("failed to watch new directory",
					"path", ev.Name,
					"error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(ev.Name, ".jsonl") {
		return
	}

	var op Op
	switch {
	case ev.Op.Has(fsnotify.Create):
		op = OpCreate
	case ev.Op.Has(fsnotify.Write):
		op = OpWrite
	case ev.Op.Has(fsnotify.Remove):
		op = OpRemove
	case ev.Op.Has(fsnotify.Rename):
		op = OpRename
	default:
		return
	}

	w.debounce(Event{
		Path:      ev.Name,
		Op:        op,
		Timestamp: time.Now(),
	})
}

// debounce delays emission until the file has been quiet for the
// configured interval. A newer event for the same path replaces the
// pending one.
func (w *watcher) debounce(event Event) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if w.pending == nil {
		return
	}
	if timer, ok := w.pending[event.Path]; ok {
		timer.Stop()
	}

	w.pending[event.Path] = time.AfterFunc(w.cfg.DebounceInterval, func() {
		w.mu.RLock()
		closed := w.closed
		w.mu.RUnlock()

		if !closed {
			w.events <- event
		}

		w.pendingMu.Lock()
		delete(w.pending, event.Path)
		w.pendingMu.Unlock()
	})
}

// addTree watches path and every directory below it.
func (w *watcher) addTree(path string) error {
	if err := w.fsw.Add(path); err != nil {
		return fmt.Errorf("failed to add path: %w", err)
	}

	return filepath.Walk(path, func(sub string, info os.FileInfo, err error) error {
		if err != nil {
			w.log.Warn("error walking path", "path", sub, "error", err)
			return nil
		}
		if !info.IsDir() || sub == path {
			return nil
		}
		if addErr := w.fsw.Add(sub); addErr != nil {
			w.log.Warn("failed to add subdirectory",
				"path", sub,
				"error", addErr)
		}
		return nil
	})
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}
