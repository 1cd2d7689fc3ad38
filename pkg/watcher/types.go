// Package watcher provides change notification for record directories.
//
// It uses fsnotify to observe the configured input directories and
// emits a debounced event per changed record file, so a burst of
// appends to one file collapses into a single re-aggregation trigger.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{
//	    DebounceInterval: 250 * time.Millisecond,
//	}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, cfg.InputDirs); err != nil {
//	    return err
//	}
//
//	for ev := range w.Events() {
//	    // re-read ev.Path from its stored offset and fold the new records
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes what happened to a watched file.
type Op uint8

// File operation types.
const (
	OpCreate Op = iota + 1 // file appeared
	OpWrite                // file content changed
	OpRemove               // file deleted
	OpRename               // file renamed or moved away
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event is one debounced change to a record file.
type Event struct {
	// Path is the file that changed.
	Path string

	// Op is the last operation observed within the debounce window.
	Op Op

	// Timestamp is when the operation was observed.
	Timestamp time.Time
}

// Watcher monitors record directories for changes.
type Watcher interface {
	// Start begins watching the given directories and their
	// subdirectories. It returns once watching is established; events
	// are delivered on Events until the context is cancelled or the
	// watcher is stopped.
	Start(ctx context.Context, paths []string) error

	// Stop ends event delivery. The watcher cannot be restarted.
	Stop() error

	// Events returns the debounced event channel.
	Events() <-chan Event

	// Errors returns the channel for non-fatal watch errors.
	Errors() <-chan error

	// Close releases the underlying file system watches.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval is how long a file must stay quiet before its
	// pending event is emitted. Later events for the same file within
	// the window replace the pending one. Default: 250ms.
	DebounceInterval time.Duration

	// EventBuffer is the capacity of the events channel. Default: 64.
	EventBuffer int
}
