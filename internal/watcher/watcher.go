// Package watcher reports when a single file changes on disk.
package watcher

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherClosed is returned when operating on a closed watcher.
var ErrWatcherClosed = errors.New("watcher closed")

// DefaultDelay is the debounce window used when none is given.
const DefaultDelay = 100 * time.Millisecond

// Op describes what happened to the watched file.
type Op uint8

const (
	// OpWrite means the file content changed in place or was replaced.
	OpWrite Op = 1 << iota
	// OpRemove means the file was removed or renamed away.
	OpRemove
)

// String returns the operation name.
func (o Op) String() string {
	switch {
	case o&OpRemove != 0:
		return "REMOVE"
	case o&OpWrite != 0:
		return "WRITE"
	default:
		return "NONE"
	}
}

// Event is a debounced change notification.
type Event struct {
	Path string
	Op   Op
	Time time.Time
}

// FileWatcher watches one file. It watches the parent directory so that
// editors that save by writing a new file and renaming it are seen.
// Bursts of events inside the delay window are coalesced into one Event.
type FileWatcher struct {
	path  string
	delay time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending Op
	removed bool
	timer   *time.Timer
	closed  bool

	events  chan Event
	errors  chan error
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New starts watching path. A delay <= 0 uses DefaultDelay.
func New(path string, delay time.Duration) (*FileWatcher, error) {
	if delay <= 0 {
		delay = DefaultDelay
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", path, err)
	}

	w := &FileWatcher{
		path:    abs,
		delay:   delay,
		fsw:     fsw,
		events:  make(chan Event, 8),
		errors:  make(chan error, 8),
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Events returns the debounced event channel.
func (w *FileWatcher) Events() <-chan Event {
	return w.events
}

// Errors returns the error channel.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}

// Close stops the watcher and closes its channels.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()

	close(w.events)
	close(w.errors)
	return err
}

func (w *FileWatcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if op := convertOp(ev.Op); op != 0 {
				w.schedule(op)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

func convertOp(op fsnotify.Op) Op {
	var out Op
	if op.Has(fsnotify.Write) || op.Has(fsnotify.Create) {
		out |= OpWrite
	}
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		out |= OpRemove
	}
	return out
}

// schedule merges op into the pending event and restarts the delay.
func (w *FileWatcher) schedule(op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.pending |= op
	w.removed = op == OpRemove
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.flush)
}

func (w *FileWatcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.pending == 0 {
		return
	}
	ev := Event{Path: w.path, Op: w.pending, Time: time.Now()}
	// The last operation in the burst decides whether the file still exists.
	if ev.Op == OpWrite|OpRemove {
		ev.Op = OpWrite
		if w.removed {
			ev.Op = OpRemove
		}
	}
	w.pending = 0

	select {
	case w.events <- ev:
	default:
	}
}
