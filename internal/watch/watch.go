// Package watch reports changes to a set of files so they can be
// re-validated. The parent directory of each file is watched, which keeps
// working when editors replace a file by renaming a temporary one over it.
package watch

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the kind of change seen for a file.
type Op int

const (
	// Created means the file appeared, including rename-over-save.
	Created Op = iota
	// Written means the file content changed in place.
	Written
	// Removed means the file was deleted or moved away.
	Removed
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case Created:
		return "created"
	case Written:
		return "written"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is a debounced change of one watched file.
type Event struct {
	Path      string
	Op        Op
	Timestamp time.Time
}

// DefaultDebounceDelay coalesces the bursts of events a single save produces.
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher watches files for changes until its context is cancelled or Close
// is called. Events is closed when the watcher stops.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan Event
	errors  chan error
	done    chan struct{}
	files   map[string]bool

	mu            sync.Mutex
	debounceDelay time.Duration
	pending       map[string]*time.Timer
	closed        bool
}

// New starts watching files. Every file's parent directory must exist; the
// files themselves need not.
func New(ctx context.Context, files ...string) (*Watcher, error) {
	if len(files) == 0 {
		return nil, errors.New("watch: no files given")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       fsw,
		events:        make(chan Event, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		files:         make(map[string]bool, len(files)),
		debounceDelay: DefaultDebounceDelay,
		pending:       make(map[string]*time.Timer),
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
		dirs[dir] = true
	}

	go w.processEvents()
	go func() {
		select {
		case <-ctx.Done():
			w.Close()
		case <-w.done:
		}
	}()

	return w, nil
}

func (w *Watcher) processEvents() {
	defer close(w.errors)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
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

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !w.files[path] {
		return
	}

	var op Op
	switch {
	case event.Has(fsnotify.Create):
		op = Created
	case event.Has(fsnotify.Write):
		op = Written
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = Removed
	default:
		return
	}
	w.debounce(path, op)
}

// debounce restarts the timer of path; the last operation seen wins.
func (w *Watcher) debounce(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounceDelay, func() {
		w.send(path, op)
	})
}

func (w *Watcher) send(path string, op Op) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	delete(w.pending, path)
	select {
	case w.events <- Event{Path: path, Op: op, Timestamp: time.Now()}:
	default:
		// Consumer is behind; a later change will be reported anyway.
	}
}

// Events returns the debounced changes. It is closed when the watcher stops.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns errors reported by the underlying watcher.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// SetDebounceDelay changes the debounce delay of subsequent events.
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, timer := range w.pending {
		timer.Stop()
	}
	w.pending = nil
	close(w.events)
	w.mu.Unlock()

	close(w.done)
	return w.watcher.Close()
}
