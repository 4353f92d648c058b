// Package watcher invalidates a page cache when the watched file's directory
// changes on disk.
package watcher

import (
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Changed waits for more events before signaling.
const DefaultDebounce = 100 * time.Millisecond

// ErrStopped is returned by Watch after Stop.
var ErrStopped = errors.New("watcher: stopped")

// Invalidator drops cached state. *pagedfile.PageCache satisfies it.
type Invalidator interface {
	Clear()
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the Changed debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounceDelay = d
		}
	}
}

// Watcher watches one directory at a time and clears its target on every
// relevant event in it.
type Watcher struct {
	fsWatcher     *fsnotify.Watcher
	target        Invalidator
	logger        *slog.Logger
	debounceDelay time.Duration

	events   chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	dir      string
	debounce *time.Timer
	closed   bool
}

// New creates a watcher that clears target on relevant events. It starts in
// the unwatched state; call Watch to begin observing a directory.
func New(target Invalidator, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsWatcher:     fsw,
		target:        target,
		logger:        slog.New(slog.DiscardHandler),
		debounceDelay: DefaultDebounce,
		events:        make(chan struct{}, 1),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	go w.run(fsw.Events, fsw.Errors)
	return w, nil
}

// Watch replaces the watched directory with dir. Watching the directory
// already being watched is a no-op. On failure the previous watch has already
// been dropped, so the watcher is unwatched.
func (w *Watcher) Watch(dir string) error {
	dir = filepath.Clean(dir)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrStopped
	}
	if dir == w.dir {
		return nil
	}
	if w.dir != "" {
		if err := w.fsWatcher.Remove(w.dir); err != nil {
			w.logger.Debug("remove previous watch", "dir", w.dir, "err", err)
		}
		w.dir = ""
	}
	if err := w.fsWatcher.Add(dir); err != nil {
		return err
	}
	w.dir = dir
	w.logger.Debug("watching directory", "dir", dir)
	return nil
}

// Dir returns the watched directory, or "" when unwatched.
func (w *Watcher) Dir() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dir
}

// Relevant reports whether an event of kind op can change file content.
// Chmod alone covers attribute and access-time updates and is ignored, since
// reading the file would otherwise invalidate its own cache. An empty op is
// unknown and treated as relevant.
func Relevant(op fsnotify.Op) bool {
	if op == 0 {
		return true
	}
	return op&^fsnotify.Chmod != 0
}

// Handle processes one event: a relevant event clears the target immediately
// and schedules a debounced signal on Changed.
func (w *Watcher) Handle(event fsnotify.Event) {
	if !Relevant(event.Op) {
		return
	}
	if w.target != nil {
		w.target.Clear()
	}
	w.logger.Debug("cache invalidated", "name", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.debounceDelay, w.signal)
}

func (w *Watcher) signal() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	select {
	case w.events <- struct{}{}:
	default: // Channel full, skip
	}
}

// run processes file system events until Stop or until fsnotify closes its
// channels.
func (w *Watcher) run(events <-chan fsnotify.Event, errs <-chan error) {
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.debounce != nil {
			w.debounce.Stop()
		}
		w.mu.Unlock()
		close(w.events)
		close(w.done)
	}()

	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Handle(event)
		case err, ok := <-errs:
			if !ok {
				return
			}
			// Dropped: there is no caller to report to, and the next
			// event still invalidates.
			w.logger.Debug("watch error", "err", err)
		}
	}
}

// Changed signals, debounced, after the cache has been invalidated. It is
// closed when the watcher stops.
func (w *Watcher) Changed() <-chan struct{} {
	return w.events
}

// Stop shuts down the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.fsWatcher.Close()
		<-w.done
	})
}
