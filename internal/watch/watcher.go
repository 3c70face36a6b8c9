// Package watch follows a single text file and reports its content each time
// it settles after a change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ChangeFunc receives the file's content after it settles. It runs on the
// watcher's goroutine and should return quickly.
type ChangeFunc func(ctx context.Context, content string)

// Stats tracks watcher activity.
type Stats struct {
	Events        int
	Deliveries    int
	Unchanged     int
	Errors        int
	LastEventTime time.Time
	LastEventType string
}

// FileWatcher watches one file. It watches the parent directory so editors
// that save by rename are still followed.
type FileWatcher struct {
	mu        sync.Mutex
	watcher   *fsnotify.Watcher
	path      string
	dir       string
	quiet     time.Duration
	debouncer *Debouncer
	fire      chan struct{}
	onChange  ChangeFunc
	logger    *zap.Logger

	last      string
	delivered bool

	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	stats   Stats
}

// Option configures a FileWatcher.
type Option func(*FileWatcher)

// WithDebounce sets the quiet period before a change is delivered.
func WithDebounce(d time.Duration) Option {
	return func(w *FileWatcher) { w.quiet = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *FileWatcher) { w.logger = l }
}

// New creates a watcher for path. onChange is called with the initial content
// once Start runs and again whenever the content settles to a new value.
func New(path string, onChange ChangeFunc, opts ...Option) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	} else if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &FileWatcher{
		watcher:   fw,
		path:      abs,
		dir:       filepath.Dir(abs),
		quiet:     DefaultDebounce,
		fire:      make(chan struct{}, 1),
		onChange:  onChange,
		logger:    zap.NewNop(),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.debouncer = NewDebouncer(w.quiet, w.queueDelivery)
	return w, nil
}

// queueDelivery asks the event loop to read the file. At most one delivery is
// queued at a time.
func (w *FileWatcher) queueDelivery() {
	select {
	case w.fire <- struct{}{}:
	default:
	}
}

// Path returns the absolute path being watched.
func (w *FileWatcher) Path() string {
	return w.path
}

// Start begins watching. It is non-blocking; events are handled on a
// goroutine until Stop is called or ctx is cancelled.
func (w *FileWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Info("watching file", zap.String("path", w.path))

	// Deliver the initial content.
	w.debouncer.Flush()

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *FileWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	if dropped := w.debouncer.Cancel(); dropped > 0 {
		w.logger.Debug("unsettled change dropped", zap.Int("events", dropped))
	}

	if err := w.watcher.Close(); err != nil {
		w.logger.Error("error closing watcher", zap.Error(err))
	}
	w.logger.Debug("watcher stopped")
}

// Done is closed when the event loop exits.
func (w *FileWatcher) Done() <-chan struct{} {
	return w.doneCh
}

// Stats returns the current watcher statistics.
func (w *FileWatcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *FileWatcher) run(ctx context.Context) {
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watcher context cancelled")
			return

		case <-w.stopCh:
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
			w.logger.Error("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-w.fire:
			w.deliver(ctx)
		}
	}
}

func (w *FileWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Remove):
		eventType = "delete"
	case event.Has(fsnotify.Rename):
		eventType = "rename"
	default:
		return // Ignore chmod
	}

	w.logger.Debug("file event", zap.String("type", eventType))

	w.mu.Lock()
	w.stats.Events++
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventType = eventType
	w.mu.Unlock()

	if n := w.debouncer.Trigger(); n > 1 {
		w.logger.Debug("coalescing events", zap.Int("pending", n))
	}
}

// deliver reads the settled file and hands new content to onChange.
func (w *FileWatcher) deliver(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Mid-rename or deleted; a later create will fire again.
			w.logger.Debug("file missing, skipping")
			return
		}
		w.logger.Warn("failed to read file", zap.Error(err))
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}

	content := string(data)
	w.mu.Lock()
	if w.delivered && content == w.last {
		w.stats.Unchanged++
		w.mu.Unlock()
		return
	}
	w.last = content
	w.delivered = true
	w.stats.Deliveries++
	w.mu.Unlock()

	w.onChange(ctx, content)
}
