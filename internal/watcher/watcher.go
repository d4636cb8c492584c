package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Options configures the watcher behavior.
type Options struct {
	// DebounceWindow is the time to wait before emitting coalesced signals.
	// Default: 200ms
	DebounceWindow time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// EventBufferSize is the size of the event channel buffer.
	// Default: 16
	EventBufferSize int

	// ForcePolling skips fsnotify.
	ForcePolling bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		DebounceWindow:  200 * time.Millisecond,
		PollInterval:    5 * time.Second,
		EventBufferSize: 16,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.DebounceWindow == 0 {
		o.DebounceWindow = defaults.DebounceWindow
	}
	if o.PollInterval == 0 {
		o.PollInterval = defaults.PollInterval
	}
	if o.EventBufferSize == 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Watcher emits the signal's change time whenever the marker changes.
type Watcher struct {
	signal    *Signal
	opts      Options
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	errors    chan error
	stopCh    chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a watcher for sig. It uses fsnotify unless it cannot be
// initialized or polling is forced.
func New(sig *Signal, opts Options) (*Watcher, error) {
	if sig == nil {
		return nil, fmt.Errorf("watcher needs a signal")
	}
	opts = opts.WithDefaults()
	w := &Watcher{
		signal:    sig,
		opts:      opts,
		debouncer: NewDebouncer(opts.DebounceWindow, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
		} else {
			opts.Logger.Warn("watcher_fsnotify_unavailable",
				slog.String("error", err.Error()))
		}
	}
	return w, nil
}

// Polling reports whether the watcher fell back to polling.
func (w *Watcher) Polling() bool {
	return w.fsWatcher == nil
}

// Events returns debounced change times.
func (w *Watcher) Events() <-chan time.Time {
	return w.debouncer.Output()
}

// Errors returns non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start watches until ctx is cancelled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if w.fsWatcher != nil {
		dir := filepath.Dir(w.signal.Path())
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create signal directory: %w", err)
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		return w.runFsnotify(ctx)
	}
	return w.runPolling(ctx)
}

func (w *Watcher) runFsnotify(ctx context.Context) error {
	target := filepath.Clean(w.signal.Path())
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Chmod) {
				w.observe()
			}
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *Watcher) runPolling(ctx context.Context) error {
	last, err := w.signal.Changed()
	if err != nil {
		w.emitError(err)
	}
	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case <-ticker.C:
			changed, err := w.signal.Changed()
			if err != nil {
				w.emitError(err)
				continue
			}
			if changed.After(last) {
				last = changed
				w.debouncer.Add(changed)
			}
		}
	}
}

func (w *Watcher) observe() {
	changed, err := w.signal.Changed()
	if err != nil {
		w.emitError(err)
		return
	}
	if !changed.IsZero() {
		w.debouncer.Add(changed)
	}
}

func (w *Watcher) emitError(err error) {
	select {
	case w.errors <- err:
	default:
		w.opts.Logger.Warn("watcher_error_dropped", slog.String("error", err.Error()))
	}
}

// Stop stops the watcher and closes its channels.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}
