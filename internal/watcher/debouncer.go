package watcher

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces rapid signal changes into the latest change time,
// emitted once the window passes without a newer change.
type Debouncer struct {
	window  time.Duration
	latest  time.Time
	pending bool
	mu      sync.Mutex
	output  chan time.Time
	timer   *time.Timer
	stopped bool
}

// NewDebouncer creates a debouncer with the given window and output buffer.
func NewDebouncer(window time.Duration, buffer int) *Debouncer {
	if buffer <= 0 {
		buffer = 1
	}
	return &Debouncer{
		window: window,
		output: make(chan time.Time, buffer),
	}
}

// Add records a change at t.
func (d *Debouncer) Add(t time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if !d.pending || t.After(d.latest) {
		d.latest = t
	}
	d.pending = true

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

func (d *Debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped || !d.pending {
		return
	}
	d.pending = false

	select {
	case d.output <- d.latest:
	default:
		slog.Warn("debouncer_output_full",
			slog.Time("changed", d.latest))
	}
}

// Output returns the channel of debounced change times.
func (d *Debouncer) Output() <-chan time.Time {
	return d.output
}

// Stop stops the debouncer and closes the output channel.
// Safe to call multiple times.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.output)
}
