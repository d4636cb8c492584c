package watcher

import (
	"context"
	"log/slog"
	"time"
)

// Invalidator drops cached handles that predate a change.
// *handle.Manager implements it.
type Invalidator interface {
	Stale(name string, signal time.Time) bool
	Invalidate(name string) bool
}

// Refresh invalidates every name whose cached handle predates signal and
// returns the invalidated names.
func Refresh(inv Invalidator, names []string, signal time.Time) []string {
	var refreshed []string
	for _, name := range names {
		if inv.Stale(name, signal) && inv.Invalidate(name) {
			refreshed = append(refreshed, name)
		}
	}
	return refreshed
}

// Run refreshes names on every change until ctx is cancelled or the
// watcher stops.
func Run(ctx context.Context, w *Watcher, inv Invalidator, names func() []string) {
	logger := w.opts.Logger
	for {
		select {
		case <-ctx.Done():
			return
		case changed, ok := <-w.Events():
			if !ok {
				return
			}
			refreshed := Refresh(inv, names(), changed)
			logger.Info("indexes_refreshed",
				slog.Time("signal", changed),
				slog.Int("count", len(refreshed)))
		case err, ok := <-w.Errors():
			if !ok {
				return
			}
			logger.Warn("watcher_error", slog.String("error", err.Error()))
		}
	}
}
