package handle

import (
	"log/slog"
	"time"

	"github.com/Aman-CERP/scout/internal/metrics"
)

// DefaultCacheSize is the number of handles kept open when no size is configured.
const DefaultCacheSize = 16

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records lifecycle events on m.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithCacheSize bounds the number of cached handles.
func WithCacheSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.cacheSize = n
		}
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}
