package indexer

import (
	"log/slog"
	"runtime"
	"time"

	scerrors "github.com/Aman-CERP/scout/internal/errors"
	"github.com/Aman-CERP/scout/internal/metrics"
)

// Refs lists the directory references that must survive pruning.
// *store.Catalog implements it.
type Refs interface {
	Refs() ([]string, error)
}

// Toucher records that indexes changed. *watcher.Signal implements it.
type Toucher interface {
	Touch() error
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Indexer) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithMetrics records rebuild metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(ix *Indexer) { ix.metrics = m }
}

// WithCatalog enables pruning of directories no longer bound in refs.
func WithCatalog(refs Refs) Option {
	return func(ix *Indexer) { ix.catalog = refs }
}

// WithSignal touches sig after every successful rebuild.
func WithSignal(sig Toucher) Option {
	return func(ix *Indexer) { ix.signal = sig }
}

// WithWorkers sets the number of concurrent marshalling workers.
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// WithBatchSize sets the number of documents per index batch.
func WithBatchSize(n int) Option {
	return func(ix *Indexer) {
		if n > 0 {
			ix.batchSize = n
		}
	}
}

// WithRetry sets the retry policy for swapping in a rebuilt index.
func WithRetry(cfg scerrors.RetryConfig) Option {
	return func(ix *Indexer) { ix.retry = cfg }
}

func defaultWorkers() int {
	return runtime.NumCPU()
}

func withClock(now func() time.Time) Option {
	return func(ix *Indexer) { ix.now = now }
}
