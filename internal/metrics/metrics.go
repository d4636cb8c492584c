// Package metrics defines the Prometheus collectors for index handles,
// hot swaps, and marshalling, and an HTTP handler for scraping them.
//
// Every method is safe on a nil *Metrics so library code can record
// unconditionally.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Acquire results.
const (
	ResultHit   = "hit"
	ResultOpen  = "open"
	ResultError = "error"
)

// Metrics holds all Prometheus collectors for scout.
type Metrics struct {
	HandlesOpenedTotal  *prometheus.CounterVec
	HandlesClosedTotal  *prometheus.CounterVec
	OpenFailuresTotal   *prometheus.CounterVec
	CleanupFailures     *prometheus.CounterVec
	AcquiresTotal       *prometheus.CounterVec
	SwapsTotal          *prometheus.CounterVec
	OpenHandles         prometheus.Gauge
	MarshallErrorsTotal *prometheus.CounterVec
	DocsIndexedTotal    *prometheus.CounterVec
	RebuildDuration     *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		HandlesOpenedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_handles_opened_total",
				Help: "Total index handles opened by index name.",
			},
			[]string{"index"},
		),
		HandlesClosedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_handles_closed_total",
				Help: "Total index handles physically closed by index name.",
			},
			[]string{"index"},
		),
		OpenFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_handle_open_failures_total",
				Help: "Total failed index opens by index name.",
			},
			[]string{"index"},
		),
		CleanupFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_handle_cleanup_failures_total",
				Help: "Total failures while closing discarded handles.",
			},
			[]string{"index"},
		),
		AcquiresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_handle_acquires_total",
				Help: "Total handle acquisitions by index name and result (hit, open, error).",
			},
			[]string{"index", "result"},
		),
		SwapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_index_swaps_total",
				Help: "Total hot swaps by index name.",
			},
			[]string{"index"},
		),
		OpenHandles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "scout_open_handles",
				Help: "Number of index handles currently open.",
			},
		),
		MarshallErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_marshall_errors_total",
				Help: "Total marshalling failures by alias.",
			},
			[]string{"alias"},
		),
		DocsIndexedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scout_docs_indexed_total",
				Help: "Total documents written by index name.",
			},
			[]string{"index"},
		),
		RebuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scout_rebuild_duration_seconds",
				Help:    "Index rebuild latency in seconds.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"index"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.HandlesOpenedTotal,
		m.HandlesClosedTotal,
		m.OpenFailuresTotal,
		m.CleanupFailures,
		m.AcquiresTotal,
		m.SwapsTotal,
		m.OpenHandles,
		m.MarshallErrorsTotal,
		m.DocsIndexedTotal,
		m.RebuildDuration,
	)
	return m
}

// Gatherer returns the registry the collectors are registered on.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.gatherer
}

// Handler returns an HTTP handler exposing the collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})
}

func (m *Metrics) HandleOpened(index string) {
	if m == nil {
		return
	}
	m.HandlesOpenedTotal.WithLabelValues(index).Inc()
	m.OpenHandles.Inc()
}

func (m *Metrics) HandleClosed(index string) {
	if m == nil {
		return
	}
	m.HandlesClosedTotal.WithLabelValues(index).Inc()
	m.OpenHandles.Dec()
}

func (m *Metrics) OpenFailed(index string) {
	if m == nil {
		return
	}
	m.OpenFailuresTotal.WithLabelValues(index).Inc()
}

func (m *Metrics) CleanupFailed(index string) {
	if m == nil {
		return
	}
	m.CleanupFailures.WithLabelValues(index).Inc()
}

func (m *Metrics) Acquired(index, result string) {
	if m == nil {
		return
	}
	m.AcquiresTotal.WithLabelValues(index, result).Inc()
}

func (m *Metrics) Swapped(index string) {
	if m == nil {
		return
	}
	m.SwapsTotal.WithLabelValues(index).Inc()
}

func (m *Metrics) MarshallFailed(alias string) {
	if m == nil {
		return
	}
	m.MarshallErrorsTotal.WithLabelValues(alias).Inc()
}

func (m *Metrics) DocsIndexed(index string, n int) {
	if m == nil {
		return
	}
	m.DocsIndexedTotal.WithLabelValues(index).Add(float64(n))
}

// ObserveRebuild records the duration of one rebuild in seconds.
func (m *Metrics) ObserveRebuild(index string, seconds float64) {
	if m == nil {
		return
	}
	m.RebuildDuration.WithLabelValues(index).Observe(seconds)
}
