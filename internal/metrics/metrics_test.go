package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_CountsHandleLifecycle(t *testing.T) {
	// Given: metrics on a private registry
	m := New(prometheus.NewRegistry())

	// When: two handles open and one closes
	m.HandleOpened("articles")
	m.HandleOpened("articles")
	m.HandleClosed("articles")
	m.Acquired("articles", ResultHit)
	m.Swapped("articles")

	// Then: counters and the open gauge reflect it
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HandlesOpenedTotal.WithLabelValues("articles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HandlesClosedTotal.WithLabelValues("articles")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpenHandles))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AcquiresTotal.WithLabelValues("articles", ResultHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SwapsTotal.WithLabelValues("articles")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.HandleOpened("x")
		m.HandleClosed("x")
		m.OpenFailed("x")
		m.CleanupFailed("x")
		m.Acquired("x", ResultError)
		m.Swapped("x")
		m.MarshallFailed("x")
		m.DocsIndexed("x", 3)
		m.ObserveRebuild("x", 0.5)
	})
	assert.NotNil(t, m.Gatherer())
}

func TestMetrics_HandlerExposesCollectors(t *testing.T) {
	m := New(nil)
	m.DocsIndexed("articles", 5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `scout_docs_indexed_total{index="articles"} 5`))
}
