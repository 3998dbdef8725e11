package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/newsroom-crawler/internal/metrics"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.RunStarted()
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunInProgress), 0)

	m.LinkOutcome("Acme", "qualified")
	m.LinkOutcome("Acme", "qualified")
	m.LinkOutcome("Acme", "rejected")
	m.Fetch("fallback")
	m.SnapshotWritten()
	m.MirrorFailed()
	m.SetStoredRecords(7)
	m.RunFinished("success", 3*time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.LinksTotal.WithLabelValues("Acme", "qualified")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LinksTotal.WithLabelValues("Acme", "rejected")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("fallback")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SnapshotsTotal), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MirrorErrors), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.StoredRecords), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RunsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.RunInProgress), 0)
}

func TestMetrics_NilIsSafe(t *testing.T) {
	t.Parallel()

	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.RunStarted()
		m.LinkOutcome("Acme", "qualified")
		m.Fetch("primary")
		m.SnapshotWritten()
		m.MirrorFailed()
		m.SetStoredRecords(1)
		m.RunFinished("failed", time.Second)
	})
	assert.NotNil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := metrics.New()
	m.LinkOutcome("Acme", "no_data")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `newsroom_crawler_links_total{organization="Acme",outcome="no_data"} 1`)
}
