// Package metrics provides Prometheus metrics for crawl runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// MetricsNamespace is the namespace for all crawler metrics.
	MetricsNamespace = "newsroom"

	// MetricsSubsystem is the subsystem for crawl metrics.
	MetricsSubsystem = "crawler"
)

// Metrics holds the Prometheus collectors for the crawl pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds prometheus.Histogram
	RunInProgress      prometheus.Gauge

	LinksTotal     *prometheus.CounterVec
	FetchesTotal   *prometheus.CounterVec
	SnapshotsTotal prometheus.Counter
	MirrorErrors   prometheus.Counter
	StoredRecords  prometheus.Gauge
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{registry: reg}
	m.initRunMetrics(factory)
	m.initLinkMetrics(factory)

	return m
}

func (m *Metrics) initRunMetrics(factory promauto.Factory) {
	m.RunsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "runs_total",
			Help:      "Total number of crawl runs by status",
		},
		[]string{"status"},
	)

	m.RunDurationSeconds = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Duration of crawl runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 14),
		},
	)

	m.RunInProgress = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "run_in_progress",
			Help:      "Whether a crawl run is currently executing",
		},
	)
}

func (m *Metrics) initLinkMetrics(factory promauto.Factory) {
	m.LinksTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "links_total",
			Help:      "Discovered links by organization and terminal outcome",
		},
		[]string{"organization", "outcome"},
	)

	m.FetchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "fetches_total",
			Help:      "Page fetches by mode",
		},
		[]string{"mode"},
	)

	m.SnapshotsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "snapshots_written_total",
			Help:      "Page snapshots written",
		},
	)

	m.MirrorErrors = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "mirror_errors_total",
			Help:      "Records that failed to reach the search mirror",
		},
	)

	m.StoredRecords = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Subsystem: MetricsSubsystem,
			Name:      "stored_records",
			Help:      "Records held by the result store",
		},
	)
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// RunStarted marks a run as executing.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunInProgress.Set(1)
}

// RunFinished records the end of a run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunInProgress.Set(0)
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDurationSeconds.Observe(d.Seconds())
}

// LinkOutcome counts a terminal link outcome.
func (m *Metrics) LinkOutcome(org, outcome string) {
	if m == nil {
		return
	}
	m.LinksTotal.WithLabelValues(org, outcome).Inc()
}

// Fetch counts a fetch by mode.
func (m *Metrics) Fetch(mode string) {
	if m == nil {
		return
	}
	m.FetchesTotal.WithLabelValues(mode).Inc()
}

// SnapshotWritten counts a written snapshot.
func (m *Metrics) SnapshotWritten() {
	if m == nil {
		return
	}
	m.SnapshotsTotal.Inc()
}

// MirrorFailed counts a mirror failure.
func (m *Metrics) MirrorFailed() {
	if m == nil {
		return
	}
	m.MirrorErrors.Inc()
}

// SetStoredRecords sets the record gauge.
func (m *Metrics) SetStoredRecords(n int) {
	if m == nil {
		return
	}
	m.StoredRecords.Set(float64(n))
}
