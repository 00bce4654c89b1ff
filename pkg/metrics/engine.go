package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the engine metrics.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// EngineMetrics instruments analytics operations, snapshot fetches, and the snapshot cache.
type EngineMetrics struct {
	operations *prometheus.HistogramVec
	fetches    *prometheus.HistogramVec
	cacheHits  *prometheus.CounterVec
	cacheMiss  *prometheus.CounterVec
	rows       *prometheus.CounterVec
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	operations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sellerpulse_operation_duration_seconds",
		Help:    "Duration of analytics operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})
	fetches := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sellerpulse_source_fetch_duration_seconds",
		Help:    "Duration of report source fetches in seconds.",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"report", "outcome"})
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerpulse_snapshot_cache_hits_total",
		Help: "Snapshot cache hits.",
	}, []string{"backend"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerpulse_snapshot_cache_misses_total",
		Help: "Snapshot cache misses.",
	}, []string{"backend"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sellerpulse_source_rows_total",
		Help: "Rows loaded from report sources.",
	}, []string{"report"})
	reg.MustRegister(operations, fetches, hits, misses, rows)
	return &EngineMetrics{
		operations: operations,
		fetches:    fetches,
		cacheHits:  hits,
		cacheMiss:  misses,
		rows:       rows,
	}
}

// ObserveOperation records the duration and outcome of an analytics operation.
func (m *EngineMetrics) ObserveOperation(operation string, duration time.Duration, err error) {
	if m == nil || m.operations == nil {
		return
	}
	m.operations.WithLabelValues(normalizeLabel(operation), outcome(err)).Observe(duration.Seconds())
}

// ObserveFetch records one report fetch along with how many rows it returned.
func (m *EngineMetrics) ObserveFetch(report string, duration time.Duration, rows int, err error) {
	if m == nil || m.fetches == nil {
		return
	}
	report = normalizeLabel(report)
	m.fetches.WithLabelValues(report, outcome(err)).Observe(duration.Seconds())
	if err == nil && rows > 0 {
		m.rows.WithLabelValues(report).Add(float64(rows))
	}
}

func (m *EngineMetrics) IncCacheHit(backend string) {
	if m == nil || m.cacheHits == nil {
		return
	}
	m.cacheHits.WithLabelValues(normalizeLabel(backend)).Inc()
}

func (m *EngineMetrics) IncCacheMiss(backend string) {
	if m == nil || m.cacheMiss == nil {
		return
	}
	m.cacheMiss.WithLabelValues(normalizeLabel(backend)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
