package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"review-scout/internal/pkg/config"
)

// Metrics tracks scheduled run execution on top of the embedded
// configuration metrics (load timestamp, validation errors, fallbacks).
//
// Worker-specific series:
//   - scout_worker_runs_total{status}: scheduled runs by terminal status
//   - scout_worker_run_duration_seconds: duration histogram per run
//   - scout_worker_queries_collected_total: queries collected across runs
//   - scout_worker_last_success_timestamp: unix time of the last clean run
type Metrics struct {
	*config.ConfigMetrics

	RunsTotal             *prometheus.CounterVec
	RunDurationSeconds    prometheus.Histogram
	QueriesCollectedTotal prometheus.Counter
	LastSuccessTimestamp  prometheus.Gauge
}

// NewMetrics creates the worker metrics. Registration happens via promauto
// on creation.
func NewMetrics() *Metrics {
	return &Metrics{
		ConfigMetrics: config.NewConfigMetrics("scout_worker"),

		RunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_worker_runs_total",
			Help: "Total number of scheduled collection runs by status",
		}, []string{"status"}),

		RunDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "scout_worker_run_duration_seconds",
			Help:    "Duration of a scheduled collection run in seconds",
			Buckets: []float64{5, 30, 60, 300, 900, 1800, 3600},
		}),

		QueriesCollectedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "scout_worker_queries_collected_total",
			Help: "Total number of search queries collected across all runs",
		}),

		LastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "scout_worker_last_success_timestamp",
			Help: "Unix timestamp of the last fully successful run",
		}),
	}
}

// RecordRun increments the run counter; status is a task outcome or "error".
func (m *Metrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordRunDuration observes one run's duration in seconds.
func (m *Metrics) RecordRunDuration(seconds float64) {
	m.RunDurationSeconds.Observe(seconds)
}

// RecordQueriesCollected adds the number of queries a run processed.
func (m *Metrics) RecordQueriesCollected(count int) {
	m.QueriesCollectedTotal.Add(float64(count))
}

// RecordLastSuccess stamps the last clean run at now.
func (m *Metrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
