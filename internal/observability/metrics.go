// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Consolidation metrics
	ExecutionsConsumed prometheus.Counter
	MatchOutcomes      *prometheus.CounterVec
	ProcessingErrors   *prometheus.CounterVec

	// Batch metrics
	BatchRunsTotal prometheus.Counter
	BatchFailures  prometheus.Counter
	BatchDuration  prometheus.Histogram
	UsersProcessed prometheus.Counter

	// Archive metrics
	PnLRecordsArchived prometheus.Counter
	ArchiveErrors      prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trade_ledger"
	}

	return &Metrics{
		ExecutionsConsumed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consolidation",
			Name:      "executions_consumed_total",
			Help:      "Total number of executions linked to a trade",
		}),
		MatchOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consolidation",
			Name:      "match_outcomes_total",
			Help:      "Total number of matching engine transitions by outcome",
		}, []string{"outcome"}),
		ProcessingErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "consolidation",
			Name:      "processing_errors_total",
			Help:      "Total number of skipped executions by reason",
		}, []string{"reason"}),

		BatchRunsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "runs_total",
			Help:      "Total number of per-user batch runs",
		}),
		BatchFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "failures_total",
			Help:      "Total number of per-user batch runs rolled back",
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "duration_seconds",
			Help:      "Per-user batch duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		UsersProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "batch",
			Name:      "users_processed_total",
			Help:      "Total number of users processed across runs",
		}),

		PnLRecordsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "pnl_records_total",
			Help:      "Total number of realized P&L records archived",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "errors_total",
			Help:      "Total number of archive write failures",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordExecutionConsumed increments the executions consumed counter.
func RecordExecutionConsumed() {
	DefaultMetrics.ExecutionsConsumed.Inc()
}

// RecordMatchOutcome increments the match outcome counter.
func RecordMatchOutcome(outcome string) {
	DefaultMetrics.MatchOutcomes.WithLabelValues(outcome).Inc()
}

// RecordProcessingError records a skipped execution.
func RecordProcessingError(reason string) {
	DefaultMetrics.ProcessingErrors.WithLabelValues(reason).Inc()
}

// RecordBatchRun records one per-user batch run.
func RecordBatchRun(seconds float64, failed bool) {
	DefaultMetrics.BatchRunsTotal.Inc()
	DefaultMetrics.BatchDuration.Observe(seconds)
	DefaultMetrics.UsersProcessed.Inc()
	if failed {
		DefaultMetrics.BatchFailures.Inc()
	}
}

// RecordArchivedPnL records archived realized P&L rows.
func RecordArchivedPnL(count int) {
	DefaultMetrics.PnLRecordsArchived.Add(float64(count))
}

// RecordArchiveError records an archive write failure.
func RecordArchiveError() {
	DefaultMetrics.ArchiveErrors.Inc()
}
