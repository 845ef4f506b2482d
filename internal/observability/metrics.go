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
	// Backtest metrics
	BacktestRuns        *prometheus.CounterVec
	BacktestDuration    prometheus.Histogram
	DaysProcessed       prometheus.Counter
	DaysMissing         prometheus.Counter
	MalformedSnapshots  prometheus.Counter
	TradesSimulated     prometheus.Counter
	ObservationsSkipped *prometheus.CounterVec

	// Ingestion metrics
	SnapshotsIngested prometheus.Counter
	MinuteBarsStored  prometheus.Counter
	AnalysesBuilt     prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stock_backtest_lab"
	}

	return &Metrics{
		BacktestRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "runs_total",
			Help:      "Total number of backtest runs by status",
		}, []string{"status"}),
		BacktestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "duration_seconds",
			Help:      "Backtest execution duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		DaysProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "days_processed_total",
			Help:      "Total number of trading days with snapshot data processed",
		}),
		DaysMissing: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "days_missing_total",
			Help:      "Total number of trading days skipped for missing snapshot data",
		}),
		MalformedSnapshots: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "malformed_snapshots_total",
			Help:      "Total number of trading days skipped for malformed snapshot data",
		}),
		TradesSimulated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "trades_simulated_total",
			Help:      "Total number of trades simulated",
		}),
		ObservationsSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backtest",
			Name:      "observations_skipped_total",
			Help:      "Total number of observations skipped by reason",
		}, []string{"reason"}),

		SnapshotsIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_ingested_total",
			Help:      "Total number of day snapshots ingested",
		}),
		MinuteBarsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "minute_bars_stored_total",
			Help:      "Total number of minute bars stored",
		}),
		AnalysesBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "analyses_built_total",
			Help:      "Total number of profit/loss analyses built from minute bars",
		}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBacktestRun records a finished backtest run.
func RecordBacktestRun(status string, durationSeconds float64) {
	DefaultMetrics.BacktestRuns.WithLabelValues(status).Inc()
	DefaultMetrics.BacktestDuration.Observe(durationSeconds)
}

// RecordDayProcessed increments the processed days counter.
func RecordDayProcessed() {
	DefaultMetrics.DaysProcessed.Inc()
}

// RecordDayMissing increments the missing days counter.
func RecordDayMissing() {
	DefaultMetrics.DaysMissing.Inc()
}

// RecordMalformedSnapshot increments the malformed snapshot counter.
func RecordMalformedSnapshot() {
	DefaultMetrics.MalformedSnapshots.Inc()
}

// RecordTradeSimulated increments the simulated trades counter.
func RecordTradeSimulated() {
	DefaultMetrics.TradesSimulated.Inc()
}

// RecordObservationSkipped records a skipped observation by reason.
func RecordObservationSkipped(reason string) {
	DefaultMetrics.ObservationsSkipped.WithLabelValues(reason).Inc()
}

// RecordSnapshotIngested increments the ingested snapshots counter.
func RecordSnapshotIngested() {
	DefaultMetrics.SnapshotsIngested.Inc()
}

// RecordMinuteBarsStored adds to the stored minute bars counter.
func RecordMinuteBarsStored(n int) {
	DefaultMetrics.MinuteBarsStored.Add(float64(n))
}

// RecordAnalysisBuilt increments the built analyses counter.
func RecordAnalysisBuilt() {
	DefaultMetrics.AnalysesBuilt.Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
