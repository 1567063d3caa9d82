// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Build metrics
	BuildsTotal   *prometheus.CounterVec
	BuildDuration prometheus.Histogram

	// Read-model metrics
	Allocations  prometheus.Gauge
	Positions    prometheus.Gauge
	Liquidations prometheus.Gauge

	// Archive metrics
	ScorecardsArchived prometheus.Counter
	ArchiveErrors      prometheus.Counter

	// Health metrics
	LastSuccessfulBuild prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "vault_risk_lab"
	}

	return &Metrics{
		BuildsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "builds_total",
			Help:      "Total number of read-model builds by status",
		}, []string{"status"}),
		BuildDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "build_duration_seconds",
			Help:      "Read-model build duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),

		Allocations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "allocations",
			Help:      "Allocation rows in the latest read-model",
		}),
		Positions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "active_positions",
			Help:      "Active positions in the latest read-model",
		}),
		Liquidations: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "readmodel",
			Name:      "recent_liquidations",
			Help:      "Recent liquidation incidents in the latest read-model",
		}),

		ScorecardsArchived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "scorecards_total",
			Help:      "Total number of scorecards archived",
		}),
		ArchiveErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "archive",
			Name:      "errors_total",
			Help:      "Total number of scorecard archive failures",
		}),

		LastSuccessfulBuild: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_build_timestamp",
			Help:      "Unix timestamp of last successful read-model build",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBuild records one build attempt.
func RecordBuild(status string, durationSeconds float64) {
	DefaultMetrics.BuildsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BuildDuration.Observe(durationSeconds)
}

// RecordModel updates the gauges describing the latest read-model.
func RecordModel(allocations, positions, liquidations int, builtAtUnix int64) {
	DefaultMetrics.Allocations.Set(float64(allocations))
	DefaultMetrics.Positions.Set(float64(positions))
	DefaultMetrics.Liquidations.Set(float64(liquidations))
	DefaultMetrics.LastSuccessfulBuild.Set(float64(builtAtUnix))
}

// RecordArchive records a scorecard archive attempt.
func RecordArchive(err error) {
	if err != nil {
		DefaultMetrics.ArchiveErrors.Inc()
		return
	}
	DefaultMetrics.ScorecardsArchived.Inc()
}
