// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "estatelens"

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "requests_total",
		Help:      "Analyze and compare operations by outcome.",
	}, []string{"operation", "outcome"})

	summaryTierTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "summary_tier_total",
		Help:      "Summaries produced per tier.",
	}, []string{"variant", "tier"})

	narrativeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "narrative_duration_seconds",
		Help:      "Latency of narrative generation calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
	}, []string{"outcome"})

	narrativeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "narrative_failures_total",
		Help:      "Narrative generation failures by error kind.",
	}, []string{"kind"})

	datasetRows = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_rows",
		Help:      "Rows in the loaded dataset snapshot.",
	})
)

// ObserveRequest counts one operation with outcome ok, guidance, input_error or error.
func ObserveRequest(operation, outcome string) {
	requestsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveTier counts the tier that produced a summary.
func ObserveTier(variant, tier string) {
	summaryTierTotal.WithLabelValues(variant, tier).Inc()
}

// ObserveNarrative records a narrative call. An empty kind means success.
func ObserveNarrative(d time.Duration, kind string) {
	outcome := "ok"
	if kind != "" {
		outcome = "error"
		narrativeFailures.WithLabelValues(kind).Inc()
	}
	narrativeDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SetDatasetRows publishes the snapshot size.
func SetDatasetRows(n int) {
	datasetRows.Set(float64(n))
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
