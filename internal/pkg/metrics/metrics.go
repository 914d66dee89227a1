package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// HydrationsTotal counts wallet hydrations by outcome ("ok" or "error").
	HydrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisend_hydrations_total",
			Help: "Wallet hydrations by outcome.",
		},
		[]string{"chain", "outcome"},
	)

	// TransfersTotal counts batch transfer operations by outcome
	// ("success", "failed", "skipped").
	TransfersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "multisend_transfers_total",
			Help: "Batch transfer operations by outcome.",
		},
		[]string{"chain", "kind", "outcome"},
	)

	// BatchRunsTotal counts started batch runs.
	BatchRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "multisend_batch_runs_total",
			Help: "Batch runs started.",
		},
	)

	// HydrationDuration observes how long one wallet hydration takes.
	HydrationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "multisend_hydration_duration_seconds",
			Help:    "Duration of a single wallet hydration.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain"},
	)
)

// MustRegisterMetrics registers every collector with the default registry.
// Call once at startup.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		HydrationsTotal,
		TransfersTotal,
		BatchRunsTotal,
		HydrationDuration,
	)
}
