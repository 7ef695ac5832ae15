// Package metrics exposes Prometheus metrics for migration runs, plus an
// optional HTTP server for applications that do not already serve metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ChangeSetsAppliedTotal tracks change sets applied, per target product.
var ChangeSetsAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_changesets_applied_total",
		Help: "Total change sets applied",
	},
	[]string{"target"},
)

// ChangeSetsRevertedTotal tracks change sets rolled back, per target product.
var ChangeSetsRevertedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_changesets_reverted_total",
		Help: "Total change sets rolled back",
	},
	[]string{"target"},
)

// ChangeSetsSkippedTotal tracks change sets skipped as already applied.
var ChangeSetsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_changesets_skipped_total",
		Help: "Total change sets skipped because history marked them applied",
	},
	[]string{"target"},
)

// ChangesAppliedTotal tracks individual changes applied, per target and kind.
var ChangesAppliedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_changes_applied_total",
		Help: "Total changes applied",
	},
	[]string{"target", "kind"},
)

// RunFailuresTotal tracks runs aborted by an apply or revert failure.
var RunFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_run_failures_total",
		Help: "Total runs aborted by a failure",
	},
	[]string{"target", "mode"},
)

// DriftDetectedTotal tracks checksum drift detections.
var DriftDetectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "sqlshift_drift_detected_total",
		Help: "Total change sets whose checksum drifted from the recorded one",
	},
	[]string{"target"},
)

// RunDurationSeconds tracks wall-clock duration of whole runs.
var RunDurationSeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "sqlshift_run_duration_seconds",
		Help:    "Duration of migration runs",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"target", "mode"},
)
