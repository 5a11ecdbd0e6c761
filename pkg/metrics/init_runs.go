package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initRunMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_runs_total",
			Help: "Total number of attack runs by final state",
		},
		[]string{"policy", "state"},
	)

	r.RunsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "percolate_runs_in_flight",
			Help: "Number of attack runs currently executing",
		},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "percolate_run_duration_seconds",
			Help:    "Wall time of a complete attack run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
		[]string{"policy"},
	)

	r.JobsSkippedTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_jobs_skipped_total",
			Help: "Jobs skipped because their output already exists",
		},
		[]string{"policy"},
	)
}
