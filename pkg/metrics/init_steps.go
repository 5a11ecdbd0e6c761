package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStepMetrics() {
	r.StepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_steps_total",
			Help: "Total number of node removals performed",
		},
		[]string{"policy"},
	)

	r.ReplayedStepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_replayed_steps_total",
			Help: "Removals replayed from a checkpoint on resume",
		},
		[]string{"policy"},
	)

	r.GiantFraction = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "percolate_giant_fraction",
			Help: "Relative size of the giant component after the latest removal",
		},
		[]string{"policy"},
	)

	r.CentralityDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "percolate_centrality_duration_seconds",
			Help:    "Time spent computing one centrality snapshot",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
		[]string{"kind"},
	)

	r.ReplayDivergenceTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_replay_divergence_total",
			Help: "Replayed removals whose recomputed choice differed from the checkpoint",
		},
		[]string{"policy"},
	)
}
