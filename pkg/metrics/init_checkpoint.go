package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initCheckpointMetrics() {
	r.CheckpointAppendsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "percolate_checkpoint_appends_total",
			Help: "Removal records appended to checkpoint logs",
		},
	)

	r.CheckpointBytesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "percolate_checkpoint_bytes_total",
			Help: "Compressed bytes written to checkpoint logs",
		},
	)

	r.CheckpointErrorsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "percolate_checkpoint_errors_total",
			Help: "Checkpoint failures by operation",
		},
		[]string{"operation"},
	)
}
