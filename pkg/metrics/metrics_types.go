package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Run Metrics
	RunsTotal        *prometheus.CounterVec
	RunsInFlight     prometheus.Gauge
	RunDuration      *prometheus.HistogramVec
	JobsSkippedTotal *prometheus.CounterVec

	// Step Metrics
	StepsTotal            *prometheus.CounterVec
	ReplayedStepsTotal    *prometheus.CounterVec
	GiantFraction         *prometheus.GaugeVec
	CentralityDuration    *prometheus.HistogramVec
	ReplayDivergenceTotal *prometheus.CounterVec

	// Checkpoint Metrics
	CheckpointAppendsTotal prometheus.Counter
	CheckpointBytesTotal   prometheus.Counter
	CheckpointErrorsTotal  *prometheus.CounterVec

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry  *prometheus.Registry
	startTime time.Time
	mu        sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry:  reg,
		startTime: time.Now(),
	}

	// Initialize all metrics
	r.initRunMetrics()
	r.initStepMetrics()
	r.initCheckpointMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
