package attack

import (
	"time"

	"github.com/dd0wney/cluso-percolation/pkg/graph"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

// Checkpoint persists the removal order; *checkpoint.Log satisfies it.
type Checkpoint interface {
	Removals() []int
	Append(oi int) error
}

// Recorder receives run progress; *metrics.Registry satisfies it.
type Recorder interface {
	RunStarted()
	RunFinished(policy, state string, duration time.Duration)
	StepRecorded(policy string, giantFraction float64, replayed bool)
	ReplayDiverged(policy string)
	CentralityComputed(kind string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RunStarted()                               {}
func (nopRecorder) RunFinished(string, string, time.Duration) {}
func (nopRecorder) StepRecorded(string, float64, bool)        {}
func (nopRecorder) ReplayDiverged(string)                     {}
func (nopRecorder) CentralityComputed(string, time.Duration)  {}

// Option configures a Driver.
type Option func(*Driver)

// WithSeed seeds the random source used by random policies.
func WithSeed(seed uint64) Option {
	return func(d *Driver) {
		d.seed = seed
	}
}

// WithLogger sets the run logger.
func WithLogger(logger logging.Logger) Option {
	return func(d *Driver) {
		d.logger = logger
	}
}

// WithMetrics reports progress to r.
func WithMetrics(r Recorder) Option {
	return func(d *Driver) {
		d.recorder = r
	}
}

// WithCheckpoint persists every removal to cp and, if cp already holds
// removals, resumes by replaying them first.
func WithCheckpoint(cp Checkpoint) Option {
	return func(d *Driver) {
		d.checkpoint = cp
	}
}

// WithRecordCentrality stores the betweenness and degree of every candidate
// at every step.
func WithRecordCentrality(record bool) Option {
	return func(d *Driver) {
		d.record = record
	}
}

// WithModularity records fn's value on the whole present graph at every step.
func WithModularity(fn func(*graph.View) float64) Option {
	return func(d *Driver) {
		d.modularity = fn
	}
}

// WithWorkers sets the number of goroutines used for betweenness.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		d.workers = n
	}
}

// WithObserver calls fn after every recorded step.
func WithObserver(fn func(Step)) Option {
	return func(d *Driver) {
		d.observer = fn
	}
}
