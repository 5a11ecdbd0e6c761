// Package runner executes a configured batch of attacks. Jobs (one attack on
// one network) are independent: each loads its own graph, so they run on a
// worker pool without sharing any mutable state.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/checkpoint"
	"github.com/dd0wney/cluso-percolation/pkg/config"
	"github.com/dd0wney/cluso-percolation/pkg/graph"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
	"github.com/dd0wney/cluso-percolation/pkg/metrics"
	"github.com/dd0wney/cluso-percolation/pkg/parallel"
	"github.com/dd0wney/cluso-percolation/pkg/percolation"
	"github.com/dd0wney/cluso-percolation/pkg/results"
)

// ErrNoResult is recorded for a job that stopped without reporting an
// outcome, such as one whose task panicked.
var ErrNoResult = errors.New("job stopped without a result")

// Outcome is what happened to one job.
type Outcome int

const (
	// OutcomePending marks a job that has not reported back.
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeSkipped
	OutcomeInterrupted
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeInterrupted:
		return "interrupted"
	case OutcomeFailed:
		return "failed"
	}
	return "unknown"
}

// JobResult reports one finished job.
type JobResult struct {
	RunID   string
	Job     config.Job
	Outcome Outcome
	Steps   int
	Reason  attack.Reason
	Dir     string
	Elapsed time.Duration
	Err     error
}

// Summary aggregates a batch.
type Summary struct {
	Jobs []JobResult
}

// Count returns the number of jobs with outcome o.
func (s *Summary) Count(o Outcome) int {
	n := 0
	for _, j := range s.Jobs {
		if j.Outcome == o {
			n++
		}
	}
	return n
}

// Err joins the errors of failed jobs.
func (s *Summary) Err() error {
	var errs []error
	for _, j := range s.Jobs {
		if j.Err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", j.Job.Network, j.Job.Policy.Prefix(), j.Err))
		}
	}
	return errors.Join(errs...)
}

// Progress is reported after every recorded step of a job.
type Progress struct {
	RunID string
	Job   config.Job
	N0    int
	Step  attack.Step
}

// Runner executes the jobs of a configuration.
type Runner struct {
	cfg        *config.Config
	logger     logging.Logger
	metrics    *metrics.Registry
	modularity func(*graph.View) float64
	progress   func(Progress)
	done       func(JobResult)

	started  atomic.Bool
	active   atomic.Int64
	lastStep atomic.Int64 // unix nanoseconds
}

// Activity is a point-in-time view of a running batch.
type Activity struct {
	Started  bool
	Active   int       // attacks currently between load and write
	LastStep time.Time // zero until the first step
}

// Activity reports what the batch is doing. It is safe to call while Run
// is in progress.
func (r *Runner) Activity() Activity {
	a := Activity{
		Started: r.started.Load(),
		Active:  int(r.active.Load()),
	}
	if ns := r.lastStep.Load(); ns != 0 {
		a.LastStep = time.Unix(0, ns)
	}
	return a
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the batch logger.
func WithLogger(logger logging.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics reports runs, steps and checkpoint writes to m.
func WithMetrics(m *metrics.Registry) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithModularity records fn's value at every step of every job.
func WithModularity(fn func(*graph.View) float64) Option {
	return func(r *Runner) {
		r.modularity = fn
	}
}

// WithProgress calls fn after every step. fn is called from worker
// goroutines and must be safe for concurrent use.
func WithProgress(fn func(Progress)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

// WithJobDone calls fn when a job finishes, from the job's goroutine.
func WithJobDone(fn func(JobResult)) Option {
	return func(r *Runner) {
		r.done = fn
	}
}

// New creates a runner for a validated configuration.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r
}

// Run executes every job. Cancelling ctx stops running attacks between steps,
// leaving their checkpoints for a later resume, and skips jobs not yet
// started. The summary lists every job in configuration order.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	jobs, err := r.cfg.Jobs()
	if err != nil {
		return nil, err
	}

	pool, err := parallel.NewWorkerPool(r.cfg.Workers, parallel.WithLogger(r.logger))
	if err != nil {
		return nil, err
	}

	r.started.Store(true)
	summary := &Summary{Jobs: make([]JobResult, len(jobs))}
	for i, job := range jobs {
		summary.Jobs[i] = JobResult{Job: job, Outcome: OutcomePending}
	}
	var mu sync.Mutex
	for i, job := range jobs {
		pool.Submit(func() {
			res := r.runJob(ctx, job)
			mu.Lock()
			summary.Jobs[i] = res
			mu.Unlock()
			if r.done != nil {
				r.done(res)
			}
		})
	}
	waitErr := pool.Wait()

	// A job whose task panicked never stored its result.
	for i := range summary.Jobs {
		if j := &summary.Jobs[i]; j.Outcome == OutcomePending {
			j.Outcome = OutcomeFailed
			j.Err = ErrNoResult
		}
	}
	if waitErr != nil {
		return summary, waitErr
	}

	r.logger.Info("batch finished",
		logging.Count(len(jobs)),
		logging.Int("completed", summary.Count(OutcomeCompleted)),
		logging.Int("skipped", summary.Count(OutcomeSkipped)),
		logging.Int("interrupted", summary.Count(OutcomeInterrupted)),
		logging.Int("failed", summary.Count(OutcomeFailed)))
	return summary, summary.Err()
}

func (r *Runner) runJob(ctx context.Context, job config.Job) JobResult {
	start := time.Now()
	prefix := job.Policy.Prefix()
	out := JobResult{
		RunID: uuid.NewString(),
		Job:   job,
		Dir:   results.RunDir(r.cfg.OutputDir, job.Network, prefix),
	}
	logger := r.logger.With(
		logging.Run(out.RunID),
		logging.Network(job.Network),
		logging.Policy(prefix),
		logging.Seed(uint64(job.Seed)))

	finish := func(o Outcome, err error) JobResult {
		out.Outcome = o
		out.Err = err
		out.Elapsed = time.Since(start)
		if err != nil {
			logger.Error("job failed", logging.Error(err))
		}
		return out
	}

	if ctx.Err() != nil {
		return finish(OutcomeInterrupted, nil)
	}

	tracePath := filepath.Join(out.Dir, results.TraceFile(prefix, job.Network))
	if !r.cfg.Overwrite {
		if _, err := os.Stat(tracePath); err == nil {
			logger.Info("output exists, skipping", logging.Path(tracePath))
			if r.metrics != nil {
				r.metrics.JobSkipped(prefix)
			}
			return finish(OutcomeSkipped, nil)
		}
	}

	r.active.Add(1)
	defer r.active.Add(-1)

	g, report, err := graph.LoadFile(job.InputPath, graph.WithLogger(logger))
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	logger.Debug("network loaded",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", report.Edges),
		logging.Int("dropped", report.Dropped))

	cp, err := r.openCheckpoint(out.Dir, checkpoint.Header{
		Policy: prefix,
		N0:     g.OriginalSize(),
		Seed:   uint64(job.Seed),
	}, logger)
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	defer cp.Close()

	opts := []attack.Option{
		attack.WithSeed(uint64(job.Seed)),
		attack.WithLogger(logger),
		attack.WithCheckpoint(cp),
		attack.WithRecordCentrality(r.cfg.RecordCentrality),
		attack.WithWorkers(r.cfg.CentralityWorkers),
	}
	if r.metrics != nil {
		opts = append(opts, attack.WithMetrics(r.metrics))
	}
	if r.modularity != nil {
		opts = append(opts, attack.WithModularity(r.modularity))
	}
	n0 := g.OriginalSize()
	opts = append(opts, attack.WithObserver(func(s attack.Step) {
		r.lastStep.Store(time.Now().UnixNano())
		if r.progress != nil {
			r.progress(Progress{RunID: out.RunID, Job: job, N0: n0, Step: s})
		}
	}))

	res, err := attack.New(g, job.Policy, opts...).Run(ctx)
	out.Steps = len(res.Removals)
	out.Reason = res.Reason
	switch {
	case err != nil:
		return finish(OutcomeFailed, err)
	case res.State == attack.StateInterrupted:
		logger.Info("job interrupted, checkpoint kept", logging.Step(len(res.Removals)))
		return finish(OutcomeInterrupted, nil)
	}

	var analyzeOpts []percolation.AnalyzeOption
	if r.cfg.NormalizeBetweenness {
		analyzeOpts = append(analyzeOpts, percolation.WithNormalizedBetweenness())
	}
	w, err := results.NewWriter(out.Dir,
		results.WithCompression(r.cfg.Compress),
		results.WithLabels(report.Labels),
		results.WithLogger(logger))
	if err != nil {
		return finish(OutcomeFailed, err)
	}
	if err := w.WriteRun(job.Network, res, percolation.Analyze(res, analyzeOpts...)); err != nil {
		return finish(OutcomeFailed, err)
	}
	return finish(OutcomeCompleted, nil)
}

// openCheckpoint opens the job's removal log. With overwrite the log starts
// empty, even when it was written for a different header.
func (r *Runner) openCheckpoint(dir string, header checkpoint.Header, logger logging.Logger) (*checkpoint.Log, error) {
	cpDir := filepath.Join(dir, results.CheckpointDir)
	opts := []checkpoint.Option{checkpoint.WithLogger(logger)}
	if r.metrics != nil {
		opts = append(opts, checkpoint.WithRecorder(r.metrics))
	}

	cp, err := checkpoint.Open(cpDir, header, opts...)
	if errors.Is(err, checkpoint.ErrHeaderMismatch) && r.cfg.Overwrite {
		if err := os.Remove(filepath.Join(cpDir, checkpoint.FileName)); err != nil {
			return nil, fmt.Errorf("discard checkpoint: %w", err)
		}
		return checkpoint.Open(cpDir, header, opts...)
	}
	if err != nil {
		return nil, err
	}
	if r.cfg.Overwrite {
		if err := cp.Truncate(); err != nil {
			cp.Close()
			return nil, err
		}
	}
	return cp, nil
}
