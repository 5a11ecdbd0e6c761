package runner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-percolation/pkg/attack"
	"github.com/dd0wney/cluso-percolation/pkg/checkpoint"
	"github.com/dd0wney/cluso-percolation/pkg/config"
	"github.com/dd0wney/cluso-percolation/pkg/metrics"
	"github.com/dd0wney/cluso-percolation/pkg/parallel"
	"github.com/dd0wney/cluso-percolation/pkg/results"
)

const pathEdges = "0 1\n1 2\n2 3\n"

// setup writes one path network per seed and returns a matching config.
func setup(t *testing.T, seeds int, attacks ...config.AttackConfig) *config.Config {
	t.Helper()
	root := t.TempDir()
	for seed := range seeds {
		path := filepath.Join(root, fmt.Sprintf("path_%02d.txt", seed))
		require.NoError(t, os.WriteFile(path, []byte(pathEdges), 0o644))
	}

	cfg := config.Default()
	cfg.InputPattern = filepath.Join(root, "path_%02d.txt")
	cfg.OutputDir = filepath.Join(root, "out")
	cfg.Seeds = config.SeedRange{Min: 0, Max: seeds}
	cfg.Attacks = attacks
	cfg.Workers = 2
	require.NoError(t, cfg.Validate())
	return cfg
}

var degreeUpdate = config.AttackConfig{Centrality: "degree", Update: true}

func traceOf(t *testing.T, cfg *config.Config, network, prefix string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(results.RunDir(cfg.OutputDir, network, prefix), results.TraceFile(prefix, network)))
	require.NoError(t, err)
	return string(data)
}

func TestRun_WritesEveryJob(t *testing.T) {
	cfg := setup(t, 2, degreeUpdate, config.AttackConfig{Centrality: "betweenness", FollowGiant: true, Update: true})
	cfg.RecordCentrality = true
	reg := metrics.NewRegistry()

	var mu sync.Mutex
	steps := 0
	summary, err := New(cfg, WithMetrics(reg), WithProgress(func(Progress) {
		mu.Lock()
		steps++
		mu.Unlock()
	})).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Jobs, 4)
	assert.Equal(t, 4, summary.Count(OutcomeCompleted))
	for _, j := range summary.Jobs {
		assert.NotEmpty(t, j.RunID)
		assert.Equal(t, 2, j.Steps)
		assert.Equal(t, attack.ReasonGiantBelowTwo, j.Reason)
		assert.FileExists(t, filepath.Join(j.Dir, results.BetweennessMatrixFile))
	}
	assert.Equal(t, "0 1 1 0.5\n1 2 0.5 0.25\n", traceOf(t, cfg, "path_01", "DegU"))
	assert.Equal(t, 8, steps)
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.StepsTotal.WithLabelValues("DegU")))
	assert.Equal(t, 4.0, testutil.ToFloat64(reg.StepsTotal.WithLabelValues("BtwGU")))
	assert.Equal(t, 8.0, testutil.ToFloat64(reg.CheckpointAppendsTotal))
}

func TestRun_SkipsExistingOutput(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	_, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	reg := metrics.NewRegistry()
	summary, err := New(cfg, WithMetrics(reg)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeSkipped))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.JobsSkippedTotal.WithLabelValues("DegU")))

	cfg.Overwrite = true
	summary, err = New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeCompleted))
	assert.Equal(t, "0 1 1 0.5\n1 2 0.5 0.25\n", traceOf(t, cfg, "path_00", "DegU"))
}

func TestRun_ResumesFromCheckpoint(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	dir := results.RunDir(cfg.OutputDir, "path_00", "DegU")

	cp, err := checkpoint.Open(filepath.Join(dir, results.CheckpointDir), checkpoint.Header{Policy: "DegU", N0: 4, Seed: 0})
	require.NoError(t, err)
	require.NoError(t, cp.Append(1))
	require.NoError(t, cp.Close())

	reg := metrics.NewRegistry()
	summary, err := New(cfg, WithMetrics(reg)).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeCompleted))
	assert.Equal(t, "0 1 1 0.5\n1 2 0.5 0.25\n", traceOf(t, cfg, "path_00", "DegU"))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ReplayedStepsTotal.WithLabelValues("DegU")))
}

func TestRun_HeaderMismatch(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	dir := results.RunDir(cfg.OutputDir, "path_00", "DegU")
	cp, err := checkpoint.Open(filepath.Join(dir, results.CheckpointDir), checkpoint.Header{Policy: "DegU", N0: 99, Seed: 0})
	require.NoError(t, err)
	require.NoError(t, cp.Close())

	summary, err := New(cfg).Run(context.Background())
	assert.ErrorIs(t, err, checkpoint.ErrHeaderMismatch)
	assert.Equal(t, 1, summary.Count(OutcomeFailed))

	cfg.Overwrite = true
	summary, err = New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeCompleted))
}

func TestRun_Cancelled(t *testing.T) {
	cfg := setup(t, 2, degreeUpdate)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := New(cfg).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Count(OutcomeInterrupted))
	assert.NoDirExists(t, filepath.Join(cfg.OutputDir, "path_00"))
}

func TestRun_MissingInput(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	cfg.InputPattern = filepath.Join(t.TempDir(), "absent_%02d.txt")

	var done []JobResult
	summary, err := New(cfg, WithJobDone(func(j JobResult) { done = append(done, j) })).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, 1, summary.Count(OutcomeFailed))
	require.Len(t, done, 1)
	assert.Equal(t, OutcomeFailed, done[0].Outcome)
}

func TestRun_Activity(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	r := New(cfg)

	before := r.Activity()
	assert.False(t, before.Started)
	assert.True(t, before.LastStep.IsZero())

	var during Activity
	r.progress = func(Progress) { during = r.Activity() }
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, during.Started)
	assert.Equal(t, 1, during.Active)
	after := r.Activity()
	assert.Equal(t, 0, after.Active)
	assert.False(t, after.LastStep.IsZero())
}

func TestRun_WritesLabels(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	_, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(results.RunDir(cfg.OutputDir, "path_00", "DegU"), results.LabelsFile))
	require.NoError(t, err)
	assert.Equal(t, "# oi label\n0 0\n1 1\n2 2\n3 3\n", string(data))
}

func TestRun_FailedWriteIsRetried(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)
	dir := results.RunDir(cfg.OutputDir, "path_00", "DegU")
	blocker := filepath.Join(dir, results.ComponentSizesFile)
	require.NoError(t, os.MkdirAll(blocker, 0o755))

	summary, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeFailed))
	assert.NoFileExists(t, filepath.Join(dir, results.TraceFile("DegU", "path_00")))

	require.NoError(t, os.Remove(blocker))
	summary, err = New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Count(OutcomeCompleted), "a run without its trace is not skipped")
	assert.FileExists(t, filepath.Join(dir, results.ComponentSizesFile))
	assert.Equal(t, "0 1 1 0.5\n1 2 0.5 0.25\n", traceOf(t, cfg, "path_00", "DegU"))
}

func TestRun_PanickedJobIsFailed(t *testing.T) {
	cfg := setup(t, 1, degreeUpdate)

	summary, err := New(cfg, WithProgress(func(Progress) { panic("observer") })).Run(context.Background())
	assert.ErrorIs(t, err, parallel.ErrTaskPanic)
	require.Len(t, summary.Jobs, 1)
	job := summary.Jobs[0]
	assert.Equal(t, OutcomeFailed, job.Outcome)
	assert.ErrorIs(t, job.Err, ErrNoResult)
	assert.Equal(t, "path_00", job.Job.Network)
	assert.Equal(t, 0, summary.Count(OutcomeCompleted))
}

func TestOutcome_String(t *testing.T) {
	var zero Outcome
	assert.Equal(t, "pending", zero.String())
	assert.Equal(t, "completed", OutcomeCompleted.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
