package attack

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/dd0wney/cluso-percolation/pkg/algorithms"
	"github.com/dd0wney/cluso-percolation/pkg/graph"
	"github.com/dd0wney/cluso-percolation/pkg/logging"
)

// ErrExhaustedCandidates marks a run that found no node to remove while the
// giant component still had two or more nodes. It is reported through
// Result.Reason and the log, never returned.
var ErrExhaustedCandidates = errors.New("no removal candidates left")

// Driver runs one attack on one graph. The graph is mutated; a Driver is
// single use.
type Driver struct {
	g      *graph.Graph
	policy Policy
	ranker Ranker
	n0     int

	seed       uint64
	logger     logging.Logger
	recorder   Recorder
	checkpoint Checkpoint
	record     bool
	modularity func(*graph.View) float64
	workers    int
	observer   func(Step)
}

// New prepares an attack of g under policy. g is owned by the driver from
// now on.
func New(g *graph.Graph, policy Policy, opts ...Option) *Driver {
	d := &Driver{
		g:       g,
		policy:  policy,
		n0:      g.OriginalSize(),
		workers: 1,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.logger = logging.OrNop(d.logger).With(logging.Policy(policy.Prefix()))
	if d.recorder == nil {
		d.recorder = nopRecorder{}
	}
	d.ranker = policy.ranker(rand.New(rand.NewPCG(d.seed, 0)))
	return d
}

// Run removes nodes until the giant component has fewer than two nodes, no
// candidate is left, centrality becomes undefined or ctx is cancelled. The
// context is only checked between steps.
//
// The returned result is always non-nil. A non-nil error means the run failed
// mid-way (for instance the graph and the removal order went out of sync, or
// the checkpoint could not be written); the result then holds every step that
// completed.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{Policy: d.policy, N0: d.n0, State: StateRunning}

	start := time.Now()
	d.recorder.RunStarted()
	defer func() {
		d.recorder.RunFinished(d.policy.Prefix(), res.State.String(), time.Since(start))
	}()

	var recorded []int
	if d.checkpoint != nil {
		recorded = d.checkpoint.Removals()
	}
	if len(recorded) > 0 {
		d.logger.Info("resuming from checkpoint", logging.Count(len(recorded)))
	}

	partition := algorithms.Components(d.g)
	for step := 0; ; step++ {
		replaying := step < len(recorded)
		if !replaying {
			if err := ctx.Err(); err != nil {
				d.finish(res, StateInterrupted, ReasonCancelled)
				return res, nil
			}
		}

		if partition.GiantSize() < 2 {
			if replaying {
				d.logger.Warn("checkpoint continues past termination, ignoring the rest",
					logging.Step(step), logging.Count(len(recorded)-step))
			}
			d.finish(res, StateTerminated, ReasonGiantBelowTwo)
			return res, nil
		}

		st := d.newState(step, partition)
		if st.Candidates().Len() == 0 {
			d.logger.Warn("stopping early", logging.Step(step), logging.Error(ErrExhaustedCandidates))
			d.finish(res, StateTerminated, ReasonExhaustedCandidates)
			return res, nil
		}

		var oi int
		if replaying {
			oi = recorded[step]
			d.verifyReplay(st, oi)
		} else {
			var ok bool
			var err error
			oi, ok, err = d.ranker.Rank(st)
			switch {
			case errors.Is(err, algorithms.ErrTrivialGraph):
				d.logger.Info("centrality undefined, stopping", logging.Step(step), logging.Error(err))
				d.finish(res, StateTerminated, ReasonCentralityUndefined)
				return res, nil
			case err != nil:
				d.finish(res, StateFailed, ReasonError)
				return res, fmt.Errorf("rank step %d: %w", step, err)
			case !ok:
				d.logger.Warn("stopping early", logging.Step(step), logging.Error(ErrExhaustedCandidates))
				d.finish(res, StateTerminated, ReasonExhaustedCandidates)
				return res, nil
			}
		}

		snapshot := d.snapshot(st, oi)
		snapshot.Replayed = replaying

		if err := d.g.Remove(oi); err != nil {
			d.finish(res, StateFailed, ReasonError)
			return res, fmt.Errorf("step %d: %w", step, err)
		}
		partition = algorithms.Components(d.g)

		removal := Removal{
			Step:               step,
			OriginalIndex:      oi,
			RelativeGiant:      float64(snapshot.GiantSize) / float64(d.n0),
			RelativeGiantAfter: float64(partition.GiantSize()) / float64(d.n0),
		}
		if !replaying && d.checkpoint != nil {
			if err := d.checkpoint.Append(oi); err != nil {
				d.finish(res, StateFailed, ReasonError)
				return res, fmt.Errorf("checkpoint step %d: %w", step, err)
			}
		}

		res.Removals = append(res.Removals, removal)
		res.Steps = append(res.Steps, snapshot)

		d.recorder.StepRecorded(d.policy.Prefix(), removal.RelativeGiantAfter, replaying)
		if d.logger.Enabled(logging.DebugLevel) {
			d.logger.Debug("node removed",
				logging.Step(step),
				logging.OriginalIndex(oi),
				logging.GiantSize(partition.GiantSize()),
				logging.Bool("replayed", replaying))
		}
		if d.observer != nil {
			d.observer(snapshot)
		}
	}
}

func (d *Driver) newState(step int, partition *algorithms.Partition) *State {
	candidates := d.g.All()
	if d.policy.FollowGiant {
		candidates = partition.Giant()
	}
	return &State{
		step:       step,
		graph:      d.g,
		partition:  partition,
		candidates: candidates,
		workers:    d.workers,
		recorder:   d.recorder,
	}
}

// verifyReplay consults the ranker for a replayed step. Stateful rankers must
// see every step to stay in sync; deterministic ones are only checked when the
// centralities are computed for recording anyway.
func (d *Driver) verifyReplay(st *State, recorded int) {
	_, isStateful := d.ranker.(stateful)
	if !isStateful && !d.record {
		return
	}
	got, ok, err := d.ranker.Rank(st)
	if err != nil || !ok || got == recorded {
		return
	}
	d.recorder.ReplayDiverged(d.policy.Prefix())
	d.logger.Warn("replayed removal differs from recomputed choice",
		logging.Step(st.Step()),
		logging.OriginalIndex(recorded),
		logging.Int("recomputed", got))
}

func (d *Driver) snapshot(st *State, oi int) Step {
	p := st.Partition()
	s := Step{
		Index:      st.Step(),
		Removed:    oi,
		Present:    d.g.NodeCount(),
		Sizes:      p.Distribution(),
		GiantSize:  p.GiantSize(),
		SecondSize: p.SecondSize(),
		Modularity: math.NaN(),
	}

	giantDegrees := algorithms.DegreeValues(p.Giant())
	s.GiantDegreeMean, s.GiantDegreeStd = stat.PopMeanStdDev(giantDegrees, nil)

	if d.record {
		s.Candidates = append([]int(nil), st.Candidates().Nodes()...)
		s.Degree = st.Degree()
		// Undefined betweenness leaves the row empty; the ranker reports it
		if btw, err := st.Betweenness(); err == nil {
			s.Betweenness = btw
		}
	}
	if d.modularity != nil {
		s.Modularity = d.modularity(d.g.All())
	}
	return s
}

func (d *Driver) finish(res *Result, state RunState, reason Reason) {
	res.State = state
	res.Reason = reason
	d.logger.Info("attack finished",
		logging.String("state", state.String()),
		logging.String("reason", reason.String()),
		logging.Count(len(res.Removals)))
}

// Replay re-runs a recorded removal order on g and reconstructs the steps,
// without centralities unless WithRecordCentrality is given. It stops at the
// end of order or when the giant component falls below two nodes.
func Replay(ctx context.Context, g *graph.Graph, policy Policy, order []int, opts ...Option) (*Result, error) {
	d := New(g, policy, opts...)
	d.ranker = &orderRanker{order: order}
	d.checkpoint = nil
	return d.Run(ctx)
}
