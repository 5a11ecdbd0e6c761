package attack

import (
	"math"

	"github.com/dd0wney/cluso-percolation/pkg/algorithms"
)

// RunState is the state of a run.
type RunState int

const (
	StateRunning RunState = iota
	// StateTerminated: the run stopped on its own, see Reason.
	StateTerminated
	// StateInterrupted: the context was cancelled between two steps.
	StateInterrupted
	// StateFailed: the run hit an error; the result holds the valid prefix.
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	case StateInterrupted:
		return "interrupted"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Reason explains why a run stopped.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonGiantBelowTwo
	ReasonExhaustedCandidates
	ReasonCentralityUndefined
	ReasonCancelled
	ReasonError
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonGiantBelowTwo:
		return "giant_below_two"
	case ReasonExhaustedCandidates:
		return "exhausted_candidates"
	case ReasonCentralityUndefined:
		return "centrality_undefined"
	case ReasonCancelled:
		return "cancelled"
	case ReasonError:
		return "error"
	}
	return "unknown"
}

// Removal is one entry of the removal record.
type Removal struct {
	Step          int
	OriginalIndex int
	// RelativeGiant is the giant size over N0 when the step started.
	RelativeGiant float64
	// RelativeGiantAfter is the giant size over N0 once the node is gone.
	RelativeGiantAfter float64
}

// Step is the snapshot taken at one step, before its removal.
type Step struct {
	Index   int
	Removed int
	Present int // nodes present before the removal

	Sizes      algorithms.SizeDistribution
	GiantSize  int
	SecondSize int

	// Candidates, Betweenness and Degree are only filled when centrality
	// recording is enabled. The slices are aligned.
	Candidates  []int
	Betweenness []float64
	Degree      []float64

	GiantDegreeMean float64
	GiantDegreeStd  float64

	// Modularity is NaN unless a modularity function was configured.
	Modularity float64

	// Replayed marks steps reconstructed from a checkpoint.
	Replayed bool
}

// Result is the outcome of a run. A run that stops early still carries a
// consistent prefix of removals and steps.
type Result struct {
	Policy   Policy
	N0       int
	Removals []Removal
	Steps    []Step
	State    RunState
	Reason   Reason
}

// Order returns the removed original indices in removal order.
func (r *Result) Order() []int {
	out := make([]int, len(r.Removals))
	for i, rm := range r.Removals {
		out[i] = rm.OriginalIndex
	}
	return out
}

// BetweennessMatrix returns one row per step and one column per original
// index. Cells for nodes that were not candidates at that step are NaN. Rows
// are nil-free only when centralities were recorded.
func (r *Result) BetweennessMatrix() [][]float64 {
	return r.matrix(func(s *Step) []float64 { return s.Betweenness })
}

// DegreeMatrix is BetweennessMatrix for degree.
func (r *Result) DegreeMatrix() [][]float64 {
	return r.matrix(func(s *Step) []float64 { return s.Degree })
}

func (r *Result) matrix(values func(*Step) []float64) [][]float64 {
	out := make([][]float64, len(r.Steps))
	for t := range r.Steps {
		row := make([]float64, r.N0)
		for i := range row {
			row[i] = math.NaN()
		}
		s := &r.Steps[t]
		if v := values(s); v != nil {
			for i, oi := range s.Candidates {
				row[oi] = v[i]
			}
		}
		out[t] = row
	}
	return out
}

// Distributions returns the component size distribution of every step.
func (r *Result) Distributions() []algorithms.SizeDistribution {
	out := make([]algorithms.SizeDistribution, len(r.Steps))
	for i := range r.Steps {
		out[i] = r.Steps[i].Sizes
	}
	return out
}

// RecordsCentrality reports whether the steps carry centrality snapshots.
func (r *Result) RecordsCentrality() bool {
	return len(r.Steps) > 0 && r.Steps[0].Candidates != nil
}
