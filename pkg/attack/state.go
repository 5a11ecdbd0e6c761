package attack

import (
	"time"

	"github.com/dd0wney/cluso-percolation/pkg/algorithms"
	"github.com/dd0wney/cluso-percolation/pkg/graph"
)

// State is what a Ranker sees at one step. Centralities are computed on
// demand over the candidate view and cached, so ranking and recording share
// one computation.
type State struct {
	step       int
	graph      *graph.Graph
	partition  *algorithms.Partition
	candidates *graph.View

	workers  int
	recorder Recorder

	btw    []float64
	btwErr error
	deg    []float64
}

// Step returns the index of the step being ranked.
func (s *State) Step() int { return s.step }

// Graph returns the graph under attack. Rankers must not mutate it.
func (s *State) Graph() *graph.Graph { return s.graph }

// Partition returns the component partition before this step's removal.
func (s *State) Partition() *algorithms.Partition { return s.partition }

// Candidates returns the nodes eligible for removal.
func (s *State) Candidates() *graph.View { return s.candidates }

// Betweenness returns raw betweenness over the candidate view, aligned with
// Candidates().Nodes().
func (s *State) Betweenness() ([]float64, error) {
	if s.btw == nil && s.btwErr == nil {
		start := time.Now()
		s.btw, s.btwErr = algorithms.BetweennessValues(s.candidates, algorithms.WithWorkers(s.workers))
		s.recorder.CentralityComputed("betweenness", time.Since(start))
	}
	return s.btw, s.btwErr
}

// Degree returns the degree of each candidate inside the candidate view.
func (s *State) Degree() []float64 {
	if s.deg == nil {
		start := time.Now()
		s.deg = algorithms.DegreeValues(s.candidates)
		s.recorder.CentralityComputed("degree", time.Since(start))
	}
	return s.deg
}
