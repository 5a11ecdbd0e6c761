package attack

import (
	"fmt"
	"math/rand/v2"

	"github.com/dd0wney/cluso-percolation/pkg/algorithms"
)

// Ranker chooses the node to remove at one step. ok is false when no
// candidate can be chosen.
type Ranker interface {
	Rank(s *State) (oi int, ok bool, err error)
}

// stateful rankers keep state across steps, so a resumed run must consult
// them during replay for later choices to match.
type stateful interface {
	stateful()
}

// updateRanker recomputes the centrality on every step and picks the maximum.
type updateRanker struct {
	centrality Centrality
}

func (r *updateRanker) Rank(s *State) (int, bool, error) {
	values, err := signal(s, r.centrality)
	if err != nil {
		return 0, false, err
	}
	oi, ok := algorithms.ArgMax(s.Candidates().Nodes(), values)
	return oi, ok, nil
}

// randomRanker draws uniformly from the candidates at every step.
type randomRanker struct {
	rng *rand.Rand
}

func (r *randomRanker) Rank(s *State) (int, bool, error) {
	oi, ok := algorithms.RandomPick(s.Candidates().Nodes(), r.rng)
	return oi, ok, nil
}

func (*randomRanker) stateful() {}

// staticRanker ranks once, on the first step, and then walks that order.
// Removed nodes are skipped for good; with followGiant, nodes outside the
// current giant are passed over but stay eligible, since the component they
// sit in can become the giant once the old giant has shrunk.
type staticRanker struct {
	followGiant bool
	order       func(s *State) ([]int, error)

	ranking []int
	cursor  int // ranking[:cursor] are all removed
}

func (r *staticRanker) Rank(s *State) (int, bool, error) {
	if r.ranking == nil {
		ranking, err := r.order(s)
		if err != nil {
			return 0, false, err
		}
		r.ranking = ranking
	}

	g := s.Graph()
	for r.cursor < len(r.ranking) && !g.Has(r.ranking[r.cursor]) {
		r.cursor++
	}
	for _, oi := range r.ranking[r.cursor:] {
		if g.Has(oi) && (!r.followGiant || s.Partition().InGiant(oi)) {
			return oi, true, nil
		}
	}
	return 0, false, nil
}

func (*staticRanker) stateful() {}

func centralityOrder(c Centrality) func(s *State) ([]int, error) {
	return func(s *State) ([]int, error) {
		values, err := signal(s, c)
		if err != nil {
			return nil, err
		}
		return algorithms.RankDescending(s.Candidates().Nodes(), values), nil
	}
}

func shuffleOrder(rng *rand.Rand) func(s *State) ([]int, error) {
	return func(s *State) ([]int, error) {
		order := append([]int(nil), s.Candidates().Nodes()...)
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
		return order, nil
	}
}

// orderRanker replays a fixed removal order.
type orderRanker struct {
	order []int
}

func (r *orderRanker) Rank(s *State) (int, bool, error) {
	if s.Step() >= len(r.order) {
		return 0, false, nil
	}
	return r.order[s.Step()], true, nil
}

func signal(s *State, c Centrality) ([]float64, error) {
	switch c {
	case Betweenness:
		return s.Betweenness()
	case Degree:
		return s.Degree(), nil
	}
	return nil, fmt.Errorf("%w: no signal for %s", ErrUnknownPolicy, c)
}
