// Package algorithms holds the read-only graph computations an attack step
// needs: betweenness and degree centrality, candidate ranking and the
// connected-component partition.
package algorithms

import (
	"errors"
	"fmt"
	"math"

	"github.com/dd0wney/cluso-percolation/pkg/graph"
	"github.com/dd0wney/cluso-percolation/pkg/parallel"
)

// ErrTrivialGraph is returned when centrality is requested on a view with at
// most one node, where shortest paths between distinct nodes do not exist.
var ErrTrivialGraph = errors.New("centrality undefined on trivial graph")

// sourceBlock is the number of BFS sources whose contributions are summed
// together before being merged into the total. Merging always happens in
// block order, so the floating point result does not depend on how blocks
// were spread across workers.
const sourceBlock = 32

type centralityConfig struct {
	workers int
}

// CentralityOption configures a centrality computation.
type CentralityOption func(*centralityConfig)

// WithWorkers spreads the BFS sources over n goroutines. Values below 2 run
// serially.
func WithWorkers(n int) CentralityOption {
	return func(c *centralityConfig) {
		c.workers = n
	}
}

// csr is the view's induced subgraph in compressed sparse row form, with
// nodes renumbered 0..n-1 in ascending original index.
type csr struct {
	offsets []int32
	targets []int32
}

func induced(v *graph.View) csr {
	nodes := v.Nodes()
	g := v.Graph()
	pos := make([]int32, g.OriginalSize())
	for i := range pos {
		pos[i] = -1
	}
	for i, oi := range nodes {
		pos[oi] = int32(i)
	}

	c := csr{offsets: make([]int32, len(nodes)+1)}
	for i, oi := range nodes {
		for _, w := range g.Adjacent(oi) {
			if p := pos[w]; p >= 0 {
				c.targets = append(c.targets, p)
			}
		}
		c.offsets[i+1] = int32(len(c.targets))
	}
	return c
}

// brandesScratch holds the per-source buffers of one worker.
type brandesScratch struct {
	sigma []float64
	delta []float64
	dist  []int32
	order []int32 // BFS visit order, doubles as the queue
}

func newScratch(n int) *brandesScratch {
	return &brandesScratch{
		sigma: make([]float64, n),
		delta: make([]float64, n),
		dist:  make([]int32, n),
		order: make([]int32, 0, n),
	}
}

// accumulate adds the dependencies of every node on source s into acc.
func (c csr) accumulate(s int32, sc *brandesScratch, acc []float64) {
	for i := range sc.dist {
		sc.dist[i] = -1
		sc.sigma[i] = 0
		sc.delta[i] = 0
	}
	sc.sigma[s] = 1
	sc.dist[s] = 0
	sc.order = append(sc.order[:0], s)

	for head := 0; head < len(sc.order); head++ {
		v := sc.order[head]
		for _, w := range c.targets[c.offsets[v]:c.offsets[v+1]] {
			if sc.dist[w] < 0 {
				sc.dist[w] = sc.dist[v] + 1
				sc.order = append(sc.order, w)
			}
			if sc.dist[w] == sc.dist[v]+1 {
				sc.sigma[w] += sc.sigma[v]
			}
		}
	}

	// Back-propagation over predecessors, found as neighbours one level up
	for i := len(sc.order) - 1; i > 0; i-- {
		w := sc.order[i]
		coeff := (1 + sc.delta[w]) / sc.sigma[w]
		for _, v := range c.targets[c.offsets[w]:c.offsets[w+1]] {
			if sc.dist[v] == sc.dist[w]-1 {
				sc.delta[v] += sc.sigma[v] * coeff
			}
		}
		acc[w] += sc.delta[w]
	}
}

// BetweennessValues computes raw betweenness centrality over the view, aligned
// with v.Nodes(). Paths only pass through nodes of the view. Each unordered
// pair of endpoints is counted once, so the centre of a star with k leaves
// scores k(k-1)/2.
func BetweennessValues(v *graph.View, opts ...CentralityOption) ([]float64, error) {
	cfg := centralityConfig{workers: 1}
	for _, opt := range opts {
		opt(&cfg)
	}

	n := v.Len()
	if n <= 1 {
		return nil, fmt.Errorf("betweenness over %d nodes: %w", n, ErrTrivialGraph)
	}

	c := induced(v)
	blocks := (n + sourceBlock - 1) / sourceBlock
	partial := make([][]float64, blocks)

	runBlock := func(b int, sc *brandesScratch) {
		acc := make([]float64, n)
		end := min((b+1)*sourceBlock, n)
		for s := b * sourceBlock; s < end; s++ {
			c.accumulate(int32(s), sc, acc)
		}
		partial[b] = acc
	}

	if cfg.workers < 2 || blocks < 2 {
		sc := newScratch(n)
		for b := range blocks {
			runBlock(b, sc)
		}
	} else {
		pool, err := parallel.NewWorkerPool(min(cfg.workers, blocks))
		if err != nil {
			return nil, fmt.Errorf("betweenness: %w", err)
		}
		for b := range blocks {
			pool.Submit(func() {
				runBlock(b, newScratch(n))
			})
		}
		if err := pool.Wait(); err != nil {
			return nil, fmt.Errorf("betweenness: %w", err)
		}
	}

	out := make([]float64, n)
	for _, acc := range partial {
		for i, x := range acc {
			out[i] += x
		}
	}
	// Both orientations of every pair were accumulated
	for i := range out {
		out[i] /= 2
	}
	return out, nil
}

// Betweenness is BetweennessValues keyed by original index.
func Betweenness(v *graph.View, opts ...CentralityOption) (map[int]float64, error) {
	values, err := BetweennessValues(v, opts...)
	if err != nil {
		return nil, err
	}
	return byNode(v.Nodes(), values), nil
}

// NormalizeBetweenness scales a raw value by 2/((n-1)(n-2)), the number of
// pairs that could route through a node of an n-node component.
func NormalizeBetweenness(raw float64, n int) float64 {
	if n <= 2 {
		return math.NaN()
	}
	return 2 * raw / (float64(n-1) * float64(n-2))
}

// DegreeValues returns each view node's degree counted inside the view,
// aligned with v.Nodes().
func DegreeValues(v *graph.View) []float64 {
	nodes := v.Nodes()
	out := make([]float64, len(nodes))
	for i, oi := range nodes {
		out[i] = float64(v.Degree(oi))
	}
	return out
}

// Degree is DegreeValues keyed by original index.
func Degree(v *graph.View) map[int]float64 {
	return byNode(v.Nodes(), DegreeValues(v))
}

func byNode(nodes []int, values []float64) map[int]float64 {
	m := make(map[int]float64, len(nodes))
	for i, oi := range nodes {
		m[oi] = values[i]
	}
	return m
}
