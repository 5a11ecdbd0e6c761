package percolation

import (
	"math"

	"github.com/dd0wney/cluso-percolation/pkg/algorithms"
	"github.com/dd0wney/cluso-percolation/pkg/attack"
)

// Curves holds every derived series of one run. Per-step series are padded
// to N0 entries: Ngcc and Nsec with 1, the rest with NaN. Susceptibility has
// one entry per original index instead of per step.
type Curves struct {
	Policy string
	N0     int
	Steps  int

	Ngcc []int
	Nsec []int

	MeanS   []float64 // FiniteClusterMean
	MeanS2  []float64 // FiniteClusterSecondMoment
	Binder  []float64 // BinderCumulant
	Binder2 []float64 // NumberBinderCumulant
	Binder3 []float64 // MomentRatio

	DegreeMean []float64
	DegreeStd  []float64
	Modularity []float64

	// Centrality derived series; nil unless the run recorded centralities.
	Betweenness    []Spread
	Susceptibility []float64
	OrderSum       []float64
	OrderSpin      []float64
}

type analyzeConfig struct {
	normalize bool
}

// AnalyzeOption configures Analyze.
type AnalyzeOption func(*analyzeConfig)

// WithNormalizedBetweenness rescales each step's betweenness by
// 2/((n−1)(n−2)), n being the number of candidates at that step, before the
// spread, susceptibility and order parameter are computed.
func WithNormalizedBetweenness() AnalyzeOption {
	return func(c *analyzeConfig) {
		c.normalize = true
	}
}

// Analyze derives all curves of res. res is not modified.
func Analyze(res *attack.Result, opts ...AnalyzeOption) *Curves {
	var cfg analyzeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	n0 := res.N0
	c := &Curves{Policy: res.Policy.Prefix(), N0: n0, Steps: len(res.Steps)}

	var meanS, meanS2, binder, binder2, binder3 []float64
	var degMean, degStd, modularity []float64
	var ngcc, nsec []int
	for i := range res.Steps {
		s := &res.Steps[i]
		sizes := s.Sizes.Expand()

		giant, second := GiantAndSecond(sizes)
		ngcc = append(ngcc, giant)
		nsec = append(nsec, second)

		meanS = append(meanS, FiniteClusterMean(sizes))
		meanS2 = append(meanS2, FiniteClusterSecondMoment(sizes))
		binder = append(binder, BinderCumulant(sizes))
		binder2 = append(binder2, NumberBinderCumulant(sizes))
		binder3 = append(binder3, MomentRatio(sizes))

		degMean = append(degMean, s.GiantDegreeMean)
		degStd = append(degStd, s.GiantDegreeStd)
		modularity = append(modularity, s.Modularity)
	}

	c.Ngcc = Pad(ngcc, n0, 1)
	c.Nsec = Pad(nsec, n0, 1)
	c.MeanS = PadNaN(meanS, n0)
	c.MeanS2 = PadNaN(meanS2, n0)
	c.Binder = PadNaN(binder, n0)
	c.Binder2 = PadNaN(binder2, n0)
	c.Binder3 = PadNaN(binder3, n0)
	c.DegreeMean = PadNaN(degMean, n0)
	c.DegreeStd = PadNaN(degStd, n0)
	c.Modularity = PadNaN(modularity, n0)

	if res.RecordsCentrality() {
		matrix := res.BetweennessMatrix()
		if cfg.normalize {
			normalize(matrix, res.Steps)
		}
		spreads := Map(matrix, DistributionSpread)
		nan := math.NaN()
		for len(spreads) < n0 {
			spreads = append(spreads, Spread{Mean: nan, Std: nan, CV: nan, Sum: nan})
		}
		c.Betweenness = spreads
		c.Susceptibility = PadNaN(Susceptibility(matrix), n0)

		sum, spin := OrderParameter(matrix)
		c.OrderSum = PadNaN(sum, n0)
		c.OrderSpin = PadNaN(spin, n0)
	}
	return c
}

func normalize(matrix [][]float64, steps []attack.Step) {
	for t, row := range matrix {
		n := len(steps[t].Candidates)
		for i, v := range row {
			if !math.IsNaN(v) {
				row[i] = algorithms.NormalizeBetweenness(v, n)
			}
		}
	}
}
