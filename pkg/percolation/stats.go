// Package percolation derives finite-size scaling observables from the
// component-size distributions and centrality snapshots an attack records.
//
// Every function is pure. Quantities that are undefined for the input (too few
// clusters, no valid values) come back as NaN, never as an error or a panic.
package percolation

import (
	"math"
	"slices"
)

// finite returns the component sizes without the giant component, or nil when
// fewer than two components exist. The input order does not matter; the
// first largest entry is taken as the giant.
func finite(sizes []int) []float64 {
	if len(sizes) < 2 {
		return nil
	}
	giant := 0
	for i, s := range sizes {
		if s > sizes[giant] {
			giant = i
		}
	}
	out := make([]float64, 0, len(sizes)-1)
	for i, s := range sizes {
		if i != giant {
			out = append(out, float64(s))
		}
	}
	return out
}

// powerSum returns Σ s^k.
func powerSum(sizes []float64, k float64) float64 {
	sum := 0.0
	for _, s := range sizes {
		sum += math.Pow(s, k)
	}
	return sum
}

// FiniteClusterMean is the mean size of the cluster a randomly chosen node
// outside the giant belongs to: Σ n_s s² / Σ n_s s over the finite clusters.
func FiniteClusterMean(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	return powerSum(f, 2) / powerSum(f, 1)
}

// FiniteClusterSecondMoment is Σ n_s s² over the finite clusters.
func FiniteClusterSecondMoment(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	return powerSum(f, 2)
}

// BinderCumulant is 1 − N̄·S₄/(3·S₂²) with S₂ = Σ n_s s³, S₄ = Σ n_s s⁵ and
// N̄ = Σ n_s s over the finite clusters.
func BinderCumulant(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	norm, s2, s4 := powerSum(f, 1), powerSum(f, 3), powerSum(f, 5)
	return 1 - norm*s4/(3*s2*s2)
}

// BinderCumulantMoments computes the same quantity as BinderCumulant from the
// node-weighted moments ⟨s²⟩ and ⟨s⁴⟩, where a cluster of size s carries
// weight s.
func BinderCumulantMoments(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	m2, m4 := weightedMoment(f, 2), weightedMoment(f, 4)
	return 1 - m4/(3*m2*m2)
}

func weightedMoment(sizes []float64, k float64) float64 {
	num, den := 0.0, 0.0
	for _, s := range sizes {
		num += s * math.Pow(s, k)
		den += s
	}
	return num / den
}

// NumberBinderCumulant is 1 − ⟨s⁴⟩/(3⟨s²⟩²) with plain averages over the
// finite clusters.
func NumberBinderCumulant(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	n := float64(len(f))
	m2, m4 := powerSum(f, 2)/n, powerSum(f, 4)/n
	return 1 - m4/(3*m2*m2)
}

// MomentRatio is ⟨s²⟩²/⟨s³⟩ with plain averages over the finite clusters.
func MomentRatio(sizes []int) float64 {
	f := finite(sizes)
	if f == nil {
		return math.NaN()
	}
	n := float64(len(f))
	m2, m3 := powerSum(f, 2)/n, powerSum(f, 3)/n
	return m2 * m2 / m3
}

// GiantAndSecond returns the largest and second largest sizes; the second
// is 0 with a single component and both are 0 for an empty input.
func GiantAndSecond(sizes []int) (giant, second int) {
	sorted := slices.Clone(sizes)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })
	if len(sorted) > 0 {
		giant = sorted[0]
	}
	if len(sorted) > 1 {
		second = sorted[1]
	}
	return giant, second
}
