package algorithms

import (
	"math"
	"math/rand/v2"
	"slices"
)

// TieTolerance is the relative difference below which two centrality values
// are considered equal. Brandes sums are accumulated in different orders for
// different nodes, so exact ties on symmetric nodes can differ in the last bits.
const TieTolerance = 1e-9

// nearlyEqual reports whether a and b are equal within TieTolerance.
func nearlyEqual(a, b float64) bool {
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= TieTolerance*scale
}

// ArgMax returns the node holding the largest value. Ties go to the node that
// comes first in nodes; callers pass nodes in ascending original index, so the
// lowest index wins. NaN values are never selected. The boolean is false when
// no node has a usable value.
func ArgMax(nodes []int, values []float64) (int, bool) {
	best := -1
	for i, x := range values[:len(nodes)] {
		if math.IsNaN(x) {
			continue
		}
		if best < 0 || (x > values[best] && !nearlyEqual(x, values[best])) {
			best = i
		}
	}
	if best < 0 {
		return 0, false
	}
	return nodes[best], true
}

// RankDescending orders nodes by value, highest first. Values that are equal
// within TieTolerance of the first value of their run are ordered by ascending
// original index. NaN values sort last.
func RankDescending(nodes []int, values []float64) []int {
	type entry struct {
		oi    int
		value float64
	}
	entries := make([]entry, len(nodes))
	for i, oi := range nodes {
		x := values[i]
		if math.IsNaN(x) {
			x = math.Inf(-1)
		}
		entries[i] = entry{oi, x}
	}

	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case a.value > b.value:
			return -1
		case a.value < b.value:
			return 1
		}
		return a.oi - b.oi
	})

	// Collapse near-ties onto index order
	for start := 0; start < len(entries); {
		end := start + 1
		for end < len(entries) && nearlyEqual(entries[start].value, entries[end].value) {
			end++
		}
		slices.SortFunc(entries[start:end], func(a, b entry) int { return a.oi - b.oi })
		start = end
	}

	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.oi
	}
	return out
}

// RandomPick draws one node uniformly.
func RandomPick(nodes []int, rng *rand.Rand) (int, bool) {
	if len(nodes) == 0 {
		return 0, false
	}
	return nodes[rng.IntN(len(nodes))], true
}
