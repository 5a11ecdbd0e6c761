package algorithms

import (
	"slices"

	"github.com/dd0wney/cluso-percolation/pkg/graph"
)

// Partition is the split of a graph's present nodes into connected components
// at one instant. Components are ordered by size, largest first; equal sizes
// keep discovery order, and discovery starts from the lowest present index.
type Partition struct {
	g          *graph.Graph
	components [][]int
	membership []int32 // component position per slot, -1 when absent
}

// Components partitions the present nodes of g in O(N+E).
func Components(g *graph.Graph) *Partition {
	comps := g.Components()
	slices.SortStableFunc(comps, func(a, b []int) int {
		return len(b) - len(a)
	})

	membership := make([]int32, g.OriginalSize())
	for i := range membership {
		membership[i] = -1
	}
	for id, comp := range comps {
		for _, oi := range comp {
			membership[oi] = int32(id)
		}
	}

	return &Partition{g: g, components: comps, membership: membership}
}

// Count returns the number of components.
func (p *Partition) Count() int {
	return len(p.components)
}

// Sizes returns the component sizes in descending order.
func (p *Partition) Sizes() []int {
	out := make([]int, len(p.components))
	for i, c := range p.components {
		out[i] = len(c)
	}
	return out
}

// Total returns the number of nodes covered, which equals the graph's present
// node count.
func (p *Partition) Total() int {
	total := 0
	for _, c := range p.components {
		total += len(c)
	}
	return total
}

// GiantSize returns the size of the largest component, 0 for an empty graph.
func (p *Partition) GiantSize() int {
	if len(p.components) == 0 {
		return 0
	}
	return len(p.components[0])
}

// SecondSize returns the size of the second largest component, 0 if there is
// only one.
func (p *Partition) SecondSize() int {
	if len(p.components) < 2 {
		return 0
	}
	return len(p.components[1])
}

// Giant returns a view over the largest component.
func (p *Partition) Giant() *graph.View {
	if len(p.components) == 0 {
		return graph.NewView(p.g, nil)
	}
	return graph.NewView(p.g, p.components[0])
}

// Membership returns the position in Sizes of the component holding oi, or -1
// when oi is not present.
func (p *Partition) Membership(oi int) int {
	if oi < 0 || oi >= len(p.membership) {
		return -1
	}
	return int(p.membership[oi])
}

// InGiant reports whether oi belongs to the largest component.
func (p *Partition) InGiant(oi int) bool {
	return len(p.components) > 0 && p.Membership(oi) == 0
}

// Distribution returns the size multiset of the partition.
func (p *Partition) Distribution() SizeDistribution {
	return NewSizeDistribution(p.Sizes())
}

// SizeCount is one entry of a SizeDistribution: Count components of Size nodes.
type SizeCount struct {
	Size  int
	Count int
}

// SizeDistribution is a component-size multiset ordered by size, largest first.
type SizeDistribution []SizeCount

// NewSizeDistribution counts the sizes in one pass. The input need not be
// sorted.
func NewSizeDistribution(sizes []int) SizeDistribution {
	sorted := slices.Clone(sizes)
	slices.SortFunc(sorted, func(a, b int) int { return b - a })

	var dist SizeDistribution
	for _, s := range sorted {
		if n := len(dist); n > 0 && dist[n-1].Size == s {
			dist[n-1].Count++
			continue
		}
		dist = append(dist, SizeCount{Size: s, Count: 1})
	}
	return dist
}

// Expand recovers the descending list of sizes.
func (d SizeDistribution) Expand() []int {
	var out []int
	for _, sc := range d {
		for range sc.Count {
			out = append(out, sc.Size)
		}
	}
	return out
}

// Components returns the number of components described.
func (d SizeDistribution) Components() int {
	n := 0
	for _, sc := range d {
		n += sc.Count
	}
	return n
}
