package graph

import "slices"

// View is a read-only node subset of a Graph, typically one connected
// component. Paths computed over a view only pass through its nodes.
//
// A view describes the graph at the moment it was taken; it must not be used
// after the underlying graph is mutated.
type View struct {
	g     *Graph
	nodes []int  // ascending
	in    []bool // nil when the view spans every present node
}

// All returns a view over every present node.
func (g *Graph) All() *View {
	return &View{g: g, nodes: g.Nodes()}
}

// NewView builds a view over the given nodes. Absent nodes are ignored and the
// node list is sorted ascending.
func NewView(g *Graph, nodes []int) *View {
	in := make([]bool, len(g.present))
	kept := make([]int, 0, len(nodes))
	for _, oi := range nodes {
		if g.Has(oi) && !in[oi] {
			in[oi] = true
			kept = append(kept, oi)
		}
	}
	slices.Sort(kept)
	return &View{g: g, nodes: kept, in: in}
}

// Graph returns the underlying graph.
func (v *View) Graph() *Graph {
	return v.g
}

// Nodes returns the view's original indices in ascending order. The slice is
// shared; callers must not modify it.
func (v *View) Nodes() []int {
	return v.nodes
}

// Len returns the number of nodes in the view.
func (v *View) Len() int {
	return len(v.nodes)
}

// Contains reports whether oi belongs to the view.
func (v *View) Contains(oi int) bool {
	if v.in == nil {
		return v.g.Has(oi)
	}
	return oi >= 0 && oi < len(v.in) && v.in[oi]
}

// Degree returns the number of neighbours of oi that lie inside the view.
func (v *View) Degree(oi int) int {
	if !v.Contains(oi) {
		return 0
	}
	if v.in == nil {
		return len(v.g.adj[oi])
	}
	d := 0
	for _, w := range v.g.adj[oi] {
		if v.in[w] {
			d++
		}
	}
	return d
}
