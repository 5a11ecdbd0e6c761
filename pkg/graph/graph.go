// Package graph implements the mutable undirected graph that an attack run
// consumes. Nodes are addressed by their original index, assigned once at load
// time; removing a node tombstones its slot and never renumbers the others.
package graph

import (
	"fmt"
	"slices"
)

// Graph is an undirected simple graph stored as an arena of slots.
// Slot i always holds the node whose original index is i.
//
// A Graph is not safe for concurrent mutation; one attack run owns it.
type Graph struct {
	adj     [][]int32 // sorted neighbour lists, nil for removed slots
	present []bool
	alive   int
	edges   int
}

// New creates a graph with n isolated nodes labelled 0..n-1.
func New(n int) *Graph {
	if n < 0 {
		n = 0
	}
	g := &Graph{
		adj:     make([][]int32, n),
		present: make([]bool, n),
		alive:   n,
	}
	for i := range g.present {
		g.present[i] = true
	}
	return g
}

// FromEdges builds a graph on exactly n nodes. Self loops are dropped and
// parallel edges merged; endpoints outside 0..n-1 are rejected.
func FromEdges(n int, edges [][2]int) (*Graph, error) {
	g := New(n)
	for i, e := range edges {
		u, v := e[0], e[1]
		if u < 0 || u >= n || v < 0 || v >= n {
			return nil, NewError("build").
				Context(fmt.Sprintf("edge %d (%d,%d) outside 0..%d", i, u, v, n-1)).
				Cause(ErrMalformedInput).Err()
		}
		g.addEdge(u, v)
	}
	return g, nil
}

// addEdge links u and v, reporting whether a new edge was created.
func (g *Graph) addEdge(u, v int) bool {
	if u == v {
		return false
	}
	pos, found := slices.BinarySearch(g.adj[u], int32(v))
	if found {
		return false
	}
	g.adj[u] = slices.Insert(g.adj[u], pos, int32(v))
	pos, _ = slices.BinarySearch(g.adj[v], int32(u))
	g.adj[v] = slices.Insert(g.adj[v], pos, int32(u))
	g.edges++
	return true
}

// OriginalSize returns N0, the number of nodes the graph was built with.
func (g *Graph) OriginalSize() int {
	return len(g.present)
}

// NodeCount returns the number of nodes still present.
func (g *Graph) NodeCount() int {
	return g.alive
}

// EdgeCount returns the number of edges between present nodes.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Has reports whether the node with original index oi is present.
func (g *Graph) Has(oi int) bool {
	return oi >= 0 && oi < len(g.present) && g.present[oi]
}

// Degree returns the current degree of node oi.
func (g *Graph) Degree(oi int) (int, error) {
	if !g.Has(oi) {
		return 0, NodeNotFoundError("degree", oi)
	}
	return len(g.adj[oi]), nil
}

// Neighbors returns the present neighbours of oi in ascending order.
// Absent nodes have no neighbours.
func (g *Graph) Neighbors(oi int) []int {
	if !g.Has(oi) {
		return nil
	}
	out := make([]int, len(g.adj[oi]))
	for i, w := range g.adj[oi] {
		out[i] = int(w)
	}
	return out
}

// Adjacent returns the internal neighbour slice of oi. Callers must not
// modify it, and it is invalidated by the next Remove.
func (g *Graph) Adjacent(oi int) []int32 {
	if !g.Has(oi) {
		return nil
	}
	return g.adj[oi]
}

// Nodes returns the original indices of all present nodes, ascending.
func (g *Graph) Nodes() []int {
	out := make([]int, 0, g.alive)
	for i, ok := range g.present {
		if ok {
			out = append(out, i)
		}
	}
	return out
}

// Remove deletes node oi together with its incident edges.
// Removing an absent node is an error: it indicates the caller lost track of
// which nodes are left.
func (g *Graph) Remove(oi int) error {
	if !g.Has(oi) {
		return NodeNotFoundError("remove", oi)
	}
	for _, w := range g.adj[oi] {
		nbrs := g.adj[w]
		if pos, found := slices.BinarySearch(nbrs, int32(oi)); found {
			g.adj[w] = slices.Delete(nbrs, pos, pos+1)
		}
	}
	g.edges -= len(g.adj[oi])
	g.adj[oi] = nil
	g.present[oi] = false
	g.alive--
	return nil
}

// Clone returns an independent deep copy.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		adj:     make([][]int32, len(g.adj)),
		present: slices.Clone(g.present),
		alive:   g.alive,
		edges:   g.edges,
	}
	for i, nbrs := range g.adj {
		if nbrs != nil {
			c.adj[i] = slices.Clone(nbrs)
		}
	}
	return c
}

// Edges returns every edge once as (u, v) with u < v, ordered by u then v.
func (g *Graph) Edges() [][2]int {
	out := make([][2]int, 0, g.edges)
	for u, nbrs := range g.adj {
		for _, w := range nbrs {
			if int(w) > u {
				out = append(out, [2]int{u, int(w)})
			}
		}
	}
	return out
}
