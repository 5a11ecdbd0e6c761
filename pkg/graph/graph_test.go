package graph

import (
	"errors"
	"slices"
	"testing"
)

// pathGraph builds 0-1-2-...-(n-1)
func pathGraph(t *testing.T, n int) *Graph {
	t.Helper()
	edges := make([][2]int, 0, n-1)
	for i := 0; i+1 < n; i++ {
		edges = append(edges, [2]int{i, i + 1})
	}
	g, err := FromEdges(n, edges)
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}
	return g
}

func TestFromEdges_Simplifies(t *testing.T) {
	g, err := FromEdges(3, [][2]int{{0, 1}, {1, 0}, {1, 1}, {1, 2}, {0, 1}})
	if err != nil {
		t.Fatalf("FromEdges failed: %v", err)
	}

	if g.EdgeCount() != 2 {
		t.Errorf("Expected 2 edges after simplification, got %d", g.EdgeCount())
	}
	if got := g.Neighbors(1); !slices.Equal(got, []int{0, 2}) {
		t.Errorf("Neighbors(1) = %v, want [0 2]", got)
	}
}

func TestFromEdges_OutOfRange(t *testing.T) {
	_, err := FromEdges(2, [][2]int{{0, 2}})
	if !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("Expected ErrMalformedInput, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	g := pathGraph(t, 4)

	if err := g.Remove(1); err != nil {
		t.Fatalf("Remove(1) failed: %v", err)
	}

	if g.Has(1) {
		t.Error("node 1 still present after removal")
	}
	if g.NodeCount() != 3 {
		t.Errorf("NodeCount = %d, want 3", g.NodeCount())
	}
	if g.OriginalSize() != 4 {
		t.Errorf("OriginalSize = %d, want 4", g.OriginalSize())
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
	if d, _ := g.Degree(0); d != 0 {
		t.Errorf("Degree(0) = %d, want 0", d)
	}
	if d, _ := g.Degree(2); d != 1 {
		t.Errorf("Degree(2) = %d, want 1", d)
	}
	if got := g.Nodes(); !slices.Equal(got, []int{0, 2, 3}) {
		t.Errorf("Nodes() = %v, want [0 2 3]", got)
	}
}

func TestRemove_NotFound(t *testing.T) {
	g := pathGraph(t, 3)
	if err := g.Remove(0); err != nil {
		t.Fatalf("Remove(0) failed: %v", err)
	}

	tests := []struct {
		name string
		oi   int
	}{
		{"already removed", 0},
		{"negative", -1},
		{"beyond N0", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Remove(tt.oi)
			if !IsNotFound(err) {
				t.Fatalf("Remove(%d) error = %v, want not found", tt.oi, err)
			}
			var gerr *Error
			if !errors.As(err, &gerr) || gerr.Node != tt.oi {
				t.Errorf("expected *Error naming node %d, got %v", tt.oi, err)
			}
		})
	}

	if _, err := g.Degree(0); !IsNotFound(err) {
		t.Errorf("Degree of removed node: got %v, want not found", err)
	}
}

func TestClone_Independent(t *testing.T) {
	g := pathGraph(t, 3)
	c := g.Clone()

	if err := c.Remove(1); err != nil {
		t.Fatalf("Remove on clone failed: %v", err)
	}

	if !g.Has(1) || g.EdgeCount() != 2 {
		t.Error("removing from the clone mutated the original")
	}
	if got := g.Neighbors(0); !slices.Equal(got, []int{1}) {
		t.Errorf("original Neighbors(0) = %v, want [1]", got)
	}
}

func TestEdges_Ordered(t *testing.T) {
	g, _ := FromEdges(4, [][2]int{{3, 0}, {2, 1}, {1, 0}})
	want := [][2]int{{0, 1}, {0, 3}, {1, 2}}
	if got := g.Edges(); !slices.Equal(got, want) {
		t.Errorf("Edges() = %v, want %v", got, want)
	}
}

func TestComponents_DiscoveryOrder(t *testing.T) {
	// {0,4} {1,2,3} {5}
	g, _ := FromEdges(6, [][2]int{{0, 4}, {1, 2}, {2, 3}})

	comps := g.Components()
	if len(comps) != 3 {
		t.Fatalf("Expected 3 components, got %d", len(comps))
	}
	if !slices.Equal(comps[0], []int{0, 4}) {
		t.Errorf("first component = %v, want [0 4]", comps[0])
	}
	if !slices.Equal(comps[1], []int{1, 2, 3}) {
		t.Errorf("second component = %v, want [1 2 3]", comps[1])
	}
	if g.IsConnected() {
		t.Error("IsConnected() = true for a 3-component graph")
	}
}

func TestGiantComponent_TieKeepsFirst(t *testing.T) {
	// two components of size 2: {0,3} and {1,2}
	g, _ := FromEdges(4, [][2]int{{1, 2}, {0, 3}})

	giant := g.GiantComponent()
	if !slices.Equal(giant.Nodes(), []int{0, 3}) {
		t.Errorf("giant = %v, want [0 3]", giant.Nodes())
	}
	if g.NodeCount() != 4 {
		t.Error("GiantComponent mutated the graph")
	}
}

func TestView_DegreeWithinView(t *testing.T) {
	// triangle 0-1-2 plus pendant 3 on 2
	g, _ := FromEdges(4, [][2]int{{0, 1}, {1, 2}, {0, 2}, {2, 3}})

	v := NewView(g, []int{2, 0, 1, 1})
	if !slices.Equal(v.Nodes(), []int{0, 1, 2}) {
		t.Fatalf("view nodes = %v, want [0 1 2]", v.Nodes())
	}
	if v.Contains(3) {
		t.Error("view contains node 3")
	}
	if d := v.Degree(2); d != 2 {
		t.Errorf("view Degree(2) = %d, want 2", d)
	}
	if d := g.All().Degree(2); d != 3 {
		t.Errorf("full view Degree(2) = %d, want 3", d)
	}
	if d := v.Degree(3); d != 0 {
		t.Errorf("Degree outside view = %d, want 0", d)
	}
}
