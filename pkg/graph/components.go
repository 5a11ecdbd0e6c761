package graph

// Components returns the connected components of the present nodes.
// Traversal starts from every unvisited node in ascending original index, so
// components come out in discovery order and each component lists its nodes in
// BFS order from its lowest-indexed member.
func (g *Graph) Components() [][]int {
	visited := make([]bool, len(g.present))
	components := make([][]int, 0)
	queue := make([]int, 0, g.alive)

	for start, ok := range g.present {
		if !ok || visited[start] {
			continue
		}

		// New component found
		queue = append(queue[:0], start)
		visited[start] = true
		for head := 0; head < len(queue); head++ {
			v := queue[head]
			for _, w := range g.adj[v] {
				if !visited[w] {
					visited[w] = true
					queue = append(queue, int(w))
				}
			}
		}

		component := make([]int, len(queue))
		copy(component, queue)
		components = append(components, component)
	}

	return components
}

// IsConnected reports whether the present nodes form a single component.
// An empty graph is not connected.
func (g *Graph) IsConnected() bool {
	return len(g.Components()) == 1
}

// GiantComponent returns a view over the largest connected component.
// Among equally large components the first discovered wins, i.e. the one
// holding the lowest original index. The graph is not modified.
func (g *Graph) GiantComponent() *View {
	return NewView(g, Largest(g.Components()))
}

// Largest picks the biggest component, keeping the first among ties.
func Largest(components [][]int) []int {
	var best []int
	for _, c := range components {
		if len(c) > len(best) {
			best = c
		}
	}
	return best
}
