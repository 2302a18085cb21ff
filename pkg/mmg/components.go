package mmg

// Components labels every live node with the index of its connected
// component, treating edges as undirected. Component indices are dense,
// start at 0 and follow the ascending order of each component's lowest node
// handle. It also returns the number of components.
func (g *Graph) Components() (map[NodeID]int, int) {
	comp := make(map[NodeID]int, g.nodeCount)
	next := 0
	for _, start := range g.Nodes() {
		if _, seen := comp[start]; seen {
			continue
		}
		comp[start] = next
		stack := []NodeID{start}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for _, e := range g.nodes[n.Index].incident {
				o := g.edges[e.Index].edge.Other(n)
				if _, seen := comp[o]; !seen {
					comp[o] = next
					stack = append(stack, o)
				}
			}
		}
		next++
	}
	return comp, next
}
