package reduce

import "github.com/matzehuels/mmgreduce/pkg/mmg"

// Prune deletes non-projected nodes of degree at most one, along with nodes
// whose only edges are self-loops, until none remain. It returns the number
// of nodes deleted. Histories of the deleted edges are recorded as
// discarded.
//
// Deleting a node can only make its neighbors prunable, so after the initial
// scan only those neighbors are re-examined.
func (e *Engine) Prune() int {
	var queue []mmg.NodeID
	for _, id := range e.g.Nodes() {
		if e.prunable(id) {
			queue = append(queue, id)
		}
	}

	removed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !e.prunable(id) {
			continue
		}
		var touched []mmg.NodeID
		for _, eid := range e.g.Incident(id) {
			if ed, ok := e.g.Edge(eid); ok && !ed.IsLoop() {
				touched = append(touched, ed.Other(id))
			}
			e.discard(eid)
			e.g.RemoveEdge(eid)
		}
		e.g.RemoveNode(id)
		removed++
		for _, n := range touched {
			if e.prunable(n) {
				queue = append(queue, n)
			}
		}
	}
	e.stats.NodesPruned += removed
	return removed
}

// prunable reports whether id is a live non-projected node that is a dead
// end or carries only self-loops.
func (e *Engine) prunable(id mmg.NodeID) bool {
	if !e.g.HasNode(id) || e.isProjected(id) {
		return false
	}
	return e.g.Degree(id) <= 1 || !e.g.HasNeighbor(id)
}
