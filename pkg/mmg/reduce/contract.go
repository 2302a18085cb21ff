package reduce

import (
	"slices"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// ContractDegree2 repeatedly picks the lowest-handle non-projected node with
// exactly two incident edges leading to two distinct neighbors, replaces
// those edges by one contracted edge between the neighbors and deletes the
// node. When the new edge is parallel to an existing one, the pair is merged
// immediately. It returns the number of nodes contracted.
func (e *Engine) ContractDegree2() int {
	var queue []mmg.NodeID
	for _, id := range e.g.Nodes() {
		if e.relays(id) {
			queue = append(queue, id)
		}
	}

	contracted := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if !e.relays(id) {
			continue
		}
		u, v := e.contractNode(id)
		contracted++
		e.mergeBetween(u, v)
		// Only the two neighbors can have changed degree.
		for _, n := range []mmg.NodeID{u, v} {
			if !e.relays(n) {
				continue
			}
			i, found := slices.BinarySearchFunc(queue, n, mmg.CompareNodes)
			if !found {
				queue = slices.Insert(queue, i, n)
			}
		}
	}
	e.stats.NodesContracted += contracted
	return contracted
}

// relays reports whether id is a non-projected node of degree two whose
// edges lead to two distinct neighbors.
func (e *Engine) relays(id mmg.NodeID) bool {
	if !e.g.HasNode(id) || e.isProjected(id) {
		return false
	}
	return e.g.Degree(id) == 2 && len(e.g.Neighbors(id)) == 2
}

// contractNode splices id out of the graph and returns the two former
// neighbors, which the new edge joins.
func (e *Engine) contractNode(id mmg.NodeID) (mmg.NodeID, mmg.NodeID) {
	inc := e.g.Incident(id)
	first, _ := e.g.Edge(inc[0])
	second, _ := e.g.Edge(inc[1])
	u, v := first.Other(id), second.Other(id)

	history := make([]string, 0, len(first.History)+len(second.History))
	history = append(history, first.History...)
	history = append(history, second.History...)
	ne := mmg.Edge{
		From:    u,
		To:      v,
		Weight:  e.ring.Contract([]float64{first.Weight, second.Weight}),
		History: history,
		Compute: ring.Contract(first.Compute, second.Compute),
	}

	e.g.RemoveEdge(inc[0])
	e.g.RemoveEdge(inc[1])
	e.g.RemoveNode(id)
	if _, err := e.g.AddEdge(ne); err != nil {
		panic(err)
	}
	return u, v
}
