package reduce

import (
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

type endpoints struct{ a, b mmg.NodeID }

func pairOf(u, v mmg.NodeID) endpoints {
	if v.Less(u) {
		u, v = v, u
	}
	return endpoints{u, v}
}

// MergeParallel replaces every class of edges sharing the same unordered
// endpoint pair by a single edge and returns the number of classes merged.
// Classes are taken from a snapshot of the graph and their members are
// folded in ascending handle order.
func (e *Engine) MergeParallel() int {
	classes := make(map[endpoints][]mmg.EdgeID)
	var order []endpoints
	for _, id := range e.g.Edges() {
		ed, _ := e.g.Edge(id)
		k := pairOf(ed.From, ed.To)
		if _, seen := classes[k]; !seen {
			order = append(order, k)
		}
		classes[k] = append(classes[k], id)
	}

	merged := 0
	for _, k := range order {
		if ids := classes[k]; len(ids) > 1 {
			e.mergeEdges(ids)
			merged++
		}
	}
	e.stats.ClassesMerged += merged
	return merged
}

// mergeBetween merges the edges joining u and v, if there is more than one.
func (e *Engine) mergeBetween(u, v mmg.NodeID) bool {
	ids := e.g.EdgesBetween(u, v)
	if len(ids) < 2 {
		return false
	}
	e.mergeEdges(ids)
	e.stats.ClassesMerged++
	return true
}

// mergeEdges replaces ids, which must share endpoints, by one merged edge.
func (e *Engine) mergeEdges(ids []mmg.EdgeID) mmg.EdgeID {
	var (
		weights  = make([]float64, 0, len(ids))
		children = make([]ring.Expr, 0, len(ids))
		history  []string
	)
	first, _ := e.g.Edge(ids[0])
	for _, id := range ids {
		ed, _ := e.g.Edge(id)
		weights = append(weights, ed.Weight)
		children = append(children, ed.Compute)
		history = append(history, ed.History...)
	}
	for _, id := range ids {
		e.g.RemoveEdge(id)
	}
	id, err := e.g.AddEdge(mmg.Edge{
		From:    first.From,
		To:      first.To,
		Weight:  e.ring.Merge(weights),
		History: history,
		Compute: ring.Merge(children...),
	})
	if err != nil {
		// Endpoints are live and history is non-empty.
		panic(err)
	}
	return id
}
