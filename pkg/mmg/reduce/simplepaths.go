package reduce

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/paths"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// candidate is an enumerated path with its contracted weight.
type candidate struct {
	path   paths.Path
	weight float64
}

// ContractSimplePaths replaces chains of non-projected nodes between pairs of
// projected nodes by direct edges.
//
// For every pair of projected nodes in the same connected component, in
// ascending handle order, all simple paths whose interior avoids projected
// nodes are enumerated and ranked by contracted weight. The best path is
// selected, candidates sharing an interior node or an edge with it are
// dropped, and selection repeats. Each selected path becomes one edge between
// the pair. New edges are added only after every pair has been processed,
// then every edge of every enumerated path is deleted.
//
// The graph is left untouched when the context is cancelled or a pair
// exceeds Options.PathLimit.
func (e *Engine) ContractSimplePaths(ctx context.Context) error {
	comp, n := e.g.Components()
	groups := make([][]mmg.NodeID, n)
	for _, id := range e.g.NodesOfType(e.opts.ProjectedType) {
		groups[comp[id]] = append(groups[comp[id]], id)
	}

	finder := paths.New(e.g, func(id mmg.NodeID) bool { return !e.isProjected(id) },
		paths.WithLimit(e.opts.PathLimit))

	var (
		created    []mmg.Edge
		enumerated = make(map[mmg.EdgeID]bool)
		absorbed   = make(map[mmg.EdgeID]bool)
	)
	for _, group := range groups {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				finder.Reset(group[i], group[j])
				ps, err := finder.Paths()
				if err != nil {
					return fmt.Errorf("pair %s-%s: %w", group[i], group[j], err)
				}
				e.stats.PairsProcessed++
				e.stats.PathsEnumerated += len(ps)

				for _, p := range ps {
					for _, id := range p.Edges {
						enumerated[id] = true
					}
				}
				for _, c := range e.selectPaths(ps) {
					for _, id := range c.path.Edges {
						absorbed[id] = true
					}
					created = append(created, e.pathEdge(c))
				}
			}
		}
	}
	e.stats.PathsSelected += len(created)

	for _, ne := range created {
		if _, err := e.g.AddEdge(ne); err != nil {
			return err
		}
	}
	ids := make([]mmg.EdgeID, 0, len(enumerated))
	for id := range enumerated {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, mmg.CompareEdges)
	for _, id := range ids {
		if !absorbed[id] {
			e.discard(id)
		}
		e.g.RemoveEdge(id)
	}
	return nil
}

// selectPaths ranks ps by descending contracted weight, ties keeping
// discovery order, and greedily keeps paths disjoint from every path kept
// before them.
func (e *Engine) selectPaths(ps []paths.Path) []candidate {
	cands := make([]candidate, len(ps))
	for i, p := range ps {
		cands[i] = candidate{path: p, weight: e.ring.Contract(e.weights(p))}
	}
	slices.SortStableFunc(cands, func(a, b candidate) int { return cmp.Compare(b.weight, a.weight) })

	var (
		kept      []candidate
		usedNodes = make(map[mmg.NodeID]bool)
		usedEdges = make(map[mmg.EdgeID]bool)
	)
	for _, c := range cands {
		if conflicts(c.path, usedNodes, usedEdges) {
			continue
		}
		kept = append(kept, c)
		for _, id := range c.path.Interior() {
			usedNodes[id] = true
		}
		for _, id := range c.path.Edges {
			usedEdges[id] = true
		}
	}
	return kept
}

func conflicts(p paths.Path, nodes map[mmg.NodeID]bool, edges map[mmg.EdgeID]bool) bool {
	for _, id := range p.Interior() {
		if nodes[id] {
			return true
		}
	}
	for _, id := range p.Edges {
		if edges[id] {
			return true
		}
	}
	return false
}

func (e *Engine) weights(p paths.Path) []float64 {
	ws := make([]float64, len(p.Edges))
	for i, id := range p.Edges {
		ed, _ := e.g.Edge(id)
		ws[i] = ed.Weight
	}
	return ws
}

// pathEdge builds the edge that replaces a selected path.
func (e *Engine) pathEdge(c candidate) mmg.Edge {
	var (
		history  []string
		children = make([]ring.Expr, 0, len(c.path.Edges))
	)
	for _, id := range c.path.Edges {
		ed, _ := e.g.Edge(id)
		history = append(history, ed.History...)
		children = append(children, ed.Compute)
	}
	return mmg.Edge{
		From:    c.path.Start(),
		To:      c.path.End(),
		Weight:  c.weight,
		History: history,
		Compute: ring.Contract(children...),
	}
}
