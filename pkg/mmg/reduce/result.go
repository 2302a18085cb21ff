package reduce

import (
	"slices"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// Result is the outcome of [Engine.Run].
type Result struct {
	// Original is a copy of the input graph.
	Original *mmg.Graph

	// Reduced is the rewritten graph. Besides the projected nodes it may
	// keep non-projected nodes that sit on cycles no phase could resolve.
	Reduced *mmg.Graph

	// Ring folded the weights and evaluates the compute expressions.
	Ring ring.Ring

	// ProjectedType is the node type of the social network.
	ProjectedType string

	// Stats holds the counters and phase timings of the run.
	Stats Stats

	// Discarded lists, sorted, the original edge keys whose edges were
	// deleted without contributing to any reduced edge.
	Discarded []string
}

func (e *Engine) result() *Result {
	discarded := slices.Clone(e.discarded)
	slices.Sort(discarded)
	return &Result{
		Original:      e.original,
		Reduced:       e.g.Clone(),
		Ring:          e.ring,
		ProjectedType: e.opts.ProjectedType,
		Stats:         e.stats,
		Discarded:     discarded,
	}
}

// Social returns the reduced graph restricted to projected nodes.
func (r *Result) Social() *mmg.Graph {
	return r.Reduced.Filter(func(n mmg.Node) bool { return n.Type == r.ProjectedType })
}

// Coverage returns, sorted, the original edge keys that appear neither in the
// history of a reduced edge nor in Discarded. A complete reduction returns
// nothing.
func (r *Result) Coverage() []string {
	seen := make(map[string]bool)
	for _, id := range r.Reduced.Edges() {
		ed, _ := r.Reduced.Edge(id)
		for _, key := range ed.History {
			seen[key] = true
		}
	}
	for _, key := range r.Discarded {
		seen[key] = true
	}

	var missing []string
	for key := range r.Original.AtomicWeights() {
		if !seen[key] {
			missing = append(missing, key)
		}
	}
	slices.Sort(missing)
	return missing
}

// Edges returns the reduced edges in ascending handle order.
func (r *Result) Edges() []mmg.Edge {
	ids := r.Reduced.Edges()
	out := make([]mmg.Edge, len(ids))
	for i, id := range ids {
		out[i], _ = r.Reduced.Edge(id)
	}
	return out
}
