package paths

import (
	"errors"
	"fmt"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
)

var (
	// ErrNodeNotFound is returned by [Finder.Paths] when the start or end
	// node is not live in the graph.
	ErrNodeNotFound = errors.New("paths: node not found")

	// ErrPathLimit is returned by [Finder.Paths] when more paths exist than
	// the limit set with [WithLimit].
	ErrPathLimit = errors.New("paths: path limit exceeded")
)

// Path is a simple path. Nodes[i] and Nodes[i+1] are joined by Edges[i], so
// len(Edges) == len(Nodes)-1.
type Path struct {
	Nodes []mmg.NodeID
	Edges []mmg.EdgeID
}

// Start returns the first node of the path.
func (p Path) Start() mmg.NodeID { return p.Nodes[0] }

// End returns the last node of the path.
func (p Path) End() mmg.NodeID { return p.Nodes[len(p.Nodes)-1] }

// Interior returns the nodes strictly between start and end.
func (p Path) Interior() []mmg.NodeID {
	if len(p.Nodes) <= 2 {
		return nil
	}
	return p.Nodes[1 : len(p.Nodes)-1]
}

// Sequence returns the alternating node, edge, node, ..., edge, node
// sequence of the path.
func (p Path) Sequence() []fmt.Stringer {
	out := make([]fmt.Stringer, 0, len(p.Nodes)+len(p.Edges))
	for i, n := range p.Nodes {
		out = append(out, n)
		if i < len(p.Edges) {
			out = append(out, p.Edges[i])
		}
	}
	return out
}

// Option configures a [Finder].
type Option func(*Finder)

// WithLimit caps the number of paths a single [Finder.Paths] call may
// return. Zero or a negative value means no limit.
func WithLimit(n int) Option {
	return func(f *Finder) { f.limit = n }
}

// Finder enumerates simple paths whose interior nodes satisfy a predicate.
// A Finder is reused across many (start, end) pairs with [Finder.Reset].
// It is not safe for concurrent use.
type Finder struct {
	g     *mmg.Graph
	pass  func(mmg.NodeID) bool
	limit int

	start, end mmg.NodeID
	visited    map[mmg.NodeID]bool
	current    []mmg.NodeID
	found      [][]mmg.NodeID
}

// New creates a Finder over g. passThrough decides which nodes a path may
// cross; a nil predicate lets every node through.
func New(g *mmg.Graph, passThrough func(mmg.NodeID) bool, opts ...Option) *Finder {
	if passThrough == nil {
		passThrough = func(mmg.NodeID) bool { return true }
	}
	f := &Finder{g: g, pass: passThrough}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Reset points the finder at a new (start, end) pair and clears all state
// left from a previous search.
func (f *Finder) Reset(start, end mmg.NodeID) {
	f.start = start
	f.end = end
	f.visited = make(map[mmg.NodeID]bool)
	f.current = f.current[:0]
	f.found = nil
}

// SetPassThrough replaces the predicate used by subsequent searches.
func (f *Finder) SetPassThrough(passThrough func(mmg.NodeID) bool) {
	if passThrough == nil {
		passThrough = func(mmg.NodeID) bool { return true }
	}
	f.pass = passThrough
}

// Paths enumerates the simple paths from start to end set by the last
// [Finder.Reset]. A start equal to end yields no paths.
//
// Paths are returned in discovery order. Calling Paths twice without a Reset
// repeats the search on the graph's current state.
func (f *Finder) Paths() ([]Path, error) {
	if !f.g.HasNode(f.start) {
		return nil, fmt.Errorf("%w: start %s", ErrNodeNotFound, f.start)
	}
	if !f.g.HasNode(f.end) {
		return nil, fmt.Errorf("%w: end %s", ErrNodeNotFound, f.end)
	}
	f.Reset(f.start, f.end)
	if f.start == f.end {
		return nil, nil
	}

	if err := f.walk(f.start); err != nil {
		return nil, err
	}

	out := make([]Path, len(f.found))
	for i, nodes := range f.found {
		out[i] = f.fillEdges(nodes)
	}
	return out, nil
}

func (f *Finder) walk(u mmg.NodeID) error {
	f.visited[u] = true
	f.current = append(f.current, u)
	defer func() {
		f.current = f.current[:len(f.current)-1]
		f.visited[u] = false
	}()

	if u == f.end {
		f.found = append(f.found, append([]mmg.NodeID(nil), f.current...))
		if f.limit > 0 && len(f.found) > f.limit {
			return fmt.Errorf("%w: more than %d paths from %s to %s", ErrPathLimit, f.limit, f.start, f.end)
		}
		return nil
	}

	for _, w := range f.g.Neighbors(u) {
		if f.visited[w] {
			continue
		}
		if w == f.end || f.pass(w) {
			if err := f.walk(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// fillEdges picks, for each hop, the lowest-handle edge joining the pair.
func (f *Finder) fillEdges(nodes []mmg.NodeID) Path {
	p := Path{Nodes: nodes, Edges: make([]mmg.EdgeID, 0, len(nodes)-1)}
	for i := 0; i+1 < len(nodes); i++ {
		p.Edges = append(p.Edges, f.g.EdgesBetween(nodes[i], nodes[i+1])[0])
	}
	return p
}
