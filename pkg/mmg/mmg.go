package mmg

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/mmgreduce/pkg/ring"
)

var (
	// ErrInvalidNodeKey is returned by [Graph.AddNode] when the node key is empty.
	ErrInvalidNodeKey = errors.New("node key must not be empty")

	// ErrDuplicateNodeKey is returned by [Graph.AddNode] when a live node
	// already uses the key.
	ErrDuplicateNodeKey = errors.New("duplicate node key")

	// ErrDuplicateEdgeKey is returned by [Graph.AddEdge] when a live edge
	// already uses the key.
	ErrDuplicateEdgeKey = errors.New("duplicate edge key")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when From is not a
	// live node.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when To is not a
	// live node.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrEmptyHistory is returned by [Graph.AddEdge] for an edge that has
	// neither a key nor a history, and so cannot be traced to original data.
	ErrEmptyHistory = errors.New("edge has no history")

	// ErrInconsistent is returned by [Graph.Validate] when the incidence index
	// disagrees with the edge table.
	ErrInconsistent = errors.New("inconsistent graph")
)

// Metadata stores arbitrary key-value pairs attached to nodes, edges or the
// graph. Metadata maps are never nil once stored in a graph.
type Metadata map[string]any

// NodeID is a handle to a node slot. The zero value never refers to a node.
type NodeID struct {
	Index uint32
	Gen   uint32
}

// EdgeID is a handle to an edge slot. The zero value never refers to an edge.
type EdgeID struct {
	Index uint32
	Gen   uint32
}

// Less orders handles by slot index, then generation.
func (id NodeID) Less(o NodeID) bool { return less(id.Index, id.Gen, o.Index, o.Gen) }

// IsZero reports whether id is the zero handle.
func (id NodeID) IsZero() bool { return id.Gen == 0 }

func (id NodeID) String() string { return fmt.Sprintf("n%d.%d", id.Index, id.Gen) }

// Less orders handles by slot index, then generation.
func (id EdgeID) Less(o EdgeID) bool { return less(id.Index, id.Gen, o.Index, o.Gen) }

// IsZero reports whether id is the zero handle.
func (id EdgeID) IsZero() bool { return id.Gen == 0 }

func (id EdgeID) String() string { return fmt.Sprintf("e%d.%d", id.Index, id.Gen) }

func less(ai, ag, bi, bg uint32) bool {
	if ai != bi {
		return ai < bi
	}
	return ag < bg
}

// CompareNodes is a comparison function for [slices.SortFunc].
func CompareNodes(a, b NodeID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// CompareEdges is a comparison function for [slices.SortFunc].
func CompareEdges(a, b EdgeID) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	}
	return 0
}

// Node is an entity of the investigation graph.
type Node struct {
	ID    NodeID   // Assigned by AddNode
	Key   string   // Unique input identifier
	Type  string   // Entity type, e.g. PERSON or PHONE
	Label string   // Display label
	Icon  string   // Icon name carried through from input data
	Meta  Metadata // Arbitrary metadata (never nil after AddNode)
}

// Edge is a typed, weighted, undirected link between two nodes.
type Edge struct {
	ID      EdgeID    // Assigned by AddEdge
	Key     string    // Input identifier; empty for derived edges
	Type    string    // Relation type of an original edge; empty for derived edges
	From    NodeID    // Declared source
	To      NodeID    // Declared target
	Weight  float64   // Current weight
	History []string  // Keys of the original edges this edge summarizes
	Compute ring.Expr // How Weight was folded from original weights
	Meta    Metadata  // Arbitrary metadata (never nil after AddEdge)
}

// IsLoop reports whether both endpoints are the same node.
func (e Edge) IsLoop() bool { return e.From == e.To }

// Other returns the endpoint of e opposite to n. For a self-loop it returns n.
func (e Edge) Other(n NodeID) NodeID {
	if e.From == n {
		return e.To
	}
	return e.From
}

// IsOriginal reports whether e is an input edge rather than a derived one.
func (e Edge) IsOriginal() bool { return e.Key != "" && e.Compute.IsAtomic() && e.Compute.ID == e.Key }

type nodeSlot struct {
	node     Node
	gen      uint32
	live     bool
	incident []EdgeID // each incident edge once, self-loops included
}

type edgeSlot struct {
	edge Edge
	gen  uint32
	live bool
}

// Graph is a mutable multigraph addressed by arena handles.
//
// The zero value is not usable; create graphs with [New].
type Graph struct {
	nodes     []nodeSlot
	edges     []edgeSlot
	freeNodes []uint32
	freeEdges []uint32
	nodeCount int
	edgeCount int
	nodeKeys  map[string]NodeID
	edgeKeys  map[string]EdgeID
	meta      Metadata
}

// New creates an empty graph with optional graph-level metadata.
func New(meta Metadata) *Graph {
	if meta == nil {
		meta = Metadata{}
	}
	return &Graph{
		nodeKeys: make(map[string]NodeID),
		edgeKeys: make(map[string]EdgeID),
		meta:     meta,
	}
}

// Meta returns the graph-level metadata map.
func (g *Graph) Meta() Metadata { return g.meta }

// AddNode adds n and returns its handle. The ID field of n is ignored.
// Returns ErrInvalidNodeKey for an empty key and ErrDuplicateNodeKey when
// another live node uses the same key.
func (g *Graph) AddNode(n Node) (NodeID, error) {
	if n.Key == "" {
		return NodeID{}, ErrInvalidNodeKey
	}
	if _, exists := g.nodeKeys[n.Key]; exists {
		return NodeID{}, fmt.Errorf("%w: %q", ErrDuplicateNodeKey, n.Key)
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}

	var idx uint32
	if k := len(g.freeNodes); k > 0 {
		idx = g.freeNodes[k-1]
		g.freeNodes = g.freeNodes[:k-1]
	} else {
		idx = uint32(len(g.nodes))
		g.nodes = append(g.nodes, nodeSlot{})
	}
	slot := &g.nodes[idx]
	slot.gen++
	slot.live = true
	slot.incident = nil
	n.ID = NodeID{Index: idx, Gen: slot.gen}
	slot.node = n

	g.nodeKeys[n.Key] = n.ID
	g.nodeCount++
	return n.ID, nil
}

// AddEdge adds e and returns its handle. The ID field of e is ignored.
//
// An edge with a Key and no History is an original edge: its history becomes
// [Key] and its compute expression the atomic leaf Key. An edge with neither
// is rejected with ErrEmptyHistory. From and To must be live nodes.
func (g *Graph) AddEdge(e Edge) (EdgeID, error) {
	if !g.HasNode(e.From) {
		return EdgeID{}, ErrUnknownSourceNode
	}
	if !g.HasNode(e.To) {
		return EdgeID{}, ErrUnknownTargetNode
	}
	if len(e.History) == 0 {
		if e.Key == "" {
			return EdgeID{}, ErrEmptyHistory
		}
		e.History = []string{e.Key}
		e.Compute = ring.Atomic(e.Key)
	}
	if e.Key != "" {
		if _, exists := g.edgeKeys[e.Key]; exists {
			return EdgeID{}, fmt.Errorf("%w: %q", ErrDuplicateEdgeKey, e.Key)
		}
	}
	if e.Meta == nil {
		e.Meta = Metadata{}
	}

	var idx uint32
	if k := len(g.freeEdges); k > 0 {
		idx = g.freeEdges[k-1]
		g.freeEdges = g.freeEdges[:k-1]
	} else {
		idx = uint32(len(g.edges))
		g.edges = append(g.edges, edgeSlot{})
	}
	slot := &g.edges[idx]
	slot.gen++
	slot.live = true
	e.ID = EdgeID{Index: idx, Gen: slot.gen}
	slot.edge = e

	g.nodes[e.From.Index].incident = append(g.nodes[e.From.Index].incident, e.ID)
	if !e.IsLoop() {
		g.nodes[e.To.Index].incident = append(g.nodes[e.To.Index].incident, e.ID)
	}
	if e.Key != "" {
		g.edgeKeys[e.Key] = e.ID
	}
	g.edgeCount++
	return e.ID, nil
}

// RemoveEdge deletes the edge. Removing an absent or stale handle is a no-op.
func (g *Graph) RemoveEdge(id EdgeID) {
	if !g.HasEdge(id) {
		return
	}
	slot := &g.edges[id.Index]
	e := slot.edge
	g.dropIncident(e.From, id)
	if !e.IsLoop() {
		g.dropIncident(e.To, id)
	}
	if e.Key != "" {
		delete(g.edgeKeys, e.Key)
	}
	slot.live = false
	slot.edge = Edge{}
	g.freeEdges = append(g.freeEdges, id.Index)
	g.edgeCount--
}

func (g *Graph) dropIncident(n NodeID, id EdgeID) {
	slot := &g.nodes[n.Index]
	slot.incident = slices.DeleteFunc(slot.incident, func(x EdgeID) bool { return x == id })
}

// RemoveNode deletes the node and every edge incident to it. Removing an
// absent or stale handle is a no-op.
func (g *Graph) RemoveNode(id NodeID) {
	if !g.HasNode(id) {
		return
	}
	for _, e := range g.Incident(id) {
		g.RemoveEdge(e)
	}
	slot := &g.nodes[id.Index]
	delete(g.nodeKeys, slot.node.Key)
	slot.live = false
	slot.node = Node{}
	slot.incident = nil
	g.freeNodes = append(g.freeNodes, id.Index)
	g.nodeCount--
}

// HasNode reports whether id refers to a live node.
func (g *Graph) HasNode(id NodeID) bool {
	return id.Gen != 0 && int(id.Index) < len(g.nodes) &&
		g.nodes[id.Index].live && g.nodes[id.Index].gen == id.Gen
}

// HasEdge reports whether id refers to a live edge.
func (g *Graph) HasEdge(id EdgeID) bool {
	return id.Gen != 0 && int(id.Index) < len(g.edges) &&
		g.edges[id.Index].live && g.edges[id.Index].gen == id.Gen
}

// Node returns a copy of the node and true, or the zero Node and false.
// The Meta map is shared with the graph.
func (g *Graph) Node(id NodeID) (Node, bool) {
	if !g.HasNode(id) {
		return Node{}, false
	}
	return g.nodes[id.Index].node, true
}

// Edge returns a copy of the edge and true, or the zero Edge and false.
// The History slice and Meta map are shared with the graph and must not be
// modified.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	if !g.HasEdge(id) {
		return Edge{}, false
	}
	return g.edges[id.Index].edge, true
}

// NodeByKey looks a live node up by its input key.
func (g *Graph) NodeByKey(key string) (NodeID, bool) {
	id, ok := g.nodeKeys[key]
	return id, ok
}

// EdgeByKey looks a live edge up by its input key.
func (g *Graph) EdgeByKey(key string) (EdgeID, bool) {
	id, ok := g.edgeKeys[key]
	return id, ok
}

// SetWeight updates the weight of a live edge and reports whether it exists.
func (g *Graph) SetWeight(id EdgeID, w float64) bool {
	if !g.HasEdge(id) {
		return false
	}
	g.edges[id.Index].edge.Weight = w
	return true
}

// NodeCount returns the number of live nodes.
func (g *Graph) NodeCount() int { return g.nodeCount }

// EdgeCount returns the number of live edges.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Nodes returns the handles of all live nodes in ascending order.
func (g *Graph) Nodes() []NodeID {
	out := make([]NodeID, 0, g.nodeCount)
	for i := range g.nodes {
		if g.nodes[i].live {
			out = append(out, g.nodes[i].node.ID)
		}
	}
	return out
}

// Edges returns the handles of all live edges in ascending order.
func (g *Graph) Edges() []EdgeID {
	out := make([]EdgeID, 0, g.edgeCount)
	for i := range g.edges {
		if g.edges[i].live {
			out = append(out, g.edges[i].edge.ID)
		}
	}
	return out
}

// NodesOfType returns the live nodes whose Type equals typ, ascending.
func (g *Graph) NodesOfType(typ string) []NodeID {
	var out []NodeID
	for i := range g.nodes {
		if g.nodes[i].live && g.nodes[i].node.Type == typ {
			out = append(out, g.nodes[i].node.ID)
		}
	}
	return out
}

// Incident returns the edges touching the node in ascending order. A
// self-loop appears once. Returns nil for an absent node.
func (g *Graph) Incident(id NodeID) []EdgeID {
	if !g.HasNode(id) {
		return nil
	}
	out := slices.Clone(g.nodes[id.Index].incident)
	slices.SortFunc(out, CompareEdges)
	return out
}

// Degree returns the undirected degree of the node: the number of incident
// edge ends, so a self-loop counts twice. Returns 0 for an absent node.
func (g *Graph) Degree(id NodeID) int {
	if !g.HasNode(id) {
		return 0
	}
	d := 0
	for _, e := range g.nodes[id.Index].incident {
		d++
		if g.edges[e.Index].edge.IsLoop() {
			d++
		}
	}
	return d
}

// Neighbors returns the distinct nodes adjacent to id, excluding id itself,
// in ascending order.
func (g *Graph) Neighbors(id NodeID) []NodeID {
	if !g.HasNode(id) {
		return nil
	}
	seen := make(map[NodeID]bool)
	var out []NodeID
	for _, e := range g.nodes[id.Index].incident {
		o := g.edges[e.Index].edge.Other(id)
		if o == id || seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	slices.SortFunc(out, CompareNodes)
	return out
}

// HasNeighbor reports whether id is joined to some other node, that is,
// whether it has an incident edge that is not a self-loop.
func (g *Graph) HasNeighbor(id NodeID) bool {
	if !g.HasNode(id) {
		return false
	}
	for _, e := range g.nodes[id.Index].incident {
		if !g.edges[e.Index].edge.IsLoop() {
			return true
		}
	}
	return false
}

// EdgesBetween returns the edges joining a and b in either direction, in
// ascending order. For a == b it returns the self-loops of a.
func (g *Graph) EdgesBetween(a, b NodeID) []EdgeID {
	if !g.HasNode(a) || !g.HasNode(b) {
		return nil
	}
	var out []EdgeID
	for _, e := range g.nodes[a.Index].incident {
		if g.edges[e.Index].edge.Other(a) == b {
			out = append(out, e)
		}
	}
	slices.SortFunc(out, CompareEdges)
	return out
}

// Clone returns a deep copy of g. Handles valid in g are valid in the copy
// and refer to the same elements.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:     make([]nodeSlot, len(g.nodes)),
		edges:     make([]edgeSlot, len(g.edges)),
		freeNodes: slices.Clone(g.freeNodes),
		freeEdges: slices.Clone(g.freeEdges),
		nodeCount: g.nodeCount,
		edgeCount: g.edgeCount,
		nodeKeys:  maps.Clone(g.nodeKeys),
		edgeKeys:  maps.Clone(g.edgeKeys),
		meta:      maps.Clone(g.meta),
	}
	for i, s := range g.nodes {
		s.incident = slices.Clone(s.incident)
		s.node.Meta = maps.Clone(s.node.Meta)
		c.nodes[i] = s
	}
	for i, s := range g.edges {
		s.edge.History = slices.Clone(s.edge.History)
		s.edge.Meta = maps.Clone(s.edge.Meta)
		c.edges[i] = s
	}
	return c
}

// Filter returns a copy of g keeping only the nodes for which keep returns
// true, along with the edges between kept nodes. Handles are preserved.
func (g *Graph) Filter(keep func(Node) bool) *Graph {
	c := g.Clone()
	for _, id := range c.Nodes() {
		n, _ := c.Node(id)
		if !keep(n) {
			c.RemoveNode(id)
		}
	}
	return c
}

// AtomicWeights returns the weight of every live original edge keyed by
// edge key. It is the value table [ring.Evaluate] expects.
func (g *Graph) AtomicWeights() map[string]float64 {
	out := make(map[string]float64, len(g.edgeKeys))
	for i := range g.edges {
		s := &g.edges[i]
		if s.live && s.edge.IsOriginal() {
			out[s.edge.Key] = s.edge.Weight
		}
	}
	return out
}

// Validate checks that the incidence index agrees with the edge table and
// that every live edge carries a history. It returns an error wrapping
// ErrInconsistent or ErrEmptyHistory.
func (g *Graph) Validate() error {
	ends := make(map[EdgeID]int, g.edgeCount)
	for i := range g.nodes {
		s := &g.nodes[i]
		if !s.live {
			continue
		}
		for _, e := range s.incident {
			if !g.HasEdge(e) {
				return fmt.Errorf("%w: node %s lists dead edge %s", ErrInconsistent, s.node.ID, e)
			}
			ends[e]++
		}
	}
	for i := range g.edges {
		s := &g.edges[i]
		if !s.live {
			continue
		}
		e := s.edge
		if !g.HasNode(e.From) || !g.HasNode(e.To) {
			return fmt.Errorf("%w: edge %s has a dead endpoint", ErrInconsistent, e.ID)
		}
		want := 2
		if e.IsLoop() {
			want = 1
		}
		if ends[e.ID] != want {
			return fmt.Errorf("%w: edge %s indexed %d times, want %d", ErrInconsistent, e.ID, ends[e.ID], want)
		}
		if len(e.History) == 0 {
			return fmt.Errorf("%w: edge %s", ErrEmptyHistory, e.ID)
		}
	}
	return nil
}
