// Package paths enumerates constrained simple paths in an [mmg.Graph].
//
// A [Finder] lists every simple path (no repeated node) between a start and
// an end node whose interior nodes all satisfy a pass-through predicate. The
// end node is exempt from the predicate, so a path may stop at a node that it
// could not cross.
//
// The reduction engine uses this to find every chain of non-person entities
// joining two persons:
//
//	f := paths.New(g, func(n mmg.NodeID) bool { return !isPerson(n) })
//	for _, pair := range pairs {
//	    f.Reset(pair.a, pair.b)
//	    ps, err := f.Paths()
//	    ...
//	}
//
// # Algorithm
//
// Depth-first search from the start node. A node is marked visited only while
// the branch that entered it is active and is unmarked on backtrack, so the
// same node can appear on many different paths. Neighbors are explored in
// ascending handle order and, between two adjacent nodes, the edge with the
// lowest handle is reported, which makes the output reproducible.
//
// The number of simple paths can grow exponentially with the branching factor
// of unconstrained interior nodes. Use [WithLimit] to bound the enumeration;
// Paths then fails with [ErrPathLimit] instead of running on.
package paths
