// Package reduce turns a multivariate multigraph into a social network over a
// single projected node type.
//
// # Overview
//
// An [Engine] owns a private copy of the input graph and rewrites it in a
// fixed sequence of phases:
//
//  1. [Engine.Prune] removes non-projected dead ends.
//  2. [Engine.MergeParallel] folds every class of parallel edges into one.
//  3. Prune again.
//  4. [Engine.ContractDegree2] splices out non-projected nodes that merely
//     relay between two neighbors, merging any parallel edge this creates.
//  5. Prune again.
//  6. [Engine.ContractSimplePaths] replaces the remaining chains of
//     non-projected entities between two projected nodes by direct edges.
//  7. MergeParallel and a final Prune.
//
// Every edge the engine creates records the original edge keys it summarizes
// (History) and how its weight was folded from theirs (Compute), so any
// social-network tie can be traced back to the evidence behind it and
// re-weighted later with [Reweight].
//
// # Weights
//
// Weights are combined with a [ring.Ring] chosen once per engine: parallel
// edges are folded with Merge, serial edges with Contract. The engine applies
// the same operator to the same operands in the same order as
// [ring.Evaluate], so re-evaluating an edge's compute expression reproduces
// its weight exactly.
//
// # Path selection
//
// For a pair of projected nodes all simple paths through non-projected nodes
// are ranked by contracted weight. The best path is kept, every path sharing
// an interior node or an edge with it is dropped, and the process repeats.
// Paths of different pairs may share edges; the original evidence then
// supports several ties. Edges of enumerated paths that no kept path uses are
// reported in [Result.Discarded].
//
// # Usage
//
//	eng := reduce.New(g, ring.MaxProduct{}, reduce.Options{ProjectedType: "PERSON"})
//	res, err := eng.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	social := res.Social()
//
// An Engine is not safe for concurrent use.
package reduce
