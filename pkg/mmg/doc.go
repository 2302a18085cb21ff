// Package mmg provides the multivariate multigraph that the reduction engine
// rewrites.
//
// # Overview
//
// Investigation data links entities of several types (people, phones,
// vehicles, places) through typed, weighted edges. Two entities may share
// many edges, so the graph is a multigraph: parallel edges and self-loops are
// allowed. Edges are undirected for every algorithm in this module; From and
// To only record how the edge was declared.
//
// # Handles
//
// Nodes and edges are addressed by [NodeID] and [EdgeID] handles into a
// generation-indexed arena. Removing an element frees its slot and bumps the
// slot generation, so a handle held across a removal is detectably stale:
// [Graph.HasNode] and [Graph.HasEdge] report false and every accessor treats
// it as absent. Removing an absent element is a no-op. Handles order by slot
// index, which is what the reduction phases use for deterministic picks.
//
// # Provenance
//
// Every [Edge] carries a History, the keys of the original edges it
// summarizes, and a Compute expression (see [ring.Expr]) describing how its
// weight was folded. Edges added with a Key and no history are original
// edges: their history is the key itself and their compute expression is an
// atomic leaf.
//
// # Concurrency
//
// Graph instances are not safe for concurrent use. The reduction engine owns
// its working graph exclusively.
package mmg
