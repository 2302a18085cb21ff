// Package ring provides the weight algebra used when a multigraph is reduced
// to a social network.
//
// # Overview
//
// Every derived edge weight is obtained with one of two operators:
//
//   - Merge combines the weights of parallel edges (same endpoints).
//   - Contract combines the weights of edges chained along a path.
//
// A [Ring] bundles the two operators. Contract must be associative and
// commutative so that folding a path in any order yields the same weight.
// Two rings ship with the package:
//
//   - [SumMax]: contract is the sum, merge is the maximum.
//   - [MaxProduct]: contract is exp(Σ log w), the product computed in the
//     log domain, merge is the maximum.
//
// Use [ByName] to resolve a ring from configuration.
//
// # Provenance Expressions
//
// An [Expr] records how a derived weight was computed, as a tree of
// [Merge] and [Contract] nodes over [Atomic] leaves that name original edges:
//
//	e := ring.Contract(ring.Atomic("e1"), ring.Merge(ring.Atomic("e2"), ring.Atomic("e3")))
//	w, err := ring.Evaluate(ring.SumMax{}, e, map[string]float64{"e1": 1, "e2": 2, "e3": 5})
//	// w == 6
//
// [Evaluate] fails with [ErrUnknownAtom] when a leaf has no atomic value. It
// never substitutes a default, since that would silently corrupt weights.
package ring
