// Package io reads investigation tables into a multigraph and persists
// reduction results.
//
// # Tables
//
// Nodes and edges arrive as two semicolon-delimited tables with a header row.
// Columns are matched by header name, case-insensitively and in any order:
//
//	id;type;label;icon
//	p1;PERSON;Alice;person
//	ph1;PHONE;+33 6 12 34 56 78;phone
//
//	id;source;target;type;weight;label
//	c1;p1;ph1;OWNS;1.0;owner
//
// Node columns id and type are required; label defaults to the id. Edge
// columns id, source, target, type and weight are required; label is kept as
// edge metadata. Use [ReadNodes] followed by [ReadEdges], or [ReadGraph] and
// [ImportTables] for both at once.
//
// A bad row fails the whole read with an [errors.RecordError] naming the
// table, line and field, coded INVALID_INPUT for a missing value,
// DUPLICATE_ID, UNKNOWN_NODE or INVALID_WEIGHT. Edges are validated before
// any is added, so a failed [ReadEdges] leaves the graph unchanged.
//
// # Weight tables
//
// A weight table maps edge types to weights for [reduce.Reweight]. It is a
// two-column table:
//
//	type;value
//	OWNS;1.0
//	PHONE_CALL;2.5
//
// or the [weights] table of a TOML document:
//
//	[weights]
//	OWNS = 1.0
//	PHONE_CALL = 2.5
//
// [ImportWeights] picks the format from the file extension.
//
// # Artifacts
//
// An [Artifact] is a self-describing JSON document holding the original
// graph, the reduced graph, the ring, the discarded edge keys and a run id:
//
//	{
//	  "version": 1,
//	  "run_id": "7f9c...",
//	  "projected_type": "PERSON",
//	  "ring": "max-product",
//	  "original": {"nodes": [...], "edges": [...]},
//	  "reduced": {"nodes": [...], "edges": [...]},
//	  "discarded": ["e12"]
//	}
//
// Edges are written with their weight, history and compute expression, so
// an artifact can be re-weighted without running the reduction again. Edge
// endpoints are node ids; arena handles are not persisted.
//
// [errors.RecordError]: github.com/matzehuels/mmgreduce/pkg/errors.RecordError
// [reduce.Reweight]: github.com/matzehuels/mmgreduce/pkg/mmg/reduce.Reweight
package io
