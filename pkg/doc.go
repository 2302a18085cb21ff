// Package pkg provides the core libraries for mmgreduce.
//
// # Overview
//
// mmgreduce turns an investigation graph, a multivariate multigraph of people,
// phones, cars, addresses and the relations between them, into a weighted
// social network between the people. Every link of the result keeps the ids
// of the original edges it was built from and an expression that recomputes
// its weight from theirs. The pkg directory is organized into four areas:
//
//  1. [ring], [mmg] - Domain logic (weights, graph, path search, reduction)
//  2. [io] - Input tables and persisted reduction artifacts
//  3. [pipeline] - Orchestration (load → reduce → encode) with caching
//  4. [cache], [errors], [observability] - Infrastructure
//
// # Architecture
//
// The typical data flow through mmgreduce:
//
//	nodes.csv + edges.csv
//	         ↓
//	    [io] package (parse tables)
//	         ↓
//	    [mmg] package (multigraph with arena handles)
//	         ↓
//	    [mmg/reduce] package (prune → merge → contract → paths)
//	         ↓
//	    JSON artifact
//
// # Quick Start
//
// Reduce two tables and print the links:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/mmgreduce/pkg/io"
//	    "github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
//	    "github.com/matzehuels/mmgreduce/pkg/ring"
//	)
//
//	g, _ := io.ImportTables("nodes.csv", "edges.csv")
//	res, _ := reduce.New(g, ring.SumMax{}, reduce.Options{}).Run(context.Background())
//	for _, e := range res.Edges() {
//	    fmt.Println(e.Weight, e.History, e.Compute)
//	}
//
// # Main Packages
//
// [ring] - Weight rings: a merge operator for parallel edges and a contract
// operator for chained edges, plus compute expressions that replay them.
//
// [mmg] - Undirected multigraph with generation-checked handles, typed nodes
// and edges, connected components.
//
// [mmg/paths] - Constrained simple-path enumeration between two nodes whose
// interior may only pass through allowed nodes.
//
// [mmg/reduce] - The reduction engine and re-weighting of finished runs.
//
// [io] - ';'-separated node, edge and weight tables; TOML weight tables;
// versioned JSON artifacts.
//
// [pipeline] - Options, TOML configuration and a caching runner shared by the
// CLI and library users.
//
// [cache] - File, Redis and no-op caches for encoded artifacts.
//
// [errors] - Coded errors and row-level input errors.
//
// [observability] - Hooks for load, reduction phase and cache events.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/mmg/reduce/...         # Specific package
//	go test -run Example                 # Examples only
//
// [ring]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/ring
// [mmg]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/mmg
// [mmg/paths]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/mmg/paths
// [mmg/reduce]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/mmg/reduce
// [io]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/io
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/mmgreduce/pkg/observability
package pkg
