package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmgreduce/pkg/cache"
	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/paths"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
	"github.com/matzehuels/mmgreduce/pkg/observability"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger

	// TTL is the lifetime of stored reductions.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache("no cache configured")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.TTLReduction,
	}
}

// Execute runs the complete load → reduce → encode pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	nodes, edges, err := readInputs(opts)
	if err != nil {
		return nil, err
	}
	result := &Result{InputHash: cache.HashParts(nodes, edges)}
	key := r.Keyer.ReductionKey(result.InputHash, opts.ReductionKeyOpts())

	var data []byte
	if !opts.Refresh {
		result.Artifact, data = r.lookup(ctx, key)
	}
	if result.Artifact != nil {
		result.CacheHit = true
		opts.Logger.Info("reduction loaded from cache", "key", key)
	} else {
		// Stage 1: Load
		loadStart := time.Now()
		g, err := r.Load(ctx, opts.source(), nodes, edges)
		if err != nil {
			return nil, err
		}
		result.Stats.LoadTime = time.Since(loadStart)

		// Stage 2: Reduce
		reduceStart := time.Now()
		res, err := r.Reduce(ctx, g, opts)
		if err != nil {
			return nil, err
		}
		result.Stats.ReduceTime = time.Since(reduceStart)
		opts.Logger.Info("reduced graph",
			"nodes", res.Reduced.NodeCount(),
			"edges", res.Reduced.EdgeCount(),
			"discarded", len(res.Discarded),
			"duration", result.Stats.ReduceTime)

		result.Artifact = mmgio.NewArtifact(res)
		if data, err = r.encode(ctx, result); err != nil {
			return nil, err
		}
		r.store(ctx, key, data)
	}

	original := result.Artifact.Result.Original
	result.Stats.NodeCount = original.NodeCount()
	result.Stats.EdgeCount = original.EdgeCount()

	if len(opts.Weights) > 0 {
		n, err := r.Reweight(result.Artifact, opts.Weights)
		if err != nil {
			return nil, err
		}
		result.Reweighted = n
		if data, err = r.encode(ctx, result); err != nil {
			return nil, err
		}
	}
	result.Data = data
	return result, nil
}

// Load parses the node and edge tables. Source names the input in logs and
// hooks.
func (r *Runner) Load(ctx context.Context, source string, nodes, edges []byte) (*mmg.Graph, error) {
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, source)
	start := time.Now()

	g, err := mmgio.ReadGraph(bytes.NewReader(nodes), bytes.NewReader(edges))
	elapsed := time.Since(start)
	if err != nil {
		hooks.OnLoadComplete(ctx, source, 0, 0, elapsed, err)
		return nil, err
	}
	hooks.OnLoadComplete(ctx, source, g.NodeCount(), g.EdgeCount(), elapsed, nil)
	r.Logger.Info("loaded tables",
		"source", source,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", elapsed)
	return g, nil
}

// Reduce runs the reduction engine on g without touching the cache.
func (r *Runner) Reduce(ctx context.Context, g *mmg.Graph, opts Options) (*reduce.Result, error) {
	opts.SetReduceDefaults()
	if err := opts.ValidateForReduce(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	rg, err := ring.ByName(opts.Ring)
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidRing, err, "ring %q", opts.Ring)
	}
	if err := mmgio.CheckGraphWeights(g, rg); err != nil {
		return nil, err
	}
	res, err := reduce.New(g, rg, reduce.Options{
		ProjectedType: opts.ProjectedType,
		PathLimit:     opts.engineLimit(),
		Logger:        opts.Logger,
		Check:         opts.Check,
	}).Run(ctx)
	if err != nil {
		return nil, classify(err)
	}
	return res, nil
}

// Reweight applies a per-type weight table to an artifact's original edges
// and recomputes its reduced edges. It returns the number of reduced edges
// whose weight changed.
func (r *Runner) Reweight(a *mmgio.Artifact, weights map[string]float64) (int, error) {
	if err := mmgio.ValidateWeightsFor(weights, a.Result.Ring); err != nil {
		return 0, err
	}
	n, err := reduce.Reweight(a.Result, weights)
	if err != nil {
		return 0, classify(err)
	}
	r.Logger.Info("reweighted reduction", "types", len(weights), "changed", n)
	return n, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) encode(ctx context.Context, result *Result) ([]byte, error) {
	start := time.Now()
	data, err := mmgio.MarshalArtifact(result.Artifact)
	result.Stats.EncodeTime = time.Since(start)
	observability.Pipeline().OnEncodeComplete(ctx, len(data), result.Stats.EncodeTime, err)
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInternal, err, "encode artifact")
	}
	return data, nil
}

// lookup returns the cached artifact under key, or nil on a miss. Cache
// errors and undecodable entries count as misses.
func (r *Runner) lookup(ctx context.Context, key string) (*mmgio.Artifact, []byte) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, key)
		return nil, nil
	}
	a, err := mmgio.UnmarshalArtifact(data)
	if err != nil {
		r.Logger.Debug("ignoring unreadable cache entry", "key", key, "err", err)
		hooks.OnCacheMiss(ctx, key)
		return nil, nil
	}
	hooks.OnCacheHit(ctx, key)
	return a, data
}

func (r *Runner) store(ctx context.Context, key string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, key, len(data))
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// source names the input tables for logs and hooks.
func (o *Options) source() string {
	if o.Nodes != nil || o.Edges != nil {
		return "memory"
	}
	return o.NodesPath + "+" + o.EdgesPath
}

func readInputs(opts Options) (nodes, edges []byte, err error) {
	nodes = opts.Nodes
	if nodes == nil {
		if nodes, err = readFile(opts.NodesPath); err != nil {
			return nil, nil, err
		}
	}
	edges = opts.Edges
	if edges == nil {
		if edges, err = readFile(opts.EdgesPath); err != nil {
			return nil, nil, err
		}
	}
	return nodes, edges, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeFileNotFound, err, "read %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// classify attaches an error code to engine errors.
func classify(err error) error {
	switch {
	case mmgerrors.GetCode(err) != "":
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return mmgerrors.Wrap(mmgerrors.ErrCodeCancelled, err, "reduction cancelled")
	case errors.Is(err, paths.ErrPathLimit):
		return mmgerrors.Wrap(mmgerrors.ErrCodePathLimit, err, "too many paths; raise path_limit or use a negative limit")
	case errors.Is(err, ring.ErrUnknownAtom):
		return mmgerrors.Wrap(mmgerrors.ErrCodeUnknownWeightID, err, "compute history refers to a missing edge")
	default:
		return mmgerrors.Wrap(mmgerrors.ErrCodeInternal, err, "reduction failed")
	}
}
