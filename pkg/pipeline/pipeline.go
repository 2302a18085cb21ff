// Package pipeline provides the load → reduce → encode pipeline for mmgreduce.
//
// The CLI and library users share this package so that defaults, validation
// and caching behave the same everywhere.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Read the node and edge tables into a multivariate multigraph
//  2. Reduce: Run the reduction engine down to the projected node type
//  3. Encode: Write the run as a JSON artifact
//
// The encoded artifact is cached under a key derived from the raw input
// tables and the reduction settings, so re-running an unchanged case skips
// the first two stages. A weight table in the options is applied after the
// cache lookup with [reduce.Reweight], which gives the same weights as
// reducing the reweighted input.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    NodesPath: "case/nodes.csv",
//	    EdgesPath: "case/edges.csv",
//	    Ring:      "sum-max",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("case.json", result.Data, 0o644)
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmgreduce/pkg/cache"
	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	mmgio "github.com/matzehuels/mmgreduce/pkg/io"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Use
// =============================================================================

const (
	// DefaultProjectedType is the node type kept in the social network.
	DefaultProjectedType = reduce.DefaultProjectedType

	// DefaultRing is the weight ring used when none is configured.
	DefaultRing = ring.DefaultName

	// DefaultPathLimit bounds the paths enumerated per pair of projected
	// nodes. Dense cases can have exponentially many simple paths; the limit
	// turns such runs into a PATH_LIMIT error instead of a hang.
	DefaultPathLimit = 100000
)

// Cache backends accepted in configuration.
const (
	CacheBackendFile  = "file"
	CacheBackendRedis = "redis"
	CacheBackendNone  = "none"
)

// DefaultCacheBackend is the backend used when none is configured.
const DefaultCacheBackend = CacheBackendFile

// ValidCacheBackends is the set of supported cache backends.
var ValidCacheBackends = map[string]bool{
	CacheBackendFile:  true,
	CacheBackendRedis: true,
	CacheBackendNone:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one reduction run.
type Options struct {
	// Input tables. In-memory tables take precedence over paths.
	NodesPath string `json:"nodes_path,omitempty"`
	EdgesPath string `json:"edges_path,omitempty"`
	Nodes     []byte `json:"-"`
	Edges     []byte `json:"-"`

	// Reduction options
	ProjectedType string `json:"projected_type,omitempty"`
	Ring          string `json:"ring,omitempty"`
	PathLimit     int    `json:"path_limit,omitempty"` // Negative disables the limit
	Check         bool   `json:"check,omitempty"`      // Verify invariants after every phase

	// Weights overrides original edge weights by edge type.
	Weights map[string]float64 `json:"weights,omitempty"`

	// Refresh skips the cache lookup but still stores the new artifact.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Artifact is the decoded reduction run.
	Artifact *mmgio.Artifact

	// Data is the encoded artifact.
	Data []byte

	// InputHash is the content hash of the node and edge tables.
	InputHash string

	// CacheHit reports whether the reduction came from the cache.
	CacheHit bool

	// Reweighted counts the reduced edges whose weight changed when
	// Options.Weights was applied.
	Reweighted int

	// Stats contains timing and size information.
	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LoadTime   time.Duration
	ReduceTime time.Duration
	EncodeTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateRing checks that a ring name is registered. Matching ignores case
// and surrounding whitespace; an empty name is rejected.
func ValidateRing(name string) error {
	if strings.TrimSpace(name) == "" {
		return mmgerrors.New(mmgerrors.ErrCodeInvalidRing, "ring name is required (must be one of: %v)", ring.Names())
	}
	if _, err := ring.ByName(name); err != nil {
		return mmgerrors.Wrap(mmgerrors.ErrCodeInvalidRing, err, "invalid ring %q (must be one of: %v)", name, ring.Names())
	}
	return nil
}

// ValidateProjectedType checks the projected node type.
func ValidateProjectedType(typ string) error {
	return mmgerrors.ValidateTypeName(typ)
}

// ValidateCacheBackend checks that a cache backend is supported.
func ValidateCacheBackend(backend string) error {
	if !ValidCacheBackends[backend] {
		return mmgerrors.New(mmgerrors.ErrCodeInvalidConfig, "invalid cache backend %q (must be one of: file, redis, none)", backend)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetReduceDefaults()
	if err := o.ValidateForReduce(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks that both input tables are given.
func (o *Options) ValidateForLoad() error {
	if o.Nodes == nil {
		if o.NodesPath == "" {
			return mmgerrors.New(mmgerrors.ErrCodeInvalidInput, "nodes table is required")
		}
		if err := mmgerrors.ValidatePath(o.NodesPath); err != nil {
			return err
		}
	}
	if o.Edges == nil {
		if o.EdgesPath == "" {
			return mmgerrors.New(mmgerrors.ErrCodeInvalidInput, "edges table is required")
		}
		if err := mmgerrors.ValidatePath(o.EdgesPath); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetReduceDefaults sets default values for the reduction.
func (o *Options) SetReduceDefaults() {
	if o.ProjectedType == "" {
		o.ProjectedType = DefaultProjectedType
	}
	if o.Ring == "" {
		o.Ring = DefaultRing
	}
	if o.PathLimit == 0 {
		o.PathLimit = DefaultPathLimit
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForReduce validates the reduction settings and stores the
// canonical ring name, so equivalent spellings share cache entries.
func (o *Options) ValidateForReduce() error {
	if err := ValidateProjectedType(o.ProjectedType); err != nil {
		return err
	}
	if err := ValidateRing(o.Ring); err != nil {
		return err
	}
	rg, err := ring.ByName(o.Ring)
	if err != nil {
		return mmgerrors.Wrap(mmgerrors.ErrCodeInvalidRing, err, "ring %q", o.Ring)
	}
	o.Ring = rg.Name()
	return mmgio.ValidateWeightsFor(o.Weights, rg)
}

// engineLimit converts PathLimit to the engine convention, where zero means
// unlimited.
func (o *Options) engineLimit() int {
	if o.PathLimit < 0 {
		return 0
	}
	return o.PathLimit
}

// ReductionKeyOpts returns cache key options for the reduction.
func (o *Options) ReductionKeyOpts() cache.ReductionKeyOpts {
	return cache.ReductionKeyOpts{
		ProjectedType: o.ProjectedType,
		Ring:          o.Ring,
		PathLimit:     o.engineLimit(),
	}
}
