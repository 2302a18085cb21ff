package reduce

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/observability"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// DefaultProjectedType is the node type kept in the social network when
// Options.ProjectedType is empty.
const DefaultProjectedType = "PERSON"

// Phase names, as reported in [Stats] and to observability hooks.
const (
	PhasePrune               = "prune"
	PhaseMergeParallel       = "merge-parallel"
	PhaseContractDegree2     = "contract-degree-2"
	PhaseContractSimplePaths = "contract-simple-paths"
)

// ErrInvariant is returned by [Engine.Run] with Options.Check set when a
// phase leaves the graph in a state that breaks a provenance invariant.
var ErrInvariant = errors.New("reduction invariant violated")

// Options configures an [Engine].
type Options struct {
	// ProjectedType is the node type of the social network.
	// Defaults to DefaultProjectedType.
	ProjectedType string

	// PathLimit bounds the paths enumerated for one pair of projected nodes.
	// Zero means unlimited.
	PathLimit int

	// Logger receives per-phase debug output. Defaults to a discarding logger.
	Logger *log.Logger

	// Check verifies the provenance invariants after every phase.
	Check bool
}

func (o *Options) setDefaults() {
	if o.ProjectedType == "" {
		o.ProjectedType = DefaultProjectedType
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// PhaseStats records one executed phase.
type PhaseStats struct {
	Phase    string
	Nodes    int // live nodes after the phase
	Edges    int // live edges after the phase
	Duration time.Duration
}

// Stats summarizes a reduction run.
type Stats struct {
	NodesPruned     int
	ClassesMerged   int
	NodesContracted int
	PairsProcessed  int
	PathsEnumerated int
	PathsSelected   int
	Phases          []PhaseStats
	Total           time.Duration
}

// Engine reduces one graph. Create it with [New].
type Engine struct {
	g         *mmg.Graph
	original  *mmg.Graph
	ring      ring.Ring
	opts      Options
	projected []mmg.NodeID
	atomic    map[string]float64
	stats     Stats
	discarded []string
}

// New returns an engine working on a copy of g. The caller's graph is never
// modified. A nil ring selects [ring.MaxProduct].
func New(g *mmg.Graph, r ring.Ring, opts Options) *Engine {
	opts.setDefaults()
	if r == nil {
		r = ring.MaxProduct{}
	}
	e := &Engine{
		g:        g.Clone(),
		original: g.Clone(),
		ring:     r,
		opts:     opts,
	}
	e.projected = e.g.NodesOfType(opts.ProjectedType)
	e.atomic = e.original.AtomicWeights()
	return e
}

// Graph returns the working graph. It reflects every phase run so far.
func (e *Engine) Graph() *mmg.Graph { return e.g }

// Ring returns the ring the engine folds weights with.
func (e *Engine) Ring() ring.Ring { return e.ring }

// Stats returns the counters accumulated so far.
func (e *Engine) Stats() Stats { return e.stats }

// Run executes the full phase sequence and returns the result. The context
// is checked between phases and between pairs of projected nodes.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	e.opts.Logger.Debug("reduction started",
		"projected_type", e.opts.ProjectedType,
		"ring", e.ring.Name(),
		"nodes", e.g.NodeCount(),
		"edges", e.g.EdgeCount())

	steps := []struct {
		phase string
		run   func(context.Context) error
	}{
		{PhasePrune, e.prunePhase},
		{PhaseMergeParallel, e.mergePhase},
		{PhasePrune, e.prunePhase},
		{PhaseContractDegree2, e.contractDegree2Phase},
		{PhasePrune, e.prunePhase},
		{PhaseContractSimplePaths, e.ContractSimplePaths},
		{PhaseMergeParallel, e.mergePhase},
		{PhasePrune, e.prunePhase},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := e.runPhase(ctx, s.phase, s.run); err != nil {
			return nil, err
		}
	}
	e.stats.Total = time.Since(start)

	e.opts.Logger.Debug("reduction finished",
		"nodes", e.g.NodeCount(),
		"edges", e.g.EdgeCount(),
		"discarded", len(e.discarded),
		"duration", e.stats.Total)

	return e.result(), nil
}

func (e *Engine) runPhase(ctx context.Context, phase string, run func(context.Context) error) error {
	hooks := observability.Reduction()
	hooks.OnPhaseStart(ctx, phase, e.g.NodeCount(), e.g.EdgeCount())
	start := time.Now()

	err := run(ctx)
	if err == nil && e.opts.Check {
		err = e.CheckInvariants()
	}
	elapsed := time.Since(start)
	hooks.OnPhaseComplete(ctx, phase, e.g.NodeCount(), e.g.EdgeCount(), elapsed, err)
	if err != nil {
		return fmt.Errorf("%s: %w", phase, err)
	}

	e.stats.Phases = append(e.stats.Phases, PhaseStats{
		Phase:    phase,
		Nodes:    e.g.NodeCount(),
		Edges:    e.g.EdgeCount(),
		Duration: elapsed,
	})
	e.opts.Logger.Debug("phase complete",
		"phase", phase,
		"nodes", e.g.NodeCount(),
		"edges", e.g.EdgeCount(),
		"duration", elapsed)
	return nil
}

func (e *Engine) prunePhase(context.Context) error {
	e.Prune()
	return nil
}

func (e *Engine) mergePhase(context.Context) error {
	e.MergeParallel()
	return nil
}

func (e *Engine) contractDegree2Phase(context.Context) error {
	e.ContractDegree2()
	return nil
}

func (e *Engine) isProjected(id mmg.NodeID) bool {
	n, ok := e.g.Node(id)
	return ok && n.Type == e.opts.ProjectedType
}

// discard records the history of an edge that is deleted without being
// absorbed into a new edge.
func (e *Engine) discard(id mmg.EdgeID) {
	if ed, ok := e.g.Edge(id); ok {
		e.discarded = append(e.discarded, ed.History...)
	}
}

// CheckInvariants verifies the working graph: the incidence index is
// consistent, every edge history is non-empty, names only original edges and
// matches the leaves of its compute expression, the projected node set is
// unchanged, and every weight equals the evaluation of its compute
// expression. Violations wrap [ErrInvariant].
func (e *Engine) CheckInvariants() error {
	if err := e.g.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvariant, err)
	}
	for _, id := range e.g.Edges() {
		ed, _ := e.g.Edge(id)
		for _, key := range ed.History {
			if _, ok := e.atomic[key]; !ok {
				return fmt.Errorf("%w: edge %s history names unknown edge %q", ErrInvariant, id, key)
			}
		}
		if !slices.Equal(ed.History, ed.Compute.Atoms()) {
			return fmt.Errorf("%w: edge %s history %v does not match %s", ErrInvariant, id, ed.History, ed.Compute)
		}
		w, err := ring.Evaluate(e.ring, ed.Compute, e.atomic)
		if err != nil {
			return fmt.Errorf("%w: edge %s: %w", ErrInvariant, id, err)
		}
		if !sameWeight(w, ed.Weight) {
			return fmt.Errorf("%w: edge %s weight %v, evaluates to %v", ErrInvariant, id, ed.Weight, w)
		}
	}
	if got := e.g.NodesOfType(e.opts.ProjectedType); !slices.Equal(got, e.projected) {
		return fmt.Errorf("%w: projected nodes changed from %d to %d", ErrInvariant, len(e.projected), len(got))
	}
	return nil
}

// sameWeight compares exactly, treating two NaNs as equal.
func sameWeight(a, b float64) bool {
	return a == b || (a != a && b != b)
}
