package reduce

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/paths"
	"github.com/matzehuels/mmgreduce/pkg/observability"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

var rings = []ring.Ring{ring.SumMax{}, ring.MaxProduct{}}

func TestContractDegree2CreatesAndMergesParallel(t *testing.T) {
	for _, r := range rings {
		t.Run(r.Name(), func(t *testing.T) {
			f := newFixture(t)
			f.node("P1", "PERSON")
			f.node("D1", "DEVICE")
			f.node("D2", "DEVICE")
			f.edge("e1", "P1", "D1", 2)
			f.edge("e2", "D1", "D2", 3)
			f.edge("e3", "D2", "P1", 1)

			e := New(f.g, r, Options{Check: true})
			if n := e.Prune(); n != 0 {
				t.Errorf("Prune() = %d, want 0", n)
			}
			if n := e.MergeParallel(); n != 0 {
				t.Errorf("MergeParallel() = %d, want 0", n)
			}
			if n := e.ContractDegree2(); n != 1 {
				t.Errorf("ContractDegree2() = %d, want 1", n)
			}

			ed := between(t, e.Graph(), "P1", "D2")
			want := r.Merge([]float64{r.Contract([]float64{2, 3}), 1})
			if ed.Weight != want {
				t.Errorf("weight = %v, want %v", ed.Weight, want)
			}
			if got := ed.Compute.String(); got != "M(C(e1;e2);e3)" {
				t.Errorf("compute = %s, want M(C(e1;e2);e3)", got)
			}
			if !reflect.DeepEqual(ed.History, []string{"e1", "e2", "e3"}) {
				t.Errorf("history = %v", ed.History)
			}
			if err := e.CheckInvariants(); err != nil {
				t.Error(err)
			}
			if _, ok := e.Graph().NodeByKey("D1"); ok {
				t.Error("D1 should be contracted away")
			}
		})
	}
}

func TestRunDiscardsDeadEndEvidence(t *testing.T) {
	f := newFixture(t)
	f.node("P1", "PERSON")
	f.node("D1", "DEVICE")
	f.node("D2", "DEVICE")
	f.edge("e1", "P1", "D1", 2)
	f.edge("e2", "D1", "D2", 3)
	f.edge("e3", "D2", "P1", 1)

	res := mustRun(t, New(f.g, ring.SumMax{}, Options{Check: true}))
	if res.Reduced.NodeCount() != 1 || res.Reduced.EdgeCount() != 0 {
		t.Errorf("reduced = %d nodes, %d edges; want 1, 0", res.Reduced.NodeCount(), res.Reduced.EdgeCount())
	}
	if !reflect.DeepEqual(res.Discarded, []string{"e1", "e2", "e3"}) {
		t.Errorf("Discarded = %v", res.Discarded)
	}
	if missing := res.Coverage(); len(missing) != 0 {
		t.Errorf("Coverage() = %v", missing)
	}
}

func TestContractSimplePathsDisjoint(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	for i := 1; i <= 5; i++ {
		d := fmt.Sprintf("D%d", i)
		f.node(d, "PHONE")
		f.edge("a"+d, "A", d, float64(i))
		f.edge(d+"b", d, "B", 1)
	}

	e := New(f.g, ring.SumMax{}, Options{Check: true})
	if err := e.ContractSimplePaths(context.Background()); err != nil {
		t.Fatalf("ContractSimplePaths: %v", err)
	}
	g := e.Graph()
	a, _ := g.NodeByKey("A")
	b, _ := g.NodeByKey("B")
	ids := g.EdgesBetween(a, b)
	if len(ids) != 5 {
		t.Fatalf("A-B edges = %d, want 5", len(ids))
	}
	if g.EdgeCount() != 5 {
		t.Errorf("EdgeCount() = %d, want 5: interior edges must be gone", g.EdgeCount())
	}
	seen := make(map[string]bool)
	for _, id := range ids {
		ed, _ := g.Edge(id)
		if len(ed.History) != 2 {
			t.Fatalf("history = %v, want two edges", ed.History)
		}
		d := ed.History[0][1:]
		if seen[d] || ed.History[1] != d+"b" {
			t.Errorf("history %v does not trace one intermediate", ed.History)
		}
		seen[d] = true
	}
	if s := e.Stats(); s.PairsProcessed != 1 || s.PathsEnumerated != 5 || s.PathsSelected != 5 {
		t.Errorf("stats = %+v", s)
	}

	if n := e.MergeParallel(); n != 1 {
		t.Errorf("MergeParallel() = %d, want 1", n)
	}
	ed := between(t, g, "A", "B")
	if ed.Weight != 6 {
		t.Errorf("merged weight = %v, want 6", ed.Weight)
	}
	if ed.Compute.Kind != ring.KindMerge || len(ed.Compute.Children) != 5 {
		t.Errorf("compute = %s, want a five-way merge", ed.Compute)
	}
	if n := e.Prune(); n != 5 {
		t.Errorf("Prune() = %d, want 5 isolated intermediates", n)
	}
	if err := e.CheckInvariants(); err != nil {
		t.Error(err)
	}
}

func TestContractSimplePathsSharedInterior(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	f.node("M", "PHONE")
	f.node("N", "CAR")
	f.edge("am", "A", "M", 3)
	f.edge("mb", "M", "B", 3)
	f.edge("an", "A", "N", 1)
	f.edge("nm", "N", "M", 1)

	e := New(f.g, ring.SumMax{}, Options{Check: true})
	if err := e.ContractSimplePaths(context.Background()); err != nil {
		t.Fatalf("ContractSimplePaths: %v", err)
	}
	g := e.Graph()
	if g.EdgeCount() != 1 {
		t.Fatalf("EdgeCount() = %d, want 1", g.EdgeCount())
	}
	ed := between(t, g, "A", "B")
	if ed.Weight != 6 || !reflect.DeepEqual(ed.History, []string{"am", "mb"}) {
		t.Errorf("kept edge = %v %v, want 6 [am mb]", ed.Weight, ed.History)
	}
	for _, key := range []string{"am", "mb", "an", "nm"} {
		if _, ok := g.EdgeByKey(key); ok {
			t.Errorf("edge %s should be deleted", key)
		}
	}
	if !reflect.DeepEqual(e.discarded, []string{"an", "nm"}) {
		t.Errorf("discarded = %v, want [an nm]", e.discarded)
	}
	if s := e.Stats(); s.PathsEnumerated != 2 || s.PathsSelected != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestContractSimplePathsTieKeepsDiscoveryOrder(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	// N has the lower handle, so A-N-M-B is discovered before A-M-B.
	f.node("N", "CAR")
	f.node("M", "PHONE")
	f.edge("an", "A", "N", 1)
	f.edge("nm", "N", "M", 1)
	f.edge("mb", "M", "B", 2)
	f.edge("am", "A", "M", 2)

	e := New(f.g, ring.SumMax{}, Options{Check: true})
	if err := e.ContractSimplePaths(context.Background()); err != nil {
		t.Fatal(err)
	}
	ed := between(t, e.Graph(), "A", "B")
	if ed.Weight != 4 || !reflect.DeepEqual(ed.History, []string{"an", "nm", "mb"}) {
		t.Errorf("kept edge = %v %v, want 4 [an nm mb]", ed.Weight, ed.History)
	}
	if !reflect.DeepEqual(e.discarded, []string{"am"}) {
		t.Errorf("discarded = %v, want [am]", e.discarded)
	}
}

func TestContractSimplePathsSingleEdgeCollapses(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	f.edge("ab", "A", "B", 4)

	e := New(f.g, ring.MaxProduct{}, Options{Check: true})
	if err := e.ContractSimplePaths(context.Background()); err != nil {
		t.Fatal(err)
	}
	ed := between(t, e.Graph(), "A", "B")
	if ed.Compute.String() != "ab" || ed.Weight != 4 {
		t.Errorf("edge = %s %v, want ab 4", ed.Compute, ed.Weight)
	}
	if ed.IsOriginal() {
		t.Error("recreated edge must not claim to be original")
	}
}

func TestPruneLongChain(t *testing.T) {
	f := newFixture(t)
	f.node("P", "PERSON")
	prev := "P"
	const n = 5000
	for i := range n {
		key := fmt.Sprintf("D%d", i)
		f.node(key, "PHONE")
		f.edge(prev+"-"+key, prev, key, 1)
		prev = key
	}

	e := New(f.g, ring.SumMax{}, Options{})
	if got := e.Prune(); got != n {
		t.Fatalf("Prune() = %d, want %d", got, n)
	}
	if e.Graph().NodeCount() != 1 || e.Graph().EdgeCount() != 0 {
		t.Errorf("left %d nodes, %d edges; want 1, 0", e.Graph().NodeCount(), e.Graph().EdgeCount())
	}
	if len(e.discarded) != n {
		t.Errorf("discarded %d edges, want %d", len(e.discarded), n)
	}
	if e.Stats().NodesPruned != n {
		t.Errorf("NodesPruned = %d", e.Stats().NodesPruned)
	}
}

func TestContractDegree2LowestHandleFirst(t *testing.T) {
	f := newFixture(t)
	f.node("P1", "PERSON")
	f.node("D1", "PHONE")
	f.node("D2", "PHONE")
	f.node("P2", "PERSON")
	f.edge("e1", "P1", "D1", 1)
	f.edge("e2", "D1", "D2", 1)
	f.edge("e3", "D2", "P2", 1)

	e := New(f.g, ring.SumMax{}, Options{Check: true})
	if n := e.ContractDegree2(); n != 2 {
		t.Fatalf("ContractDegree2() = %d, want 2", n)
	}
	ed := between(t, e.Graph(), "P1", "P2")
	if got := ed.Compute.String(); got != "C(C(e1;e2);e3)" {
		t.Errorf("compute = %s, want C(C(e1;e2);e3)", got)
	}
	if ed.Weight != 3 {
		t.Errorf("weight = %v, want 3", ed.Weight)
	}
}

func TestPrune(t *testing.T) {
	tests := []struct {
		name   string
		build  func(f *fixture)
		pruned int
		left   []string
	}{
		{
			name: "chain of dead ends",
			build: func(f *fixture) {
				f.node("P", "PERSON")
				f.node("X", "PHONE")
				f.node("Y", "PHONE")
				f.edge("px", "P", "X", 1)
				f.edge("xy", "X", "Y", 1)
			},
			pruned: 2,
			left:   []string{"P"},
		},
		{
			name: "isolated projected node stays",
			build: func(f *fixture) {
				f.node("P", "PERSON")
			},
			left: []string{"P"},
		},
		{
			name: "self-loop only",
			build: func(f *fixture) {
				f.node("P", "PERSON")
				f.node("X", "PHONE")
				f.edge("xx", "X", "X", 1)
			},
			pruned: 1,
			left:   []string{"P"},
		},
		{
			name: "cascade through hub",
			build: func(f *fixture) {
				f.node("P", "PERSON")
				f.node("X", "PHONE")
				f.node("Y", "ADDRESS")
				f.node("Z", "CAR")
				f.node("W", "CAR")
				f.edge("px", "P", "X", 1)
				f.edge("xy", "X", "Y", 1)
				f.edge("yz", "Y", "Z", 1)
				f.edge("yw", "Y", "W", 1)
			},
			pruned: 4,
			left:   []string{"P"},
		},
		{
			name: "relay kept",
			build: func(f *fixture) {
				f.node("P", "PERSON")
				f.node("Q", "PERSON")
				f.node("X", "PHONE")
				f.edge("px", "P", "X", 1)
				f.edge("xq", "X", "Q", 1)
			},
			left: []string{"P", "Q", "X"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.build(f)
			e := New(f.g, nil, Options{})
			if n := e.Prune(); n != tt.pruned {
				t.Errorf("Prune() = %d, want %d", n, tt.pruned)
			}
			var left []string
			for _, id := range e.Graph().Nodes() {
				n, _ := e.Graph().Node(id)
				left = append(left, n.Key)
			}
			slices.Sort(left)
			if !reflect.DeepEqual(left, tt.left) {
				t.Errorf("nodes left = %v, want %v", left, tt.left)
			}
		})
	}
}

func TestRandomGraphProperties(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		for _, r := range rings {
			t.Run(fmt.Sprintf("%s/seed-%d", r.Name(), seed), func(t *testing.T) {
				g := randomGraph(t, seed, 14, 26)
				res := mustRun(t, New(g, r, Options{Check: true}))

				if got, want := res.Reduced.NodesOfType("PERSON"), g.NodesOfType("PERSON"); !slices.Equal(got, want) {
					t.Errorf("projected nodes = %v, want %v", got, want)
				}
				if missing := res.Coverage(); len(missing) != 0 {
					t.Errorf("Coverage() = %v", missing)
				}

				discarded := make(map[string]bool)
				for _, key := range res.Discarded {
					if discarded[key] {
						t.Errorf("key %s discarded twice", key)
					}
					discarded[key] = true
				}
				for _, ed := range res.Edges() {
					inEdge := make(map[string]bool)
					for _, key := range ed.History {
						if inEdge[key] {
							t.Errorf("edge %s repeats %s in %v", ed.ID, key, ed.History)
						}
						if discarded[key] {
							t.Errorf("key %s both discarded and kept", key)
						}
						inEdge[key] = true
					}
				}
			})
		}
	}
}

func TestPhasePostconditions(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		g := randomGraph(t, seed, 16, 30)
		e := New(g, ring.MaxProduct{}, Options{})
		e.Prune()
		e.MergeParallel()
		assertNoParallel(t, seed, e.Graph())

		e.Prune()
		e.ContractDegree2()
		assertNoParallel(t, seed, e.Graph())
		for _, id := range e.Graph().Nodes() {
			if !e.isProjected(id) && e.Graph().Degree(id) == 2 {
				t.Errorf("seed %d: node %s still has degree 2", seed, id)
			}
		}
		if err := e.CheckInvariants(); err != nil {
			t.Errorf("seed %d: %v", seed, err)
		}
	}
}

func assertNoParallel(t *testing.T, seed int64, g *mmg.Graph) {
	t.Helper()
	seen := make(map[endpoints]mmg.EdgeID)
	for _, id := range g.Edges() {
		ed, _ := g.Edge(id)
		k := pairOf(ed.From, ed.To)
		if prev, ok := seen[k]; ok {
			t.Errorf("seed %d: edges %s and %s are parallel", seed, prev, id)
		}
		seen[k] = id
	}
}

func TestRunDeterministic(t *testing.T) {
	g := randomGraph(t, 7, 18, 34)
	render := func(res *Result) []string {
		var out []string
		for _, ed := range res.Edges() {
			out = append(out, fmt.Sprintf("%s-%s %v %s", ed.From, ed.To, ed.Weight, ed.Compute))
		}
		return out
	}
	first := render(mustRun(t, New(g, ring.MaxProduct{}, Options{})))
	second := render(mustRun(t, New(g, ring.MaxProduct{}, Options{})))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%v\n%v", first, second)
	}
}

func TestRunLeavesInputUntouched(t *testing.T) {
	g := randomGraph(t, 3, 12, 20)
	nodes, edges := g.NodeCount(), g.EdgeCount()
	res := mustRun(t, New(g, nil, Options{}))
	if g.NodeCount() != nodes || g.EdgeCount() != edges {
		t.Errorf("input changed to %d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	}
	if res.Original.EdgeCount() != edges {
		t.Errorf("Original has %d edges, want %d", res.Original.EdgeCount(), edges)
	}
	if res.Ring.Name() != ring.NameMaxProduct || res.ProjectedType != DefaultProjectedType {
		t.Errorf("defaults = %s %s", res.Ring.Name(), res.ProjectedType)
	}
}

func TestSocialDropsResidualEntities(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	for _, x := range []string{"X1", "X2", "X3", "X4"} {
		f.node(x, "PHONE")
	}
	f.edge("a1", "A", "X1", 1)
	f.edge("12", "X1", "X2", 1)
	f.edge("13", "X1", "X3", 1)
	f.edge("14", "X1", "X4", 1)
	f.edge("23", "X2", "X3", 1)
	f.edge("24", "X2", "X4", 1)
	f.edge("34", "X3", "X4", 1)

	res := mustRun(t, New(f.g, ring.SumMax{}, Options{Check: true}))
	if res.Reduced.NodeCount() != 5 {
		t.Errorf("reduced nodes = %d, want the untouched component", res.Reduced.NodeCount())
	}
	social := res.Social()
	if social.NodeCount() != 1 || social.EdgeCount() != 0 {
		t.Errorf("social = %d nodes, %d edges; want 1, 0", social.NodeCount(), social.EdgeCount())
	}
	if res.Stats.PairsProcessed != 0 {
		t.Errorf("PairsProcessed = %d, want 0", res.Stats.PairsProcessed)
	}
}

func TestRunPathLimit(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	for _, x := range []string{"X1", "X2", "X3", "X4"} {
		f.node(x, "PHONE")
	}
	f.edge("a1", "A", "X1", 1)
	f.edge("a2", "A", "X2", 1)
	f.edge("b3", "B", "X3", 1)
	f.edge("b4", "B", "X4", 1)
	f.edge("12", "X1", "X2", 1)
	f.edge("13", "X1", "X3", 1)
	f.edge("14", "X1", "X4", 1)
	f.edge("23", "X2", "X3", 1)
	f.edge("24", "X2", "X4", 1)
	f.edge("34", "X3", "X4", 1)

	_, err := New(f.g, nil, Options{PathLimit: 1}).Run(context.Background())
	if !errors.Is(err, paths.ErrPathLimit) {
		t.Fatalf("error = %v, want ErrPathLimit", err)
	}

	res := mustRun(t, New(f.g, nil, Options{Check: true}))
	if res.Social().EdgeCount() != 1 {
		t.Errorf("social edges = %d, want 1", res.Social().EdgeCount())
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(randomGraph(t, 1, 8, 10), nil, Options{}).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

type recordingHooks struct {
	observability.NoopReductionHooks
	phases []string
}

func (h *recordingHooks) OnPhaseComplete(_ context.Context, phase string, _, _ int, _ time.Duration, err error) {
	if err == nil {
		h.phases = append(h.phases, phase)
	}
}

func TestRunPhaseSequence(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetReductionHooks(hooks)
	defer observability.Reset()

	res := mustRun(t, New(randomGraph(t, 5, 10, 16), nil, Options{}))
	want := []string{
		PhasePrune, PhaseMergeParallel, PhasePrune, PhaseContractDegree2,
		PhasePrune, PhaseContractSimplePaths, PhaseMergeParallel, PhasePrune,
	}
	if !reflect.DeepEqual(hooks.phases, want) {
		t.Errorf("phases = %v, want %v", hooks.phases, want)
	}
	if len(res.Stats.Phases) != len(want) {
		t.Errorf("Stats.Phases has %d entries, want %d", len(res.Stats.Phases), len(want))
	}
}

func TestCheckInvariantsDetectsTampering(t *testing.T) {
	f := newFixture(t)
	f.node("A", "PERSON")
	f.node("B", "PERSON")
	f.node("X", "PHONE")
	f.edge("ax", "A", "X", 2)
	f.edge("xb", "X", "B", 3)

	e := New(f.g, ring.SumMax{}, Options{})
	e.ContractDegree2()
	id := e.Graph().Edges()[0]
	e.Graph().SetWeight(id, 42)
	if err := e.CheckInvariants(); !errors.Is(err, ErrInvariant) {
		t.Errorf("error = %v, want ErrInvariant", err)
	}
}
