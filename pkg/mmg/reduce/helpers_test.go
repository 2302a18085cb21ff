package reduce

import (
	"context"
	"fmt"
	"math/rand"
	"testing"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
)

type fixture struct {
	t *testing.T
	g *mmg.Graph
}

func newFixture(t *testing.T) *fixture { return &fixture{t: t, g: mmg.New(nil)} }

func (f *fixture) node(key, typ string) mmg.NodeID {
	f.t.Helper()
	id, err := f.g.AddNode(mmg.Node{Key: key, Type: typ})
	if err != nil {
		f.t.Fatalf("AddNode(%s): %v", key, err)
	}
	return id
}

func (f *fixture) edge(key, from, to string, w float64) mmg.EdgeID {
	f.t.Helper()
	return f.typed(key, "LINK", from, to, w)
}

func (f *fixture) typed(key, typ, from, to string, w float64) mmg.EdgeID {
	f.t.Helper()
	a, ok := f.g.NodeByKey(from)
	if !ok {
		f.t.Fatalf("unknown node %s", from)
	}
	b, ok := f.g.NodeByKey(to)
	if !ok {
		f.t.Fatalf("unknown node %s", to)
	}
	id, err := f.g.AddEdge(mmg.Edge{Key: key, Type: typ, From: a, To: b, Weight: w})
	if err != nil {
		f.t.Fatalf("AddEdge(%s): %v", key, err)
	}
	return id
}

// between returns the single edge joining two keyed nodes of g.
func between(t *testing.T, g *mmg.Graph, a, b string) mmg.Edge {
	t.Helper()
	u, _ := g.NodeByKey(a)
	v, _ := g.NodeByKey(b)
	ids := g.EdgesBetween(u, v)
	if len(ids) != 1 {
		t.Fatalf("edges between %s and %s = %d, want 1", a, b, len(ids))
	}
	ed, _ := g.Edge(ids[0])
	return ed
}

// randomGraph builds a reproducible graph mixing projected and other types,
// with parallel edges and the occasional self-loop.
func randomGraph(t *testing.T, seed int64, nodes, edges int) *mmg.Graph {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	types := []string{"PERSON", "PHONE", "CAR", "ADDRESS"}
	g := mmg.New(nil)
	ids := make([]mmg.NodeID, nodes)
	for i := range ids {
		id, err := g.AddNode(mmg.Node{Key: fmt.Sprintf("n%d", i), Type: types[rng.Intn(len(types))]})
		if err != nil {
			t.Fatal(err)
		}
		ids[i] = id
	}
	for i := 0; i < edges; i++ {
		a := ids[rng.Intn(nodes)]
		b := ids[rng.Intn(nodes)]
		if a == b && rng.Intn(4) != 0 {
			b = ids[(int(a.Index)+1)%nodes]
		}
		_, err := g.AddEdge(mmg.Edge{
			Key:    fmt.Sprintf("e%d", i),
			Type:   types[rng.Intn(len(types))] + "_LINK",
			From:   a,
			To:     b,
			Weight: 0.1 + 0.9*rng.Float64(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func mustRun(t *testing.T, e *Engine) *Result {
	t.Helper()
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return res
}
