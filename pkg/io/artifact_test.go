package io

import (
	"bytes"
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

const artifactNodes = `id;type;label;icon
p1;PERSON;Alice;person
p2;PERSON;Bob;person
p3;PERSON;Carol;person
ph1;PHONE;;phone
car;CAR;;car
dead;ADDRESS;;home
`

const artifactEdges = `id;source;target;type;weight
e1;p1;ph1;OWNS;2
e2;ph1;p2;CALL;3
e3;ph1;p3;CALL;1
e4;p2;car;DRIVES;4
e5;car;p3;DRIVES;1
e6;p3;dead;LIVES;1
`

func reduceTables(t *testing.T) *reduce.Result {
	t.Helper()
	g, err := ReadGraph(strings.NewReader(artifactNodes), strings.NewReader(artifactEdges))
	if err != nil {
		t.Fatal(err)
	}
	res, err := reduce.New(g, ring.SumMax{}, reduce.Options{Check: true}).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return res
}

type edgeSummary struct {
	From, To string
	Weight   float64
	History  []string
	Compute  string
}

func summarize(g *mmg.Graph) []edgeSummary {
	var out []edgeSummary
	for _, id := range g.Edges() {
		e, _ := g.Edge(id)
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		out = append(out, edgeSummary{from.Key, to.Key, e.Weight, e.History, e.Compute.String()})
	}
	return out
}

func TestArtifactRoundTrip(t *testing.T) {
	res := reduceTables(t)
	a := NewArtifact(res)

	var buf bytes.Buffer
	if err := WriteArtifact(&buf, a); err != nil {
		t.Fatalf("WriteArtifact: %v", err)
	}
	got, err := ReadArtifact(&buf)
	if err != nil {
		t.Fatalf("ReadArtifact: %v", err)
	}

	if got.RunID != a.RunID {
		t.Errorf("RunID = %s, want %s", got.RunID, a.RunID)
	}
	if got.Result.Ring.Name() != ring.NameSumMax || got.Result.ProjectedType != "PERSON" {
		t.Errorf("ring/type = %s/%s", got.Result.Ring.Name(), got.Result.ProjectedType)
	}
	if !reflect.DeepEqual(summarize(got.Result.Reduced), summarize(res.Reduced)) {
		t.Errorf("reduced graph differs:\n%v\n%v", summarize(got.Result.Reduced), summarize(res.Reduced))
	}
	if !reflect.DeepEqual(summarize(got.Result.Original), summarize(res.Original)) {
		t.Error("original graph differs")
	}
	if !reflect.DeepEqual(got.Result.Discarded, res.Discarded) {
		t.Errorf("Discarded = %v, want %v", got.Result.Discarded, res.Discarded)
	}
	if !reflect.DeepEqual(got.Result.Discarded, []string{"e6"}) {
		t.Errorf("Discarded = %v, want [e6]", got.Result.Discarded)
	}
	if missing := got.Result.Coverage(); len(missing) != 0 {
		t.Errorf("Coverage() = %v", missing)
	}
	if got.Result.Stats.NodesContracted != res.Stats.NodesContracted {
		t.Errorf("stats lost: %+v", got.Result.Stats)
	}
}

func TestArtifactReweightAfterLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.json")
	if err := ExportArtifact(NewArtifact(reduceTables(t)), path); err != nil {
		t.Fatalf("ExportArtifact: %v", err)
	}
	a, err := ImportArtifact(path)
	if err != nil {
		t.Fatalf("ImportArtifact: %v", err)
	}

	if _, err := reduce.Reweight(a.Result, map[string]float64{"CALL": 10}); err != nil {
		t.Fatalf("Reweight: %v", err)
	}
	p1, _ := a.Result.Reduced.NodeByKey("p1")
	p2, _ := a.Result.Reduced.NodeByKey("p2")
	ids := a.Result.Reduced.EdgesBetween(p1, p2)
	if len(ids) != 1 {
		t.Fatalf("p1-p2 edges = %d, want 1", len(ids))
	}
	e, _ := a.Result.Reduced.Edge(ids[0])
	if e.Weight != 12 {
		t.Errorf("p1-p2 weight = %v, want 12", e.Weight)
	}
}

func TestReadArtifactErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  mmgerrors.Code
	}{
		{"not json", "{", mmgerrors.ErrCodeInvalidInput},
		{"version", `{"version": 9, "ring": "sum-max"}`, mmgerrors.ErrCodeUnsupported},
		{"ring", `{"version": 1, "ring": "min-plus"}`, mmgerrors.ErrCodeInvalidRing},
		{
			"dangling edge",
			`{"version": 1, "ring": "sum-max", "original": {"nodes": [{"id": "a", "type": "PERSON"}],
			  "edges": [{"id": "e", "source": "a", "target": "b", "weight": 1, "history": ["e"], "compute": {"op": "atomic", "id": "e"}}]}}`,
			mmgerrors.ErrCodeUnknownNode,
		},
		{
			"empty history",
			`{"version": 1, "ring": "sum-max", "original": {"nodes": [{"id": "a", "type": "PERSON"}],
			  "edges": [{"source": "a", "target": "a", "weight": 1, "history": [], "compute": {"op": "atomic", "id": "e"}}]}}`,
			mmgerrors.ErrCodeInvalidInput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadArtifact(strings.NewReader(tt.input))
			if !mmgerrors.Is(err, tt.code) {
				t.Errorf("error = %v, want %s", err, tt.code)
			}
		})
	}
}
