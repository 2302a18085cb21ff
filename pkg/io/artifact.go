package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/mmg/reduce"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// ArtifactVersion is the artifact format written by [WriteArtifact].
const ArtifactVersion = 1

// Artifact is a persisted reduction run.
type Artifact struct {
	RunID     uuid.UUID
	CreatedAt time.Time
	Result    *reduce.Result
}

// NewArtifact wraps res with a fresh run id.
func NewArtifact(res *reduce.Result) *Artifact {
	return &Artifact{RunID: uuid.New(), CreatedAt: time.Now().UTC(), Result: res}
}

type artifactJSON struct {
	Version       int        `json:"version"`
	RunID         uuid.UUID  `json:"run_id"`
	CreatedAt     time.Time  `json:"created_at"`
	ProjectedType string     `json:"projected_type"`
	Ring          string     `json:"ring"`
	Original      graphJSON  `json:"original"`
	Reduced       graphJSON  `json:"reduced"`
	Discarded     []string   `json:"discarded"`
	Stats         *statsJSON `json:"stats,omitempty"`
}

type graphJSON struct {
	Nodes []nodeJSON `json:"nodes"`
	Edges []edgeJSON `json:"edges"`
}

type nodeJSON struct {
	ID    string       `json:"id"`
	Type  string       `json:"type"`
	Label string       `json:"label,omitempty"`
	Icon  string       `json:"icon,omitempty"`
	Meta  mmg.Metadata `json:"meta,omitempty"`
}

type edgeJSON struct {
	ID      string       `json:"id,omitempty"`
	Source  string       `json:"source"`
	Target  string       `json:"target"`
	Type    string       `json:"type,omitempty"`
	Weight  float64      `json:"weight"`
	History []string     `json:"history"`
	Compute ring.Expr    `json:"compute"`
	Meta    mmg.Metadata `json:"meta,omitempty"`
}

type statsJSON struct {
	NodesPruned     int   `json:"nodes_pruned"`
	ClassesMerged   int   `json:"classes_merged"`
	NodesContracted int   `json:"nodes_contracted"`
	PairsProcessed  int   `json:"pairs_processed"`
	PathsEnumerated int   `json:"paths_enumerated"`
	PathsSelected   int   `json:"paths_selected"`
	DurationMS      int64 `json:"duration_ms"`
}

func encodeGraph(g *mmg.Graph) graphJSON {
	out := graphJSON{Nodes: []nodeJSON{}, Edges: []edgeJSON{}}
	for _, id := range g.Nodes() {
		n, _ := g.Node(id)
		out.Nodes = append(out.Nodes, nodeJSON{ID: n.Key, Type: n.Type, Label: n.Label, Icon: n.Icon, Meta: n.Meta})
	}
	for _, id := range g.Edges() {
		e, _ := g.Edge(id)
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		out.Edges = append(out.Edges, edgeJSON{
			ID:      e.Key,
			Source:  from.Key,
			Target:  to.Key,
			Type:    e.Type,
			Weight:  e.Weight,
			History: e.History,
			Compute: e.Compute,
			Meta:    e.Meta,
		})
	}
	return out
}

func decodeGraph(which string, in graphJSON) (*mmg.Graph, error) {
	g := mmg.New(nil)
	for i, n := range in.Nodes {
		if _, err := g.AddNode(mmg.Node{Key: n.ID, Type: n.Type, Label: n.Label, Icon: n.Icon, Meta: n.Meta}); err != nil {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "%s node %d", which, i)
		}
	}
	for i, e := range in.Edges {
		from, ok := g.NodeByKey(e.Source)
		if !ok {
			return nil, mmgerrors.New(mmgerrors.ErrCodeUnknownNode, "%s edge %d: unknown node %q", which, i, e.Source)
		}
		to, ok := g.NodeByKey(e.Target)
		if !ok {
			return nil, mmgerrors.New(mmgerrors.ErrCodeUnknownNode, "%s edge %d: unknown node %q", which, i, e.Target)
		}
		if len(e.History) == 0 {
			return nil, mmgerrors.New(mmgerrors.ErrCodeInvalidInput, "%s edge %d: empty history", which, i)
		}
		_, err := g.AddEdge(mmg.Edge{
			Key:     e.ID,
			Type:    e.Type,
			From:    from,
			To:      to,
			Weight:  e.Weight,
			History: e.History,
			Compute: e.Compute,
			Meta:    e.Meta,
		})
		if err != nil {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "%s edge %d", which, i)
		}
	}
	return g, nil
}

// WriteArtifact encodes a as JSON and writes it to w. Weights must be finite.
func WriteArtifact(w io.Writer, a *Artifact) error {
	res := a.Result
	discarded := res.Discarded
	if discarded == nil {
		discarded = []string{}
	}
	out := artifactJSON{
		Version:       ArtifactVersion,
		RunID:         a.RunID,
		CreatedAt:     a.CreatedAt,
		ProjectedType: res.ProjectedType,
		Ring:          res.Ring.Name(),
		Original:      encodeGraph(res.Original),
		Reduced:       encodeGraph(res.Reduced),
		Discarded:     discarded,
		Stats: &statsJSON{
			NodesPruned:     res.Stats.NodesPruned,
			ClassesMerged:   res.Stats.ClassesMerged,
			NodesContracted: res.Stats.NodesContracted,
			PairsProcessed:  res.Stats.PairsProcessed,
			PathsEnumerated: res.Stats.PathsEnumerated,
			PathsSelected:   res.Stats.PathsSelected,
			DurationMS:      res.Stats.Total.Milliseconds(),
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadArtifact decodes an artifact written by [WriteArtifact].
func ReadArtifact(r io.Reader) (*Artifact, error) {
	var in artifactJSON
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "decode artifact")
	}
	if in.Version != ArtifactVersion {
		return nil, mmgerrors.New(mmgerrors.ErrCodeUnsupported, "artifact version %d (want %d)", in.Version, ArtifactVersion)
	}
	rg, err := ring.ByName(in.Ring)
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidRing, err, "artifact ring")
	}
	original, err := decodeGraph("original", in.Original)
	if err != nil {
		return nil, err
	}
	reduced, err := decodeGraph("reduced", in.Reduced)
	if err != nil {
		return nil, err
	}

	res := &reduce.Result{
		Original:      original,
		Reduced:       reduced,
		Ring:          rg,
		ProjectedType: in.ProjectedType,
		Discarded:     in.Discarded,
	}
	if s := in.Stats; s != nil {
		res.Stats = reduce.Stats{
			NodesPruned:     s.NodesPruned,
			ClassesMerged:   s.ClassesMerged,
			NodesContracted: s.NodesContracted,
			PairsProcessed:  s.PairsProcessed,
			PathsEnumerated: s.PathsEnumerated,
			PathsSelected:   s.PathsSelected,
			Total:           time.Duration(s.DurationMS) * time.Millisecond,
		}
	}
	return &Artifact{RunID: in.RunID, CreatedAt: in.CreatedAt, Result: res}, nil
}

// MarshalArtifact returns the JSON encoding of a.
func MarshalArtifact(a *Artifact) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteArtifact(&buf, a); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalArtifact decodes an artifact from data.
func UnmarshalArtifact(data []byte) (*Artifact, error) {
	return ReadArtifact(bytes.NewReader(data))
}

// ExportArtifact writes a to a JSON file at path.
// This is a convenience wrapper around [WriteArtifact] for file-based output.
func ExportArtifact(a *Artifact, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteArtifact(f, a); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportArtifact reads an artifact from the JSON file at path.
func ImportArtifact(path string) (*Artifact, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadArtifact(f)
}
