package io

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
)

// Table kinds, as reported in record errors.
const (
	TableNodes   = "nodes"
	TableEdges   = "edges"
	TableWeights = "weights"
)

// Delimiter separates the columns of every input table.
const Delimiter = ';'

var (
	nodeColumns   = []string{"id", "type"}
	edgeColumns   = []string{"id", "source", "target", "type", "weight"}
	weightColumns = []string{"type", "value"}
)

// row is one table record addressed by column name.
type row struct {
	line   int
	fields map[string]string
}

func (r row) get(col string) string { return r.fields[col] }

// readTable reads a delimited table with a header row and checks that every
// required column is present in the header and non-empty in each row.
func readTable(r io.Reader, table string, required []string) ([]row, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, mmgerrors.Record(table, 1, "", mmgerrors.ErrCodeInvalidInput, "missing header row")
	}
	if err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "%s table", table)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	for _, req := range required {
		found := false
		for _, c := range cols {
			if c == req {
				found = true
				break
			}
		}
		if !found {
			return nil, mmgerrors.Record(table, 1, req, mmgerrors.ErrCodeInvalidInput, "missing column %q", req)
		}
	}

	var rows []row
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "%s table", table)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rw := row{line: line, fields: make(map[string]string, len(cols))}
		for i, c := range cols {
			if i < len(rec) {
				rw.fields[c] = strings.TrimSpace(rec[i])
			}
		}
		for _, req := range required {
			if rw.fields[req] == "" {
				return nil, mmgerrors.Record(table, line, req, mmgerrors.ErrCodeInvalidInput, "missing required field")
			}
		}
		rows = append(rows, rw)
	}
}

// parseWeight parses a finite real weight.
func parseWeight(table string, line int, field, raw string) (float64, error) {
	w, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, mmgerrors.Record(table, line, field, mmgerrors.ErrCodeInvalidWeight, "%q is not a finite number", raw)
	}
	return w, nil
}

// ReadNodes reads a node table into a new graph.
func ReadNodes(r io.Reader) (*mmg.Graph, error) {
	rows, err := readTable(r, TableNodes, nodeColumns)
	if err != nil {
		return nil, err
	}
	g := mmg.New(nil)
	for _, rw := range rows {
		n := mmg.Node{
			Key:   rw.get("id"),
			Type:  rw.get("type"),
			Label: rw.get("label"),
			Icon:  rw.get("icon"),
		}
		if n.Label == "" {
			n.Label = n.Key
		}
		if _, err := g.AddNode(n); err != nil {
			if errors.Is(err, mmg.ErrDuplicateNodeKey) {
				return nil, mmgerrors.Record(TableNodes, rw.line, "id", mmgerrors.ErrCodeDuplicateID, "duplicate node id %q", n.Key)
			}
			return nil, mmgerrors.Record(TableNodes, rw.line, "", mmgerrors.ErrCodeInvalidInput, "%v", err)
		}
	}
	return g, nil
}

// ReadEdges reads an edge table and adds its edges to g, whose nodes must
// already be present. Every row is validated before the first edge is added.
func ReadEdges(g *mmg.Graph, r io.Reader) error {
	rows, err := readTable(r, TableEdges, edgeColumns)
	if err != nil {
		return err
	}

	edges := make([]mmg.Edge, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, rw := range rows {
		key := rw.get("id")
		if _, exists := g.EdgeByKey(key); exists || seen[key] {
			return mmgerrors.Record(TableEdges, rw.line, "id", mmgerrors.ErrCodeDuplicateID, "duplicate edge id %q", key)
		}
		seen[key] = true

		from, ok := g.NodeByKey(rw.get("source"))
		if !ok {
			return mmgerrors.Record(TableEdges, rw.line, "source", mmgerrors.ErrCodeUnknownNode, "unknown node %q", rw.get("source"))
		}
		to, ok := g.NodeByKey(rw.get("target"))
		if !ok {
			return mmgerrors.Record(TableEdges, rw.line, "target", mmgerrors.ErrCodeUnknownNode, "unknown node %q", rw.get("target"))
		}
		w, err := parseWeight(TableEdges, rw.line, "weight", rw.get("weight"))
		if err != nil {
			return err
		}

		e := mmg.Edge{Key: key, Type: rw.get("type"), From: from, To: to, Weight: w}
		if label := rw.get("label"); label != "" {
			e.Meta = mmg.Metadata{"label": label}
		}
		edges = append(edges, e)
	}

	for _, e := range edges {
		if _, err := g.AddEdge(e); err != nil {
			return mmgerrors.Wrap(mmgerrors.ErrCodeInternal, err, "add edge %q", e.Key)
		}
	}
	return nil
}

// ReadGraph reads a node table and an edge table into a new graph.
func ReadGraph(nodes, edges io.Reader) (*mmg.Graph, error) {
	g, err := ReadNodes(nodes)
	if err != nil {
		return nil, err
	}
	if err := ReadEdges(g, edges); err != nil {
		return nil, err
	}
	return g, nil
}

// ImportTables reads the node and edge tables at the given paths.
func ImportTables(nodePath, edgePath string) (*mmg.Graph, error) {
	nf, err := openFile(nodePath)
	if err != nil {
		return nil, err
	}
	defer nf.Close()
	ef, err := openFile(edgePath)
	if err != nil {
		return nil, err
	}
	defer ef.Close()
	return ReadGraph(nf, ef)
}

func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, mmgerrors.Wrap(mmgerrors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}
