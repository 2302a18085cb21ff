package io

import (
	"fmt"
	"io"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	mmgerrors "github.com/matzehuels/mmgreduce/pkg/errors"
	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// ReadWeightTable reads a type;value table mapping edge types to weights.
func ReadWeightTable(r io.Reader) (map[string]float64, error) {
	rows, err := readTable(r, TableWeights, weightColumns)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, rw := range rows {
		typ := rw.get("type")
		if _, dup := out[typ]; dup {
			return nil, mmgerrors.Record(TableWeights, rw.line, "type", mmgerrors.ErrCodeDuplicateID, "duplicate type %q", typ)
		}
		w, err := parseWeight(TableWeights, rw.line, "value", rw.get("value"))
		if err != nil {
			return nil, err
		}
		out[typ] = w
	}
	return out, nil
}

type weightDoc struct {
	Weights map[string]float64 `toml:"weights"`
}

// ReadWeightTOML reads the [weights] table of a TOML document.
func ReadWeightTOML(r io.Reader) (map[string]float64, error) {
	var doc weightDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, mmgerrors.Wrap(mmgerrors.ErrCodeInvalidInput, err, "decode weights")
	}
	if doc.Weights == nil {
		return nil, mmgerrors.New(mmgerrors.ErrCodeInvalidInput, "no [weights] table")
	}
	return doc.Weights, ValidateWeights(doc.Weights)
}

// ValidateWeights checks that every type name is usable and every weight is
// finite.
func ValidateWeights(weights map[string]float64) error {
	for typ, w := range weights {
		if err := mmgerrors.ValidateTypeName(typ); err != nil {
			return err
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return mmgerrors.New(mmgerrors.ErrCodeInvalidWeight, "weight of %s is not finite", typ)
		}
	}
	return nil
}

// ValidateWeightsFor runs [ValidateWeights] and then checks every weight
// against the domain of rg. Types are checked in sorted order.
func ValidateWeightsFor(weights map[string]float64, rg ring.Ring) error {
	if err := ValidateWeights(weights); err != nil {
		return err
	}
	types := make([]string, 0, len(weights))
	for typ := range weights {
		types = append(types, typ)
	}
	slices.Sort(types)
	for _, typ := range types {
		if err := ring.CheckWeight(rg, weights[typ]); err != nil {
			return mmgerrors.Wrap(mmgerrors.ErrCodeInvalidWeight, err, "weight of %s: %v", typ, err)
		}
	}
	return nil
}

// CheckGraphWeights checks the weight of every original edge of g against
// the domain of rg. The error names the first offending edge in handle
// order.
func CheckGraphWeights(g *mmg.Graph, rg ring.Ring) error {
	for _, id := range g.Edges() {
		ed, _ := g.Edge(id)
		if !ed.IsOriginal() {
			continue
		}
		if err := ring.CheckWeight(rg, ed.Weight); err != nil {
			return mmgerrors.Wrap(mmgerrors.ErrCodeInvalidWeight, err, "edge %q: %v", ed.Key, err)
		}
	}
	return nil
}

// ImportWeights reads a weight table from path. Files ending in .toml are
// read with [ReadWeightTOML], anything else with [ReadWeightTable].
func ImportWeights(path string) (map[string]float64, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		w, err := ReadWeightTOML(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return w, nil
	}
	w, err := ReadWeightTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}
