package reduce

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/mmgreduce/pkg/mmg"
	"github.com/matzehuels/mmgreduce/pkg/ring"
)

// Reweight assigns new weights to the original edges of res by edge type and
// recomputes every reduced edge from its compute expression. Edge types
// missing from table keep their weight.
//
// Either every weight is updated or, on error, none is. An error wraps
// [ring.ErrUnknownAtom] when a reduced edge refers to an original edge that
// res.Original does not hold.
func Reweight(res *Result, table map[string]float64) (int, error) {
	atomic := make(map[string]float64)
	originals := make(map[mmg.EdgeID]float64)
	for _, id := range res.Original.Edges() {
		ed, _ := res.Original.Edge(id)
		if !ed.IsOriginal() {
			continue
		}
		w := ed.Weight
		if tw, ok := table[ed.Type]; ok {
			w = tw
			originals[id] = tw
		}
		atomic[ed.Key] = w
	}

	reduced := make(map[mmg.EdgeID]float64)
	for _, id := range res.Reduced.Edges() {
		ed, _ := res.Reduced.Edge(id)
		w, err := ring.Evaluate(res.Ring, ed.Compute, atomic)
		if err != nil {
			return 0, fmt.Errorf("edge %s: %w", id, err)
		}
		reduced[id] = w
	}

	for id, w := range originals {
		res.Original.SetWeight(id, w)
	}
	changed := 0
	for id, w := range reduced {
		ed, _ := res.Reduced.Edge(id)
		if !sameWeight(ed.Weight, w) {
			changed++
		}
		res.Reduced.SetWeight(id, w)
	}
	return changed, nil
}

// TypeWeight summarizes the weights of the original edges of one type.
type TypeWeight struct {
	Type  string
	Min   float64
	Max   float64
	Edges int
}

// TypeWeights reports, per edge type, the weight range of the original
// edges of res, ordered by descending maximum weight and then by type. After
// a [Reweight] that names a type, Min and Max of that type are equal.
func TypeWeights(res *Result) []TypeWeight {
	byType := make(map[string]*TypeWeight)
	for _, id := range res.Original.Edges() {
		ed, _ := res.Original.Edge(id)
		if !ed.IsOriginal() {
			continue
		}
		tw, ok := byType[ed.Type]
		if !ok {
			tw = &TypeWeight{Type: ed.Type, Min: ed.Weight, Max: ed.Weight}
			byType[ed.Type] = tw
		}
		tw.Min = min(tw.Min, ed.Weight)
		tw.Max = max(tw.Max, ed.Weight)
		tw.Edges++
	}

	out := make([]TypeWeight, 0, len(byType))
	for _, tw := range byType {
		out = append(out, *tw)
	}
	slices.SortFunc(out, func(a, b TypeWeight) int {
		if c := cmp.Compare(b.Max, a.Max); c != 0 {
			return c
		}
		return strings.Compare(a.Type, b.Type)
	})
	return out
}
