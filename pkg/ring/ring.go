package ring

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
)

var (
	// ErrUnknownRing is returned by [ByName] when no ring is registered under
	// the requested name.
	ErrUnknownRing = errors.New("unknown ring")

	// ErrUnknownAtom is returned by [Evaluate] when an [Atomic] leaf has no
	// entry in the atomic value table.
	ErrUnknownAtom = errors.New("unknown weight id")

	// ErrWeightDomain is returned by [CheckWeight] for a weight the ring's
	// operators are not defined on.
	ErrWeightDomain = errors.New("weight outside ring domain")
)

// Ring is a pair of weight operators. Merge folds the weights of parallel
// edges, Contract folds the weights of edges chained along a path.
//
// Contract must be associative and commutative. Implementations receive at
// least one weight from the reduction engine; a single weight must be
// returned unchanged by both operators so that re-evaluating a one-child
// expression is exact.
type Ring interface {
	// Name is the identifier used by [ByName] and stored in artifacts.
	Name() string
	Merge(weights []float64) float64
	Contract(weights []float64) float64
}

// WeightChecker is implemented by rings whose operators accept only part of
// the real line.
type WeightChecker interface {
	CheckWeight(w float64) error
}

// CheckWeight returns an error wrapping [ErrWeightDomain] when r cannot fold
// w. Rings that do not implement [WeightChecker] accept every finite weight.
func CheckWeight(r Ring, w float64) error {
	if c, ok := r.(WeightChecker); ok {
		return c.CheckWeight(w)
	}
	return nil
}

// Ring names accepted by [ByName].
const (
	NameSumMax     = "sum-max"
	NameMaxProduct = "max-product"
)

// DefaultName is the ring used when configuration does not name one.
const DefaultName = NameMaxProduct

// SumMax contracts by summing and merges by keeping the maximum.
// The zero value is ready to use.
type SumMax struct{}

// Name implements [Ring].
func (SumMax) Name() string { return NameSumMax }

// Merge returns the largest weight, or -Inf for an empty slice.
func (SumMax) Merge(weights []float64) float64 { return maxOf(weights) }

// Contract returns the sum of the weights.
func (SumMax) Contract(weights []float64) float64 {
	if len(weights) == 1 {
		return weights[0]
	}
	var sum float64
	for _, w := range weights {
		sum += w
	}
	return sum
}

// MaxProduct contracts with exp(Σ log w), the product of the weights
// computed in the log domain, and merges by keeping the maximum. Weights are
// expected to be strictly positive; a non-positive weight makes Contract
// return 0 or NaN, as the logarithm dictates.
type MaxProduct struct{}

// Name implements [Ring].
func (MaxProduct) Name() string { return NameMaxProduct }

// CheckWeight implements [WeightChecker]. Only strictly positive weights
// have a logarithm.
func (MaxProduct) CheckWeight(w float64) error {
	if w > 0 {
		return nil
	}
	return fmt.Errorf("%w: %s needs positive weights, got %v", ErrWeightDomain, NameMaxProduct, w)
}

// Merge returns the largest weight, or -Inf for an empty slice.
func (MaxProduct) Merge(weights []float64) float64 { return maxOf(weights) }

// Contract returns exp of the summed logarithms.
func (MaxProduct) Contract(weights []float64) float64 {
	if len(weights) == 1 {
		return weights[0]
	}
	var logSum float64
	for _, w := range weights {
		logSum += math.Log(w)
	}
	return math.Exp(logSum)
}

func maxOf(weights []float64) float64 {
	if len(weights) == 0 {
		return math.Inf(-1)
	}
	return slices.Max(weights)
}

var registry = map[string]Ring{
	NameSumMax:     SumMax{},
	NameMaxProduct: MaxProduct{},
}

// ByName returns the ring registered under name. Matching ignores case and
// surrounding whitespace. An empty name selects [DefaultName].
func ByName(name string) (Ring, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = DefaultName
	}
	r, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (must be one of: %s)", ErrUnknownRing, name, strings.Join(Names(), ", "))
	}
	return r, nil
}

// Canonical returns the registered name of the ring selected by name, so
// that spellings accepted by [ByName] compare equal.
func Canonical(name string) (string, error) {
	r, err := ByName(name)
	if err != nil {
		return "", err
	}
	return r.Name(), nil
}

// Names returns the registered ring names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
