package ring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Kind tags the variant held by an [Expr].
type Kind uint8

const (
	// KindAtomic is a leaf naming an original edge.
	KindAtomic Kind = iota
	// KindMerge folds its children with [Ring.Merge].
	KindMerge
	// KindContract folds its children with [Ring.Contract].
	KindContract
)

var kindNames = map[Kind]string{
	KindAtomic:   "atomic",
	KindMerge:    "merge",
	KindContract: "contract",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// ErrMalformedExpr is returned when decoding an expression that is not a
// well-formed tree.
var ErrMalformedExpr = errors.New("malformed expression")

// Expr is the compute-history of an edge weight. Atomic leaves carry the
// identity of an original edge; Merge and Contract nodes carry children.
//
// The zero value is an Atomic leaf with an empty id and is not meaningful.
type Expr struct {
	Kind     Kind
	ID       string // set for KindAtomic only
	Children []Expr // set for KindMerge and KindContract only
}

// Atomic returns a leaf expression for the original edge id.
func Atomic(id string) Expr { return Expr{Kind: KindAtomic, ID: id} }

// Merge returns a merge node over children.
func Merge(children ...Expr) Expr { return Expr{Kind: KindMerge, Children: children} }

// Contract returns a contraction node over children. A single child is
// returned as is: contracting one edge does not change its weight, so no
// wrapper is recorded.
func Contract(children ...Expr) Expr {
	if len(children) == 1 {
		return children[0]
	}
	return Expr{Kind: KindContract, Children: children}
}

// IsAtomic reports whether e is a leaf.
func (e Expr) IsAtomic() bool { return e.Kind == KindAtomic }

// Atoms returns the leaf ids in left-to-right order. An id appears as many
// times as it occurs in the tree.
func (e Expr) Atoms() []string {
	var out []string
	var walk func(Expr)
	walk = func(x Expr) {
		if x.IsAtomic() {
			out = append(out, x.ID)
			return
		}
		for _, c := range x.Children {
			walk(c)
		}
	}
	walk(e)
	return out
}

// String renders e in the compact form M(a;b) / C(a;b).
func (e Expr) String() string {
	var sb strings.Builder
	e.write(&sb)
	return sb.String()
}

func (e Expr) write(sb *strings.Builder) {
	switch e.Kind {
	case KindAtomic:
		sb.WriteString(e.ID)
		return
	case KindMerge:
		sb.WriteString("M(")
	case KindContract:
		sb.WriteString("C(")
	}
	for i, c := range e.Children {
		if i > 0 {
			sb.WriteByte(';')
		}
		c.write(sb)
	}
	sb.WriteByte(')')
}

// Equal reports whether two expressions have the same shape and leaves.
func (e Expr) Equal(o Expr) bool {
	if e.Kind != o.Kind || e.ID != o.ID || len(e.Children) != len(o.Children) {
		return false
	}
	for i := range e.Children {
		if !e.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Evaluate recomputes the weight described by e using r and the weights of
// original edges in atomic. It returns an error wrapping [ErrUnknownAtom]
// if a leaf id is missing from atomic.
func Evaluate(r Ring, e Expr, atomic map[string]float64) (float64, error) {
	switch e.Kind {
	case KindAtomic:
		w, ok := atomic[e.ID]
		if !ok {
			return 0, fmt.Errorf("%w: %q", ErrUnknownAtom, e.ID)
		}
		return w, nil
	case KindMerge, KindContract:
		ws := make([]float64, len(e.Children))
		for i, c := range e.Children {
			w, err := Evaluate(r, c, atomic)
			if err != nil {
				return 0, err
			}
			ws[i] = w
		}
		if e.Kind == KindMerge {
			return r.Merge(ws), nil
		}
		return r.Contract(ws), nil
	default:
		return 0, fmt.Errorf("%w: kind %v", ErrMalformedExpr, e.Kind)
	}
}

type exprJSON struct {
	Op   string `json:"op"`
	ID   string `json:"id,omitempty"`
	Args []Expr `json:"args,omitempty"`
}

// MarshalJSON encodes e as a nested object:
//
//	{"op":"contract","args":[{"op":"atomic","id":"e1"},{"op":"atomic","id":"e2"}]}
func (e Expr) MarshalJSON() ([]byte, error) {
	op, ok := kindNames[e.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %v", ErrMalformedExpr, e.Kind)
	}
	return json.Marshal(exprJSON{Op: op, ID: e.ID, Args: e.Children})
}

// UnmarshalJSON decodes the form written by [Expr.MarshalJSON].
func (e *Expr) UnmarshalJSON(data []byte) error {
	var raw exprJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Op {
	case "atomic":
		if raw.ID == "" || len(raw.Args) > 0 {
			return fmt.Errorf("%w: atomic needs an id and no args", ErrMalformedExpr)
		}
		*e = Atomic(raw.ID)
	case "merge", "contract":
		if len(raw.Args) == 0 {
			return fmt.Errorf("%w: %s without args", ErrMalformedExpr, raw.Op)
		}
		kind := KindMerge
		if raw.Op == "contract" {
			kind = KindContract
		}
		*e = Expr{Kind: kind, Children: raw.Args}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrMalformedExpr, raw.Op)
	}
	return nil
}
