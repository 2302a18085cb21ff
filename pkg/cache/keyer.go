package cache

// ReductionKeyOpts holds the reduction settings that change the result.
type ReductionKeyOpts struct {
	ProjectedType string `json:"projected_type"`
	Ring          string `json:"ring"`
	PathLimit     int    `json:"path_limit"`
}

// Keyer derives cache keys.
type Keyer interface {
	// ReductionKey returns the key of a reduction over inputs whose content
	// hash is inputHash.
	ReductionKey(inputHash string, opts ReductionKeyOpts) string
}

// DefaultKeyer generates keys of the form "reduction:<sha256>".
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// ReductionKey implements [Keyer].
func (DefaultKeyer) ReductionKey(inputHash string, opts ReductionKeyOpts) string {
	return hashKey("reduction", inputHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, giving separate cache namespaces
// to different cases or analysts sharing one backend.
//
// Example usage:
//
//	caseKeyer := NewScopedKeyer(NewDefaultKeyer(), "case:2024-117:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ReductionKey generates a prefixed key for reduction caching.
func (k *ScopedKeyer) ReductionKey(inputHash string, opts ReductionKeyOpts) string {
	return k.prefix + k.inner.ReductionKey(inputHash, opts)
}
