package cache

import (
	"context"
	"time"
)

// NullCache stands in when reductions must not be cached: the none backend,
// the CLI's --no-cache flag, or a file backend without a directory. Every
// lookup misses and every write is dropped. Reason says which case applies.
type NullCache struct {
	Reason string
}

// NewNullCache returns a cache that stores nothing. The reason is reported
// by [NullCache.String].
func NewNullCache(reason string) Cache {
	return &NullCache{Reason: reason}
}

// Get reports a miss.
func (c *NullCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set drops data.
func (c *NullCache) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

func (c *NullCache) Delete(context.Context, string) error { return nil }

// Clear implements [Clearer]; there is nothing to remove.
func (c *NullCache) Clear(context.Context) error { return nil }

func (c *NullCache) Close() error { return nil }

// String describes why caching is off.
func (c *NullCache) String() string {
	if c.Reason == "" {
		return "caching disabled"
	}
	return "caching disabled: " + c.Reason
}

var (
	_ Cache   = (*NullCache)(nil)
	_ Clearer = (*NullCache)(nil)
)
