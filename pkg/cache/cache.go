// Package cache stores encoded reduction artifacts keyed by their inputs.
//
// A reduction is a pure function of the node and edge tables, the projected
// type, the ring and the path limit. [Keyer.ReductionKey] hashes those inputs
// into a key, and the pipeline stores the JSON artifact under it so a
// repeated run over the same tables returns immediately.
//
// # Backends
//
//   - [NullCache]: stores nothing; caching disabled
//   - [FileCache]: one JSON file per entry under a local directory
//   - [RedisCache]: a shared Redis instance, for teams reducing the same
//     case data on several machines
//
// All backends treat an expired or undecodable entry as a miss.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry expiry.
type Cache interface {
	// Get returns the data stored under key. A miss is reported with
	// hit == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of zero means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the cache.
	Close() error
}

// Clearer is implemented by caches that can drop every entry at once.
type Clearer interface {
	Clear(ctx context.Context) error
}

// TTLReduction is how long a reduction artifact stays cached.
const TTLReduction = 7 * 24 * time.Hour
