// Package cache stores consistency check results between runs.
//
// A [Cache] maps string keys to opaque bytes with an optional time to live.
// Keys are produced by a [Keyer] from a hash of the canonical knowledge
// base and the check options, so that equal questions share an answer.
//
// Backends:
//   - [FileCache] for the CLI, under the XDG cache directory
//   - [RedisCache] for the HTTP API, shared between replicas
//   - [NullCache] when caching is disabled
package cache

import (
	"context"
	"time"
)

// Cache is a key-value store for serialized results.
type Cache interface {
	// Get returns the value for key and whether it was found. A missing or
	// expired entry is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the backend's resources.
	Close() error
}

// TTLResult is how long check results are kept. Results only depend on the
// knowledge base and options, so they never go stale; the limit bounds
// storage.
const TTLResult = 30 * 24 * time.Hour
