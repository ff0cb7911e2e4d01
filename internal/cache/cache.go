// Package cache provides the expiring key/value store used to cache rate
// and tracking responses. The store is optional: every caller treats read
// errors as misses and write errors as no-ops.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Store defines the caching operations this service needs. Implementations
// must be safe for concurrent use; callers issue independent get/set calls
// with no client-side locking (last write wins).
type Store interface {
	// Get retrieves a value by key. Returns ErrCacheMiss when absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key for exactly ttl. The value is replaced
	// atomically, never partially overwritten.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Close releases the underlying connection.
	Close() error
}
