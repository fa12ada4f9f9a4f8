// Package cache provides the caching layer for hot read paths: public
// page content and the current intake snapshot. Backends are an
// in-memory store or Redis, selected by configuration.
package cache

import (
	"context"
	"time"
)

// Cacher is the interface all cache backends implement. Values are raw
// bytes so the same backend serves JSON documents and plain strings.
// Implementations must be safe for concurrent use.
type Cacher interface {
	// Get returns the cached value, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value. A zero TTL means the backend's default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries owned by this cache.
	Clear(ctx context.Context) error

	// Close releases any resources held by the cache.
	Close() error
}

// Stats describes cache hit/miss counters.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Items  int   `json:"items"`
}

// StatsProvider is an optional interface for backends that track stats.
type StatsProvider interface {
	Stats() Stats
}

// Error is a sentinel error type for cache operations.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
