// Package cache provides the translation-memory cache: identical source
// strings translated under identical rules are served from cache instead of
// re-asking the LLM. Backends are pluggable; all implementations must be
// thread-safe.
package cache

import (
	"context"
	"time"
)

// Cache is the backend interface. Values are []byte so in-memory and Redis
// backends are interchangeable.
type Cache interface {
	// Get returns the value, or ErrCacheMiss when absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL; 0 means the default TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// Stats are hit/miss counters for observability.
type Stats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// StatsProvider is an optional interface for backends that count.
type StatsProvider interface {
	Stats() Stats
}

// Error is a typed cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)
