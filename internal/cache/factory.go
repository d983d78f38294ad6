package cache

import "time"

// Config selects and sizes the cache backend.
type Config struct {
	// RedisURL switches the backend to Redis when non-empty.
	RedisURL string

	// Prefix namespaces Redis keys, e.g. "glotframe:".
	Prefix string

	// DefaultTTL is how long translation-memory entries live.
	DefaultTTL time.Duration

	// MaxSize bounds the in-memory backend (0 = unlimited).
	MaxSize int

	// CleanupInterval is the expired-entry sweep period for the in-memory
	// backend.
	CleanupInterval time.Duration
}

// DefaultConfig returns the defaults: in-memory, 24h TTL.
func DefaultConfig() Config {
	return Config{
		Prefix:          "glotframe:",
		DefaultTTL:      24 * time.Hour,
		MaxSize:         10000,
		CleanupInterval: time.Minute,
	}
}

// New creates a cache from the config, choosing Redis when configured.
func New(cfg Config) (Cache, error) {
	if cfg.RedisURL != "" {
		return NewRedisCache(RedisOptions{
			URL:        cfg.RedisURL,
			Prefix:     cfg.Prefix,
			DefaultTTL: cfg.DefaultTTL,
		})
	}
	return NewMemoryCache(MemoryOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	}), nil
}
