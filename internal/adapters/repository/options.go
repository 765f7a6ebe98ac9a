package repository

import (
	"time"

	"github.com/okian/titlerace/pkg/logger"
)

// CacheOption configures a CachedStore.
type CacheOption func(*CachedStore)

// WithTTL sets how long cached reads live.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *CachedStore) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithKeyPrefix namespaces every cache key.
func WithKeyPrefix(prefix string) CacheOption {
	return func(c *CachedStore) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(l logger.Logger) CacheOption {
	return func(c *CachedStore) {
		if l != nil {
			c.logger = l
		}
	}
}
