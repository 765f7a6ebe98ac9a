package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/titlerace/internal/domain/model"
	"github.com/okian/titlerace/internal/domain/types"
	"github.com/okian/titlerace/pkg/logger"
)

// Cache is the key-value surface CachedStore needs.
type Cache interface {
	// Get returns ErrCacheMiss when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
}

// RedisCache implements Cache over go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redisURL and pings it.
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Incr(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

// CachedStore is a read-through cache in front of another Store. Keys carry a
// generation number that SaveRun bumps, so a new run makes every older entry
// unreachable at once. Cache failures fall back to the inner store.
type CachedStore struct {
	inner  Store
	cache  Cache
	ttl    time.Duration
	prefix string
	logger logger.Logger
}

// NewCachedStore wraps inner with cache.
func NewCachedStore(inner Store, cache Cache, opts ...CacheOption) *CachedStore {
	c := &CachedStore{
		inner:  inner,
		cache:  cache,
		ttl:    5 * time.Minute,
		prefix: "titlerace:",
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("cache")
	}
	return c
}

func (c *CachedStore) generationKey() string { return c.prefix + "generation" }

func (c *CachedStore) key(ctx context.Context, name string) (string, bool) {
	gen := "0"
	b, err := c.cache.Get(ctx, c.generationKey())
	switch {
	case err == nil:
		gen = string(b)
	case !errors.Is(err, ErrCacheMiss):
		c.logger.Warn(ctx, "cache unavailable, reading through", logger.Error(err))
		return "", false
	}
	return c.prefix + gen + ":" + name, true
}

// through serves name from the cache or loads it with fetch and caches it.
func through[T any](ctx context.Context, c *CachedStore, name string, fetch func() (T, error)) (T, error) {
	key, ok := c.key(ctx, name)
	if ok {
		if b, err := c.cache.Get(ctx, key); err == nil {
			var v T
			if err := json.Unmarshal(b, &v); err == nil {
				return v, nil
			}
		}
	}
	v, err := fetch()
	if err != nil || !ok {
		return v, err
	}
	if b, err := json.Marshal(v); err == nil {
		if err := c.cache.Set(ctx, key, b, c.ttl); err != nil {
			c.logger.Warn(ctx, "cache write failed", logger.String("key", key), logger.Error(err))
		}
	}
	return v, nil
}

// SaveRun writes to the inner store, then invalidates the cache.
func (c *CachedStore) SaveRun(ctx context.Context, run Run) error {
	if err := c.inner.SaveRun(ctx, run); err != nil {
		return err
	}
	if _, err := c.cache.Incr(ctx, c.generationKey()); err != nil {
		c.logger.Warn(ctx, "cache invalidation failed", logger.Error(err))
	}
	return nil
}

func (c *CachedStore) Predictions(ctx context.Context, season int) (types.SeasonPredictions, error) {
	return through(ctx, c, "predictions:"+strconv.Itoa(model.SeasonYear(season)), func() (types.SeasonPredictions, error) {
		return c.inner.Predictions(ctx, season)
	})
}

func (c *CachedStore) Latest(ctx context.Context) (types.SeasonPredictions, error) {
	return through(ctx, c, "latest", func() (types.SeasonPredictions, error) {
		return c.inner.Latest(ctx)
	})
}

func (c *CachedStore) Seasons(ctx context.Context) ([]int, error) {
	return through(ctx, c, "seasons", func() ([]int, error) {
		return c.inner.Seasons(ctx)
	})
}

func (c *CachedStore) Historical(ctx context.Context) ([]types.HistoricalRecord, error) {
	return through(ctx, c, "historical", func() ([]types.HistoricalRecord, error) {
		return c.inner.Historical(ctx)
	})
}

func (c *CachedStore) Champion(ctx context.Context, season int) (types.HistoricalRecord, error) {
	return through(ctx, c, "champion:"+strconv.Itoa(model.SeasonYear(season)), func() (types.HistoricalRecord, error) {
		return c.inner.Champion(ctx, season)
	})
}

func (c *CachedStore) Teams(ctx context.Context) ([]model.Team, error) {
	return through(ctx, c, "teams", func() ([]model.Team, error) {
		return c.inner.Teams(ctx)
	})
}

func (c *CachedStore) Importance(ctx context.Context) ([]types.FeatureImportance, error) {
	return through(ctx, c, "importance", func() ([]types.FeatureImportance, error) {
		return c.inner.Importance(ctx)
	})
}

func (c *CachedStore) Stats(ctx context.Context) (types.RunStats, error) {
	return through(ctx, c, "stats", func() (types.RunStats, error) {
		return c.inner.Stats(ctx)
	})
}
