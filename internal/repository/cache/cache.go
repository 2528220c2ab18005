// Package cache implements the cache-aside layer for listing and
// reverse-search responses.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/db"
)

// store is the consumer interface over the backing key-value store (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// Cache is a JSON cache-aside over a key-value store. A failing store never
// fails the caller: reads degrade to computing the value, writes are
// logged and dropped.
type Cache struct {
	store      store
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates the cache layer.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{store: s, cacheTotal: cacheTotal, logger: logger}
}

// Through returns the cached value under key, or computes, caches, and
// returns it. Values that compute to nil/empty JSON are returned but never
// cached, so transient empty results do not stick.
func Through[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, compute func(context.Context) (T, error)) (T, error) {
	var zero T

	if data, ok := c.get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			c.inc("hit")
			return v, nil
		}
		c.logger.Warn("Failed to decode cached value", zap.String("key", key))
		c.inc("error")
	} else {
		c.inc("miss")
	}

	v, err := compute(ctx)
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	if cacheable(data) {
		c.put(ctx, key, data, ttl)
	}
	return v, nil
}

// Put stores an already-computed value under key. Used when caching is
// conditional and decided by the caller.
func (c *Cache) Put(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	if cacheable(data) {
		c.put(ctx, key, data, ttl)
	}
}

// GetInto reads the cached value under key into v, reporting whether it was
// present and decodable.
func (c *Cache) GetInto(ctx context.Context, key string, v any) bool {
	data, ok := c.get(ctx, key)
	if !ok {
		c.inc("miss")
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Failed to decode cached value", zap.String("key", key))
		c.inc("error")
		return false
	}
	c.inc("hit")
	return true
}

// Invalidate removes cached entries. A key ending in "*" is treated as a
// pattern and expanded via SCAN; anything else is deleted directly.
func (c *Cache) Invalidate(ctx context.Context, keyOrPattern string) error {
	keys := []string{keyOrPattern}
	if len(keyOrPattern) > 0 && keyOrPattern[len(keyOrPattern)-1] == '*' {
		var err error
		keys, err = c.store.Scan(ctx, keyOrPattern)
		if err != nil {
			c.logger.Warn("Failed to scan cache pattern", zap.String("pattern", keyOrPattern), zap.Error(err))
			return err
		}
		if len(keys) == 0 {
			return nil
		}
	}
	return c.store.Del(ctx, keys...)
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to read cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (c *Cache) put(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if err := c.store.SetWithTTL(ctx, key, data, ttl); err != nil {
		c.logger.Warn("Failed to write cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheable rejects encodings of nil and empty composites.
func cacheable(data []byte) bool {
	switch string(data) {
	case "null", "[]", "{}", `""`:
		return false
	}
	return true
}
