package cache

import (
	"context"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/pawdex/pawdex/internal/db"
)

// MemoryStore is the in-process cache driver, backed by go-cache. It mirrors
// the Redis KV surface so the cache layer is driver-agnostic, but its
// invalidations only cover this instance.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates an in-process store; expired entries are swept
// every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

// Get returns the value under key or db.ErrKeyNotFound.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

// SetWithTTL stores value under key with an expiry.
func (m *MemoryStore) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.c.Set(key, value, ttl)
	return nil
}

// Del removes the given keys.
func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.c.Delete(k)
	}
	return nil
}

// Scan lists keys matching pattern. Only the trailing-asterisk prefix form
// used by the cache layer is supported; other patterns match exactly.
func (m *MemoryStore) Scan(_ context.Context, pattern string) ([]string, error) {
	prefix, wildcard := strings.CutSuffix(pattern, "*")

	var keys []string
	for k := range m.c.Items() {
		if wildcard && strings.HasPrefix(k, prefix) || !wildcard && k == pattern {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
