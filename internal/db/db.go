// Package db defines the storage facade over Redis: hashes for report
// records, an FT.SEARCH index for querying them, and a plain KV surface
// used by the cache-aside layer.
package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
// Consumers depend on the narrow sub-interfaces, never on Store itself.
type Store interface {
	Pinger
	HashStore
	KVStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HashStore provides hash-based record operations.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// KVStore provides simple key-value operations with TTL support.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides paginated queries over FT indexes.
type Searcher interface {
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// ListQuery is a paginated, optionally sorted FT.SEARCH request.
type ListQuery struct {
	IndexName string
	Query     string // FT query string, "*" for all
	Offset    int
	Limit     int
	SortBy    string // field name, empty = index order
	SortDesc  bool
	Fields    []string // RETURN fields, empty = full record
}

// SearchEntry is one record returned by FT.SEARCH.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}

// SearchResult holds FT.SEARCH output: the total match count plus one page.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}
