// Package report persists reports as Redis hashes behind an FT.SEARCH
// index and translates listing queries into FT query strings.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/pawdex/pawdex/internal/db"
)

const (
	// KeyPrefix is the hash key prefix for report records.
	KeyPrefix = "pawdex:report:"
	// IndexName is the FT index over report records.
	IndexName = "pawdex:idx:reports"
)

// indexDefinition describes the report index schema. created_at is SORTABLE
// because every listing is ordered by recency.
func indexDefinition() *db.IndexDefinition {
	return db.NewIndex(IndexName).
		Prefix(KeyPrefix).
		Tag("id").
		Tag("kind").
		Text("city").
		Tag("phone").
		Geo("location").
		NumericSortable("created_at").
		MustBuild()
}

// EnsureIndex creates the report index if it does not exist yet.
func EnsureIndex(ctx context.Context, im db.IndexManager) error {
	err := im.CreateIndex(ctx, indexDefinition())
	if err != nil && !errors.Is(err, db.ErrIndexExists) {
		return fmt.Errorf("create report index: %w", err)
	}
	return nil
}
