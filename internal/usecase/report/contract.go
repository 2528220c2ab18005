package report

import (
	"context"

	domrep "github.com/pawdex/pawdex/internal/domain/report"
)

// Repository defines the storage contract for ingest and retention.
type Repository interface {
	Insert(ctx context.Context, rep domrep.Report) error
	DeleteMany(ctx context.Context, ids []string) error
}

// DuplicateFinder flags likely re-submissions. It is advisory and never errors.
type DuplicateFinder interface {
	FindLikely(ctx context.Context, candidate domrep.Report) []domrep.Report
}

// Pipeline derives the rendition set from an uploaded image.
type Pipeline interface {
	Derive(ctx context.Context, reportID string, raw []byte) (domrep.Renditions, error)
}

// RenditionStore removes stored rendition files.
type RenditionStore interface {
	RemoveByPrefix(ctx context.Context, reportID string) error
}

// FeatureRegistrar hands report ids to the background registration worker.
type FeatureRegistrar interface {
	Enqueue(id string)
}

// FeatureRemover drops stored feature vectors from the similarity service.
type FeatureRemover interface {
	RemoveFeatures(ctx context.Context, ids []string) error
}

// CacheInvalidator removes cached entries by key or pattern.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, keyOrPattern string) error
}
