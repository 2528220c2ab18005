package search

import (
	"context"

	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
)

// Repository defines the storage contract for listings.
type Repository interface {
	Find(ctx context.Context, q query.Query) ([]domrep.Report, error)
	Count(ctx context.Context, q query.Query) (int, error)
}

// SimilarityClient ranks candidate report IDs against an uploaded image.
type SimilarityClient interface {
	ReverseSearch(ctx context.Context, image []byte, ids []string) ([]string, error)
}
