package duplicate

import (
	"context"

	"github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
)

// Repository defines the storage contract for duplicate detection.
type Repository interface {
	Find(ctx context.Context, q query.Query) ([]report.Report, error)
}
