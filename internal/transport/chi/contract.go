package chi

import (
	"context"

	"github.com/pawdex/pawdex/internal/domain/search/query"
	healthuc "github.com/pawdex/pawdex/internal/usecase/health"
	reportuc "github.com/pawdex/pawdex/internal/usecase/report"
	searchuc "github.com/pawdex/pawdex/internal/usecase/search"
)

// ReportService ingests submitted reports.
type ReportService interface {
	Create(ctx context.Context, in reportuc.CreateInput) (reportuc.CreateResult, error)
}

// SearchService serves listing pages and reverse image searches.
type SearchService interface {
	List(ctx context.Context, q query.Query) (searchuc.ListResult, error)
	Reverse(ctx context.Context, city string, image []byte) (searchuc.ReverseResult, error)
}

// HealthService reports component readiness.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}
