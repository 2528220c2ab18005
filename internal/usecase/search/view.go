package search

import (
	"time"

	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/page"
)

// Images is the rendition reference set in API form.
type Images struct {
	Thumbnail string `json:"thumbnail"`
	Medium    string `json:"medium"`
	Large     string `json:"large"`
}

// ReportView is the serializable API form of a report. It doubles as the
// cached representation of listing and reverse-search pages.
type ReportView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	City        string    `json:"city"`
	Description string    `json:"description"`
	Phone       string    `json:"phone"`
	GPSLocation geo.Point `json:"gpsLocation"`
	Images      Images    `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListResult is one page of a listing.
type ListResult struct {
	Searches   []ReportView  `json:"searches"`
	Pagination page.Envelope `json:"pagination"`
}

// Reverse-search method labels.
const (
	MethodAISimilarity = "ai_similarity"
	MethodCityFallback = "city_fallback"
)

// ReverseResult is a reverse-search response. SearchMethod tells the client
// whether AI similarity ran or the city fallback served the page;
// HasAIResults distinguishes "AI ran and found nothing" from "AI matched".
type ReverseResult struct {
	Searches     []ReportView  `json:"searches"`
	Pagination   page.Envelope `json:"pagination"`
	SearchMethod string        `json:"searchMethod"`
	HasAIResults bool          `json:"hasAIResults"`
}

// NewReportView converts a domain report to its API form.
func NewReportView(r domrep.Report) ReportView {
	ren := r.Renditions()
	return ReportView{
		ID:          r.ID(),
		Type:        string(r.Kind()),
		City:        r.City(),
		Description: r.Description(),
		Phone:       r.Phone(),
		GPSLocation: r.Location(),
		Images: Images{
			Thumbnail: ren.Thumbnail,
			Medium:    ren.Medium,
			Large:     ren.Large,
		},
		CreatedAt: r.CreatedAt(),
	}
}

func newReportViews(reports []domrep.Report) []ReportView {
	views := make([]ReportView, 0, len(reports))
	for _, r := range reports {
		views = append(views, NewReportView(r))
	}
	return views
}
