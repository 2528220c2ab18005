// Package query models the filter/sort/pagination parameters of a listing.
package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/geo"
	"github.com/pawdex/pawdex/internal/domain/report"
)

// Sort orders for listings.
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SortByCreatedAt is the only supported sort field.
const SortByCreatedAt = "createdAt"

// Proximity is a geo-radius filter around a point.
type Proximity struct {
	Center       geo.Point
	RadiusMeters float64
}

// Query holds normalized listing filters plus pagination.
// The zero Query matches everything on the first page.
type Query struct {
	Kind        report.Kind // empty = both kinds
	City        string      // contains match, empty = all cities
	Phone       string      // exact match on the normalized phone
	IDs         []string    // restrict to this id set ($in)
	CreatedFrom time.Time
	CreatedTo   time.Time
	Near        *Proximity
	SortOrder   string // asc|desc, default desc
	Page        int
	Limit       int
}

// Normalize clamps pagination and fills sort defaults.
// defaultLimit and maxLimit come from configuration.
func (q Query) Normalize(defaultLimit, maxLimit int) (Query, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	switch q.SortOrder {
	case "":
		q.SortOrder = SortDesc
	case SortAsc, SortDesc:
		// ok
	default:
		return Query{}, fmt.Errorf("%w: sortOrder must be asc or desc, got %q", domain.ErrValidation, q.SortOrder)
	}
	if !q.CreatedFrom.IsZero() && !q.CreatedTo.IsZero() && q.CreatedTo.Before(q.CreatedFrom) {
		return Query{}, fmt.Errorf("%w: dateTo is before dateFrom", domain.ErrValidation)
	}
	q.City = strings.TrimSpace(q.City)
	return q, nil
}

// Offset returns the skip count for the current page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.Limit
}

// CacheKey derives a deterministic cache key fragment from the query's
// sorted parameters. Two queries with the same filters, sort and page
// produce the same key.
func (q Query) CacheKey() string {
	parts := []string{
		"city=" + strings.ToLower(q.City),
		"from=" + formatTime(q.CreatedFrom),
		"kind=" + string(q.Kind),
		"limit=" + fmt.Sprint(q.Limit),
		"page=" + fmt.Sprint(q.Page),
		"sort=" + q.SortOrder,
		"to=" + formatTime(q.CreatedTo),
	}
	return strings.Join(parts, ":")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprint(t.UTC().Unix())
}
