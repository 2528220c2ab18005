package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
)

// Hash field names. location is "lon,lat" as the Redis GEO field expects;
// created_at is unix seconds so the NUMERIC index can sort and range it.
const (
	fieldID          = "id"
	fieldKind        = "kind"
	fieldCity        = "city"
	fieldDescription = "description"
	fieldPhone       = "phone"
	fieldLocation    = "location"
	fieldThumbnail   = "thumb"
	fieldMedium      = "medium"
	fieldLarge       = "large"
	fieldCreatedAt   = "created_at"
)

func reportKey(id string) string {
	return KeyPrefix + id
}

func toFields(r domrep.Report) map[string]string {
	loc := r.Location()
	ren := r.Renditions()
	return map[string]string{
		fieldID:          r.ID(),
		fieldKind:        string(r.Kind()),
		fieldCity:        r.City(),
		fieldDescription: r.Description(),
		fieldPhone:       r.Phone(),
		fieldLocation:    formatLocation(loc),
		fieldThumbnail:   ren.Thumbnail,
		fieldMedium:      ren.Medium,
		fieldLarge:       ren.Large,
		fieldCreatedAt:   strconv.FormatInt(r.CreatedAt().Unix(), 10),
	}
}

func fromFields(fields map[string]string) (domrep.Report, error) {
	id := fields[fieldID]
	if id == "" {
		return domrep.Report{}, fmt.Errorf("%w: record has no id", domain.ErrDatabase)
	}

	loc, err := parseLocation(fields[fieldLocation])
	if err != nil {
		return domrep.Report{}, fmt.Errorf("%w: record %s: %w", domain.ErrDatabase, id, err)
	}

	unix, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return domrep.Report{}, fmt.Errorf("%w: record %s: bad created_at %q", domain.ErrDatabase, id, fields[fieldCreatedAt])
	}

	return domrep.Reconstruct(
		id,
		domrep.Kind(fields[fieldKind]),
		fields[fieldCity],
		fields[fieldDescription],
		fields[fieldPhone],
		loc,
		domrep.Renditions{
			Thumbnail: fields[fieldThumbnail],
			Medium:    fields[fieldMedium],
			Large:     fields[fieldLarge],
		},
		time.Unix(unix, 0).UTC(),
	), nil
}

func formatLocation(p geo.Point) string {
	return fmt.Sprintf("%g,%g", p.Longitude, p.Latitude)
}

func parseLocation(s string) (geo.Point, error) {
	lonStr, latStr, ok := strings.Cut(s, ",")
	if !ok {
		return geo.Point{}, fmt.Errorf("bad location %q", s)
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad longitude %q", lonStr)
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return geo.Point{}, fmt.Errorf("bad latitude %q", latStr)
	}
	return geo.Point{Latitude: lat, Longitude: lon}, nil
}
