package report

import (
	"fmt"
	"strings"

	"github.com/pawdex/pawdex/internal/domain/search/query"
)

// buildQuery translates a normalized listing query into an FT query string.
// All filters are conjunctive; an unfiltered query becomes "*".
func buildQuery(q query.Query) string {
	var parts []string

	if q.Kind != "" {
		parts = append(parts, buildTagFilter(fieldKind, string(q.Kind)))
	}
	if q.City != "" {
		// Infix wildcard (DIALECT 2): contains match on the TEXT field.
		parts = append(parts, fmt.Sprintf("@%s:(*%s*)", fieldCity, tagEscaper.Replace(q.City)))
	}
	if q.Phone != "" {
		parts = append(parts, buildTagFilter(fieldPhone, q.Phone))
	}
	if len(q.IDs) > 0 {
		escaped := make([]string, 0, len(q.IDs))
		for _, id := range q.IDs {
			escaped = append(escaped, tagEscaper.Replace(id))
		}
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldID, strings.Join(escaped, " | ")))
	}
	if !q.CreatedFrom.IsZero() || !q.CreatedTo.IsZero() {
		from, to := "-inf", "+inf"
		if !q.CreatedFrom.IsZero() {
			from = fmt.Sprint(q.CreatedFrom.UTC().Unix())
		}
		if !q.CreatedTo.IsZero() {
			to = fmt.Sprint(q.CreatedTo.UTC().Unix())
		}
		parts = append(parts, fmt.Sprintf("@%s:[%s %s]", fieldCreatedAt, from, to))
	}
	if q.Near != nil {
		parts = append(parts, fmt.Sprintf(
			"@%s:[%g %g %g m]",
			fieldLocation, q.Near.Center.Longitude, q.Near.Center.Latitude, q.Near.RadiusMeters,
		))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	return fmt.Sprintf("@%s:{%s}", key, tagEscaper.Replace(value))
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
