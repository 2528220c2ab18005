// Package report defines the Report aggregate: one lost/found pet submission.
package report

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/geo"
)

// Kind distinguishes lost-pet reports from found-pet reports.
type Kind string

const (
	// Lost marks a report about a pet that went missing.
	Lost Kind = "LOST"
	// Found marks a report about a pet someone encountered.
	Found Kind = "FOUND"
)

// ParseKind converts a client-supplied type label into a Kind.
// "FIND" is the legacy label for found-pet reports and is still accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOST":
		return Lost, nil
	case "FOUND", "FIND":
		return Found, nil
	}
	return "", fmt.Errorf("%w: type must be LOST or FOUND, got %q", domain.ErrValidation, s)
}

const (
	// MinDescriptionLen is the minimum description length in characters.
	MinDescriptionLen = 10
	// MaxDescriptionLen is the maximum description length in characters.
	MaxDescriptionLen = 500
)

// Renditions holds the derived image filenames. All three are present or
// the set is absent entirely; partial sets are a bug.
type Renditions struct {
	Thumbnail string
	Medium    string
	Large     string
}

// Complete reports whether all three renditions are present.
func (r Renditions) Complete() bool {
	return r.Thumbnail != "" && r.Medium != "" && r.Large != ""
}

// Empty reports whether no rendition is present.
func (r Renditions) Empty() bool {
	return r == Renditions{}
}

// Report is the persisted lost/found submission (immutable value object).
type Report struct {
	id          string
	kind        Kind
	city        string
	description string
	phone       string
	location    geo.Point
	renditions  Renditions
	createdAt   time.Time
}

// New validates and creates a Report. Renditions are attached later,
// once the image pipeline has produced them (see WithRenditions).
func New(id string, kind Kind, city, description, phone string, location geo.Point, createdAt time.Time) (Report, error) {
	if id == "" {
		return Report{}, fmt.Errorf("%w: report ID is required", domain.ErrValidation)
	}
	if kind != Lost && kind != Found {
		return Report{}, fmt.Errorf("%w: unknown report kind %q", domain.ErrValidation, kind)
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return Report{}, fmt.Errorf("%w: city is required", domain.ErrValidation)
	}
	description = strings.TrimSpace(description)
	if n := len([]rune(description)); n < MinDescriptionLen || n > MaxDescriptionLen {
		return Report{}, fmt.Errorf(
			"%w: description must be %d-%d characters, got %d",
			domain.ErrValidation, MinDescriptionLen, MaxDescriptionLen, n,
		)
	}
	normPhone, err := NormalizePhone(phone)
	if err != nil {
		return Report{}, err
	}
	if !location.Valid() {
		return Report{}, fmt.Errorf("%w: location coordinates out of range", domain.ErrValidation)
	}

	return Report{
		id:          id,
		kind:        kind,
		city:        city,
		description: description,
		phone:       normPhone,
		location:    location,
		createdAt:   createdAt.UTC(),
	}, nil
}

// Reconstruct creates a Report without validation (storage hydration).
func Reconstruct(
	id string, kind Kind, city, description, phone string,
	location geo.Point, renditions Renditions, createdAt time.Time,
) Report {
	return Report{
		id:          id,
		kind:        kind,
		city:        city,
		description: description,
		phone:       phone,
		location:    location,
		renditions:  renditions,
		createdAt:   createdAt,
	}
}

// WithRenditions returns a copy with the rendition set attached.
// The set must be complete; a partial set is rejected.
func (r Report) WithRenditions(ren Renditions) (Report, error) {
	if !ren.Complete() {
		return Report{}, fmt.Errorf("%w: incomplete rendition set", domain.ErrFile)
	}
	r.renditions = ren
	return r, nil
}

// ID returns the opaque unique identifier.
func (r Report) ID() string { return r.id }

// Kind returns LOST or FOUND.
func (r Report) Kind() Kind { return r.kind }

// City returns the coarse locality label.
func (r Report) City() string { return r.city }

// Description returns the free-text description.
func (r Report) Description() string { return r.description }

// Phone returns the normalized contact string.
func (r Report) Phone() string { return r.phone }

// Location returns the geographic point.
func (r Report) Location() geo.Point { return r.location }

// Renditions returns the derived image filename set (possibly empty).
func (r Report) Renditions() Renditions { return r.renditions }

// CreatedAt returns the creation timestamp.
func (r Report) CreatedAt() time.Time { return r.createdAt }

// NormalizePhone strips formatting from a contact number, keeping digits
// and a single leading +.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	for i, c := range strings.TrimSpace(phone) {
		switch {
		case unicode.IsDigit(c):
			b.WriteRune(c)
		case c == '+' && i == 0:
			b.WriteRune(c)
		case c == ' ' || c == '-' || c == '(' || c == ')' || c == '.':
			// formatting noise
		default:
			return "", fmt.Errorf("%w: phone contains invalid character %q", domain.ErrValidation, c)
		}
	}

	digits := strings.TrimPrefix(b.String(), "+")
	if len(digits) < 6 || len(digits) > 15 {
		return "", fmt.Errorf("%w: phone must have 6-15 digits, got %d", domain.ErrValidation, len(digits))
	}
	return b.String(), nil
}
