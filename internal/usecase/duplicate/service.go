// Package duplicate flags likely re-submissions of the same pet report.
package duplicate

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/config"
	"github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
)

// Service detects likely duplicates of a report being ingested. Detection is
// advisory: it never blocks ingest and never returns an error.
type Service struct {
	repo   Repository
	cfg    config.DuplicatesConfig
	logger *zap.Logger
}

// New creates a duplicate detection service.
func New(repo Repository, cfg config.DuplicatesConfig, logger *zap.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, logger: logger}
}

// FindLikely returns recent reports of the same kind that share the
// candidate's phone or lie within the configured radius of its location,
// newest first, capped at the configured maximum. Lookup failures degrade
// to an empty result.
func (s *Service) FindLikely(ctx context.Context, candidate report.Report) []report.Report {
	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSec)*time.Second)
	defer cancel()

	base := query.Query{
		Kind:        candidate.Kind(),
		CreatedFrom: candidate.CreatedAt().Add(-time.Duration(s.cfg.WindowHours) * time.Hour),
		SortOrder:   query.SortDesc,
		Page:        1,
		Limit:       s.cfg.MaxResults + 1, // the candidate itself may be among the matches
	}

	byPhone := base
	byPhone.Phone = candidate.Phone()

	byLocation := base
	byLocation.Near = &query.Proximity{
		Center:       candidate.Location(),
		RadiusMeters: s.cfg.RadiusMeters,
	}

	var matches []report.Report
	for _, q := range []query.Query{byPhone, byLocation} {
		found, err := s.repo.Find(ctx, q)
		if err != nil {
			s.logger.Warn("Duplicate lookup failed", zap.String("candidate", candidate.ID()), zap.Error(err))
			continue
		}
		matches = append(matches, found...)
	}

	return s.dedupe(candidate.ID(), matches)
}

// dedupe drops the candidate itself and repeated IDs, then orders by
// recency and applies the cap.
func (s *Service) dedupe(candidateID string, matches []report.Report) []report.Report {
	seen := map[string]bool{candidateID: true}
	out := make([]report.Report, 0, len(matches))
	for _, m := range matches {
		if seen[m.ID()] {
			continue
		}
		seen[m.ID()] = true
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})

	if len(out) > s.cfg.MaxResults {
		out = out[:s.cfg.MaxResults]
	}
	return out
}
