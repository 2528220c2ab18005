// Package report implements the ingest and retention use cases.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/metrics"
	"github.com/pawdex/pawdex/internal/repository/cache"
)

// CreateInput is the validated ingest payload.
type CreateInput struct {
	Kind        domrep.Kind
	City        string
	Description string
	Phone       string
	Location    geo.Point
	Image       []byte
}

// CreateResult is the ingest outcome: the persisted report plus advisory
// duplicate matches.
type CreateResult struct {
	Report     domrep.Report
	Duplicates []domrep.Report
}

// Service orchestrates report ingest and the retention deletion hook.
type Service struct {
	repo       Repository
	duplicates DuplicateFinder
	pipeline   Pipeline
	files      RenditionStore
	registrar  FeatureRegistrar
	remover    FeatureRemover
	cache      CacheInvalidator
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

// New creates the ingest service.
func New(
	repo Repository,
	duplicates DuplicateFinder,
	pipeline Pipeline,
	files RenditionStore,
	registrar FeatureRegistrar,
	remover FeatureRemover,
	cacheInv CacheInvalidator,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		duplicates: duplicates,
		pipeline:   pipeline,
		files:      files,
		registrar:  registrar,
		remover:    remover,
		cache:      cacheInv,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Create ingests one report. Duplicate detection is advisory and never
// blocks ingest; rendition derivation and persistence failures abort it.
// Cache invalidation is attempted before returning so a listing read that
// follows a successful ingest on this instance sees the new report.
func (s *Service) Create(ctx context.Context, in CreateInput) (CreateResult, error) {
	rep, err := domrep.New(
		s.newID(), in.Kind, in.City, in.Description, in.Phone, in.Location, s.now(),
	)
	if err != nil {
		return CreateResult{}, err
	}

	duplicates := s.duplicates.FindLikely(ctx, rep)

	renditions, err := s.pipeline.Derive(ctx, rep.ID(), in.Image)
	if err != nil {
		return CreateResult{}, fmt.Errorf("derive renditions: %w", err)
	}

	rep, err = rep.WithRenditions(renditions)
	if err != nil {
		return CreateResult{}, err
	}

	if err := s.repo.Insert(ctx, rep); err != nil {
		s.cleanupRenditions(ctx, rep.ID())
		return CreateResult{}, fmt.Errorf("persist report: %w", err)
	}

	s.invalidateFor(ctx, rep.City())

	// The similarity service keys features by the exact value it is given
	// and reverse search looks candidates up by report id, so the id is the
	// one feature key shared by registration, search and removal.
	s.registrar.Enqueue(rep.ID())

	return CreateResult{Report: rep, Duplicates: duplicates}, nil
}

// Delete is the retention hook: removes the reports, their rendition files,
// their cached pages, and (best effort) their similarity features.
func (s *Service) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.repo.DeleteMany(ctx, ids); err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}

	for _, id := range ids {
		if err := s.files.RemoveByPrefix(ctx, id); err != nil {
			s.logger.Warn("Failed to remove renditions", zap.String("report", id), zap.Error(err))
		}
	}

	if err := s.remover.RemoveFeatures(ctx, ids); err != nil {
		s.logger.Warn("Failed to deregister features", zap.Strings("ids", ids), zap.Error(err))
	}

	// Deleted reports can span any city, so drop everything.
	for _, pattern := range []string{cache.AllListingsPattern(), cache.AllReversePattern()} {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("Cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
	metrics.CacheInvalidationsTotal.Inc()

	return nil
}

// invalidateFor drops the listing pages that could contain the new report:
// the ones filtered to its city and the unfiltered ones, plus the city's
// cached reverse-search responses. Failures are logged; the cache is
// re-computable and must not fail ingest.
func (s *Service) invalidateFor(ctx context.Context, city string) {
	patterns := []string{
		cache.ListingPattern(city),
		cache.ListingPattern(""),
		cache.ReversePattern(city),
	}
	for _, pattern := range patterns {
		if err := s.cache.Invalidate(ctx, pattern); err != nil {
			s.logger.Warn("Cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
	metrics.CacheInvalidationsTotal.Inc()
}

func (s *Service) cleanupRenditions(ctx context.Context, reportID string) {
	if err := s.files.RemoveByPrefix(ctx, reportID); err != nil {
		s.logger.Warn("Failed to clean up renditions", zap.String("report", reportID), zap.Error(err))
	}
}
