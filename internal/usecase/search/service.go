// Package search implements the listing and reverse-search use cases.
package search

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/config"
	"github.com/pawdex/pawdex/internal/domain/search/page"
	"github.com/pawdex/pawdex/internal/domain/search/query"
	"github.com/pawdex/pawdex/internal/imaging"
	"github.com/pawdex/pawdex/internal/metrics"
	"github.com/pawdex/pawdex/internal/repository/cache"
)

// maxReverseCandidates bounds the candidate id set handed to the similarity
// service on one reverse search.
const maxReverseCandidates = 1000

// Service handles listings and reverse image search.
type Service struct {
	repo       Repository
	similarity SimilarityClient
	cache      *cache.Cache
	searchCfg  config.SearchConfig
	cacheCfg   config.CacheConfig
	logger     *zap.Logger
}

// New creates the search service.
func New(
	repo Repository,
	similarity SimilarityClient,
	c *cache.Cache,
	searchCfg config.SearchConfig,
	cacheCfg config.CacheConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:       repo,
		similarity: similarity,
		cache:      c,
		searchCfg:  searchCfg,
		cacheCfg:   cacheCfg,
		logger:     logger,
	}
}

// List returns one filtered, paginated page of reports through the
// cache-aside layer.
func (s *Service) List(ctx context.Context, q query.Query) (ListResult, error) {
	q, err := q.Normalize(s.searchCfg.DefaultPageSize, s.searchCfg.MaxPageSize)
	if err != nil {
		return ListResult{}, err
	}

	key := cache.ListingKey(q.CacheKey())
	ttl := time.Duration(s.cacheCfg.ListingTTLSec) * time.Second

	return cache.Through(ctx, s.cache, key, ttl, func(ctx context.Context) (ListResult, error) {
		return s.fetchPage(ctx, q)
	})
}

// fetchPage runs the count and the page fetch concurrently and assembles
// the envelope.
func (s *Service) fetchPage(ctx context.Context, q query.Query) (ListResult, error) {
	var (
		wg       sync.WaitGroup
		reports  []ReportView
		total    int
		findErr  error
		countErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		found, err := s.repo.Find(ctx, q)
		if err != nil {
			findErr = err
			return
		}
		reports = newReportViews(found)
	}()
	go func() {
		defer wg.Done()
		total, countErr = s.repo.Count(ctx, q)
	}()
	wg.Wait()

	if findErr != nil {
		return ListResult{}, fmt.Errorf("fetch page: %w", findErr)
	}
	if countErr != nil {
		return ListResult{}, fmt.Errorf("count: %w", countErr)
	}

	return ListResult{
		Searches:   reports,
		Pagination: page.New(total, q.Page, q.Limit),
	}, nil
}

// reverseState names the stages of one reverse-search request.
type reverseState int

const (
	stateCandidates reverseState = iota
	stateSimilarity
	stateResult
)

// Reverse runs the reverse image search for a city. The similarity service
// is best effort: any failure or timeout degrades to the city fallback and
// the request still succeeds. The response is cached only when it was slow
// to produce or AI similarity actually ran.
func (s *Service) Reverse(ctx context.Context, city string, image []byte) (ReverseResult, error) {
	key := cache.ReverseKey(city, imaging.Fingerprint(image))

	var cached ReverseResult
	if s.cache.GetInto(ctx, key, &cached) {
		return cached, nil
	}

	started := time.Now()

	var (
		result  ReverseResult
		rankedQ query.Query
		ranked  []string
	)

	state := stateCandidates
	for {
		switch state {
		case stateCandidates:
			candidates, err := s.candidateIDs(ctx, city)
			if err != nil {
				return ReverseResult{}, err
			}
			if len(candidates) == 0 {
				// Nothing to rank: skip the similarity call entirely.
				result = ReverseResult{
					Searches:     []ReportView{},
					Pagination:   page.New(0, 1, s.searchCfg.ReversePageSize),
					SearchMethod: MethodCityFallback,
				}
				metrics.ReverseSearchTotal.WithLabelValues(result.SearchMethod).Inc()
				return result, nil
			}
			ranked = candidates
			state = stateSimilarity

		case stateSimilarity:
			ordered, err := s.similarity.ReverseSearch(ctx, image, ranked)
			if err != nil {
				s.logger.Warn("Similarity service unavailable, using city fallback",
					zap.String("city", city), zap.Error(err))
				result.SearchMethod = MethodCityFallback
				rankedQ = query.Query{City: city}
			} else {
				result.SearchMethod = MethodAISimilarity
				result.HasAIResults = len(ordered) > 0
				ranked = ordered
				rankedQ = query.Query{IDs: ordered}
			}
			state = stateResult

		case stateResult:
			metrics.ReverseSearchTotal.WithLabelValues(result.SearchMethod).Inc()

			if result.SearchMethod == MethodAISimilarity && len(ranked) == 0 {
				// AI ran and found nothing. An empty id filter would match
				// everything, so short-circuit the fetch.
				result.Searches = []ReportView{}
				result.Pagination = page.New(0, 1, s.searchCfg.ReversePageSize)
			} else {
				var err error
				result, err = s.finalPage(ctx, rankedQ, result)
				if err != nil {
					return ReverseResult{}, err
				}
			}

			s.maybeCache(ctx, key, result, time.Since(started))
			return result, nil
		}
	}
}

// candidateIDs fetches the ids of every report in the city, bounded by
// maxReverseCandidates.
func (s *Service) candidateIDs(ctx context.Context, city string) ([]string, error) {
	q, err := query.Query{City: city, Limit: maxReverseCandidates}.Normalize(maxReverseCandidates, maxReverseCandidates)
	if err != nil {
		return nil, err
	}

	reports, err := s.repo.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}

	ids := make([]string, 0, len(reports))
	for _, r := range reports {
		ids = append(ids, r.ID())
	}
	return ids, nil
}

// finalPage fetches the first reverse-search page for the filter the state
// machine produced. When AI ranked the ids, the service's order is
// preserved over the stored recency order.
func (s *Service) finalPage(ctx context.Context, q query.Query, result ReverseResult) (ReverseResult, error) {
	ids := q.IDs
	q, err := q.Normalize(s.searchCfg.ReversePageSize, s.searchCfg.ReversePageSize)
	if err != nil {
		return ReverseResult{}, err
	}

	final, err := s.fetchPage(ctx, q)
	if err != nil {
		return ReverseResult{}, err
	}

	result.Searches = final.Searches
	if len(ids) > 0 {
		result.Searches = reorderByRank(final.Searches, ids)
	}
	result.Pagination = final.Pagination
	return result, nil
}

// maybeCache stores the response when it was expensive: slower than the
// configured threshold, or produced by an actual AI similarity run.
func (s *Service) maybeCache(ctx context.Context, key string, result ReverseResult, elapsed time.Duration) {
	slow := elapsed > time.Duration(s.cacheCfg.SlowThresholdMilli)*time.Millisecond
	usedAI := result.SearchMethod == MethodAISimilarity

	if slow || usedAI {
		s.cache.Put(ctx, key, result, time.Duration(s.cacheCfg.ReverseTTLSec)*time.Second)
	}
}

// reorderByRank sorts views into the order of ids (most similar first);
// views not present in ids keep their relative order at the tail.
func reorderByRank(views []ReportView, ids []string) []ReportView {
	rank := make(map[string]int, len(ids))
	for i, id := range ids {
		rank[id] = i
	}

	ordered := make([]ReportView, len(views))
	copy(ordered, views)
	sort.SliceStable(ordered, func(i, j int) bool {
		ri, iok := rank[ordered[i].ID]
		rj, jok := rank[ordered[j].ID]
		if iok && jok {
			return ri < rj
		}
		return iok
	})
	return ordered
}
