package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/pawdex/pawdex/internal/config"
	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
	"github.com/pawdex/pawdex/internal/repository/cache"
)

// --- Mocks (consumer interfaces, function fields) ---

type mockRepo struct {
	findFn  func(ctx context.Context, q query.Query) ([]domrep.Report, error)
	countFn func(ctx context.Context, q query.Query) (int, error)

	findCalls  int
	countCalls int
}

func (m *mockRepo) Find(ctx context.Context, q query.Query) ([]domrep.Report, error) {
	m.findCalls++
	if m.findFn != nil {
		return m.findFn(ctx, q)
	}
	return nil, nil
}

func (m *mockRepo) Count(ctx context.Context, q query.Query) (int, error) {
	m.countCalls++
	if m.countFn != nil {
		return m.countFn(ctx, q)
	}
	return 0, nil
}

type mockSimilarity struct {
	fn    func(ctx context.Context, image []byte, ids []string) ([]string, error)
	calls int
}

func (m *mockSimilarity) ReverseSearch(ctx context.Context, image []byte, ids []string) ([]string, error) {
	m.calls++
	if m.fn != nil {
		return m.fn(ctx, image, ids)
	}
	return nil, nil
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{DefaultPageSize: 21, MaxPageSize: 100, ReversePageSize: 50}
}

func testCacheConfig() config.CacheConfig {
	return config.CacheConfig{
		ListingTTLSec:      300,
		ReverseTTLSec:      600,
		SlowThresholdMilli: 10_000, // nothing in tests counts as slow unless overridden
	}
}

func newTestService(t *testing.T, repo *mockRepo, sim *mockSimilarity) *Service {
	t.Helper()
	c := cache.New(cache.NewMemoryStore(time.Minute), nil, zap.NewNop())
	return New(repo, sim, c, testSearchConfig(), testCacheConfig(), zap.NewNop())
}

func makeReport(t *testing.T, id string, createdAt time.Time) domrep.Report {
	t.Helper()
	rep, err := domrep.New(
		id, domrep.Lost, "Riga", fmt.Sprintf("Lost pet report %s details", id), "+37120000001",
		geo.Point{Latitude: 56.9496, Longitude: 24.1052}, createdAt,
	)
	if err != nil {
		t.Fatalf("report.New: %v", err)
	}
	return rep
}
