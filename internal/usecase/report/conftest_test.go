package report

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	domrep "github.com/pawdex/pawdex/internal/domain/report"
)

// --- Mocks (consumer interfaces, function fields) ---

type mockRepo struct {
	insertFn func(ctx context.Context, rep domrep.Report) error
	deleteFn func(ctx context.Context, ids []string) error
}

func (m *mockRepo) Insert(ctx context.Context, rep domrep.Report) error {
	if m.insertFn != nil {
		return m.insertFn(ctx, rep)
	}
	return nil
}

func (m *mockRepo) DeleteMany(ctx context.Context, ids []string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, ids)
	}
	return nil
}

type mockDuplicates struct {
	matches []domrep.Report
}

func (m *mockDuplicates) FindLikely(context.Context, domrep.Report) []domrep.Report {
	return m.matches
}

type mockPipeline struct {
	deriveFn func(ctx context.Context, reportID string, raw []byte) (domrep.Renditions, error)
}

func (m *mockPipeline) Derive(ctx context.Context, reportID string, raw []byte) (domrep.Renditions, error) {
	if m.deriveFn != nil {
		return m.deriveFn(ctx, reportID, raw)
	}
	return domrep.Renditions{
		Thumbnail: reportID + "_thumb.jpg",
		Medium:    reportID + "_medium.jpg",
		Large:     reportID + "_large.jpg",
	}, nil
}

type mockFiles struct {
	removedPrefixes []string
	removeErr       error
}

func (m *mockFiles) RemoveByPrefix(_ context.Context, reportID string) error {
	m.removedPrefixes = append(m.removedPrefixes, reportID)
	return m.removeErr
}

type mockRegistrar struct {
	enqueued []string
}

func (m *mockRegistrar) Enqueue(id string) {
	m.enqueued = append(m.enqueued, id)
}

type mockRemover struct {
	removed [][]string
	err     error
}

func (m *mockRemover) RemoveFeatures(_ context.Context, ids []string) error {
	m.removed = append(m.removed, ids)
	return m.err
}

type mockInvalidator struct {
	patterns []string
	err      error
}

func (m *mockInvalidator) Invalidate(_ context.Context, keyOrPattern string) error {
	m.patterns = append(m.patterns, keyOrPattern)
	return m.err
}

type testDeps struct {
	repo       *mockRepo
	duplicates *mockDuplicates
	pipeline   *mockPipeline
	files      *mockFiles
	registrar  *mockRegistrar
	remover    *mockRemover
	cache      *mockInvalidator
}

func newTestService(t *testing.T) (*Service, *testDeps) {
	t.Helper()
	d := &testDeps{
		repo:       &mockRepo{},
		duplicates: &mockDuplicates{},
		pipeline:   &mockPipeline{},
		files:      &mockFiles{},
		registrar:  &mockRegistrar{},
		remover:    &mockRemover{},
		cache:      &mockInvalidator{},
	}
	s := New(d.repo, d.duplicates, d.pipeline, d.files, d.registrar, d.remover, d.cache, zap.NewNop())
	s.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	s.newID = func() string { return "fixed-id" }
	return s, d
}
