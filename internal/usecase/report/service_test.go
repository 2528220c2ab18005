package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pawdex/pawdex/internal/domain"
	"github.com/pawdex/pawdex/internal/domain/geo"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
)

func validInput() CreateInput {
	return CreateInput{
		Kind:        domrep.Lost,
		City:        "Riga",
		Description: "Small brown terrier, blue collar",
		Phone:       "+371 2000 0001",
		Location:    geo.Point{Latitude: 56.9496, Longitude: 24.1052},
		Image:       []byte("image bytes"),
	}
}

func TestCreate_Success(t *testing.T) {
	s, d := newTestService(t)

	var inserted domrep.Report
	d.repo.insertFn = func(_ context.Context, rep domrep.Report) error {
		inserted = rep
		return nil
	}

	res, err := s.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if res.Report.ID() != "fixed-id" {
		t.Errorf("report id = %q", res.Report.ID())
	}
	if res.Report.Phone() != "+37120000001" {
		t.Errorf("phone = %q, want normalized", res.Report.Phone())
	}
	if !res.Report.Renditions().Complete() {
		t.Error("persisted report must carry the full rendition set")
	}
	if inserted.ID() != "fixed-id" {
		t.Error("report was not persisted")
	}

	// Feature registration is handed to the worker keyed by the report id.
	if len(d.registrar.enqueued) != 1 || d.registrar.enqueued[0] != "fixed-id" {
		t.Errorf("enqueued = %v", d.registrar.enqueued)
	}

	// City-scoped, unfiltered and reverse caches are all dropped.
	if len(d.cache.patterns) != 3 {
		t.Fatalf("invalidated %d patterns, want 3: %v", len(d.cache.patterns), d.cache.patterns)
	}
	for _, p := range d.cache.patterns[:2] {
		if !strings.Contains(p, "listing:") {
			t.Errorf("pattern %q should target listings", p)
		}
	}
	if !strings.Contains(d.cache.patterns[0], "riga") {
		t.Errorf("first pattern %q should be city-scoped", d.cache.patterns[0])
	}
	if !strings.Contains(d.cache.patterns[2], "reverse:riga") {
		t.Errorf("third pattern %q should target the city's reverse cache", d.cache.patterns[2])
	}
}

// The similarity service stores a feature under exactly the key it is given
// on registration, and reverse search asks it to rank raw report ids. The
// registration key must therefore be the report id itself, or ingested
// reports are invisible to reverse search and their features undeletable.
func TestCreate_FeatureKeyIsReportID(t *testing.T) {
	s, d := newTestService(t)

	res, err := s.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	featureStore := map[string]bool{}
	for _, key := range d.registrar.enqueued {
		featureStore[key] = true
	}
	if !featureStore[res.Report.ID()] {
		t.Fatalf("feature store keys = %v, report id %q not among them", d.registrar.enqueued, res.Report.ID())
	}

	if err := s.Delete(context.Background(), []string{res.Report.ID()}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(d.remover.removed) != 1 || d.remover.removed[0][0] != res.Report.ID() {
		t.Errorf("feature removals = %v, want the registration key", d.remover.removed)
	}
}

func TestCreate_ReturnsDuplicates(t *testing.T) {
	s, d := newTestService(t)

	prior, err := domrep.New(
		"prior", domrep.Lost, "Riga", "Small brown terrier, blue collar", "+37120000001",
		geo.Point{Latitude: 56.9496, Longitude: 24.1052},
		time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC),
	)
	if err != nil {
		t.Fatal(err)
	}
	d.duplicates.matches = []domrep.Report{prior}

	res, err := s.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(res.Duplicates) != 1 || res.Duplicates[0].ID() != "prior" {
		t.Errorf("duplicates = %v", res.Duplicates)
	}
}

func TestCreate_ValidationError(t *testing.T) {
	s, d := newTestService(t)

	in := validInput()
	in.Description = "short"

	_, err := s.Create(context.Background(), in)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
	if len(d.cache.patterns) != 0 || len(d.registrar.enqueued) != 0 {
		t.Error("failed ingest must have no side effects")
	}
}

func TestCreate_DeriveFailureIsFatal(t *testing.T) {
	s, d := newTestService(t)

	d.pipeline.deriveFn = func(context.Context, string, []byte) (domrep.Renditions, error) {
		return domrep.Renditions{}, domain.ErrFile
	}

	_, err := s.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrFile) {
		t.Fatalf("Create() error = %v, want ErrFile", err)
	}
	if len(d.registrar.enqueued) != 0 {
		t.Error("no feature registration after a failed derivation")
	}
}

func TestCreate_InsertFailureCleansUpRenditions(t *testing.T) {
	s, d := newTestService(t)

	d.repo.insertFn = func(context.Context, domrep.Report) error {
		return domain.ErrConflict
	}

	_, err := s.Create(context.Background(), validInput())
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Create() error = %v, want ErrConflict", err)
	}
	if len(d.files.removedPrefixes) != 1 || d.files.removedPrefixes[0] != "fixed-id" {
		t.Errorf("removed prefixes = %v, want the orphaned rendition set", d.files.removedPrefixes)
	}
	if len(d.cache.patterns) != 0 {
		t.Error("no cache invalidation after a failed insert")
	}
}

func TestCreate_CacheFailureDoesNotFailIngest(t *testing.T) {
	s, d := newTestService(t)
	d.cache.err = errors.New("cache store down")

	if _, err := s.Create(context.Background(), validInput()); err != nil {
		t.Errorf("Create() error = %v, cache failures must not fail ingest", err)
	}
}

func TestDelete(t *testing.T) {
	s, d := newTestService(t)

	var deleted []string
	d.repo.deleteFn = func(_ context.Context, ids []string) error {
		deleted = ids
		return nil
	}

	if err := s.Delete(context.Background(), []string{"a", "b"}); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if len(deleted) != 2 {
		t.Errorf("deleted = %v", deleted)
	}
	if len(d.files.removedPrefixes) != 2 {
		t.Errorf("removed prefixes = %v, want one per report", d.files.removedPrefixes)
	}
	if len(d.remover.removed) != 1 || len(d.remover.removed[0]) != 2 {
		t.Errorf("feature removals = %v", d.remover.removed)
	}
	if len(d.cache.patterns) != 2 {
		t.Errorf("invalidated patterns = %v, want listings + reverse", d.cache.patterns)
	}
}

func TestDelete_BestEffortSideEffects(t *testing.T) {
	s, d := newTestService(t)
	d.files.removeErr = errors.New("disk error")
	d.remover.err = errors.New("similarity down")
	d.cache.err = errors.New("cache down")

	if err := s.Delete(context.Background(), []string{"a"}); err != nil {
		t.Errorf("Delete() error = %v, side-effect failures must not surface", err)
	}
}

func TestDelete_StorageFailureSurfaces(t *testing.T) {
	s, d := newTestService(t)
	d.repo.deleteFn = func(context.Context, []string) error {
		return domain.ErrDatabase
	}

	err := s.Delete(context.Background(), []string{"a"})
	if !errors.Is(err, domain.ErrDatabase) {
		t.Errorf("Delete() error = %v, want ErrDatabase", err)
	}
	if len(d.files.removedPrefixes) != 0 {
		t.Error("renditions must stay when the record deletion failed")
	}
}

func TestDelete_EmptyIDs(t *testing.T) {
	s, d := newTestService(t)
	if err := s.Delete(context.Background(), nil); err != nil {
		t.Fatalf("Delete(nil) error = %v", err)
	}
	if len(d.remover.removed) != 0 || len(d.cache.patterns) != 0 {
		t.Error("Delete(nil) must be a no-op")
	}
}
