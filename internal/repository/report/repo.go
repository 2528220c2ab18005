package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/pawdex/pawdex/internal/db"
	"github.com/pawdex/pawdex/internal/domain"
	domrep "github.com/pawdex/pawdex/internal/domain/report"
	"github.com/pawdex/pawdex/internal/domain/search/query"
)

// store is the consumer interface for report persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// Repo implements the report repository over Redis hashes plus FT.SEARCH.
type Repo struct {
	store store
}

// New creates a report repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Insert persists a new report. The report ID must be unused.
func (r *Repo) Insert(ctx context.Context, rep domrep.Report) error {
	key := reportKey(rep.ID())

	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return fmt.Errorf("%w: report %s already exists", domain.ErrConflict, rep.ID())
	}

	if err := r.store.HSet(ctx, key, toFields(rep)); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Get returns one report by ID.
func (r *Repo) Get(ctx context.Context, id string) (domrep.Report, error) {
	fields, err := r.store.HGetAll(ctx, reportKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domrep.Report{}, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
		}
		return domrep.Report{}, fmt.Errorf("hgetall %s: %w", id, err)
	}
	if len(fields) == 0 {
		return domrep.Report{}, fmt.Errorf("%w: report %s", domain.ErrNotFound, id)
	}
	return fromFields(fields)
}

// Find returns one page of reports matching q, ordered by creation time.
// q must already be normalized.
func (r *Repo) Find(ctx context.Context, q query.Query) ([]domrep.Report, error) {
	result, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: IndexName,
		Query:     buildQuery(q),
		Offset:    q.Offset(),
		Limit:     q.Limit,
		SortBy:    fieldCreatedAt,
		SortDesc:  q.SortOrder != query.SortAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("search reports: %w", err)
	}
	if result == nil || len(result.Entries) == 0 {
		return nil, nil
	}

	reports := make([]domrep.Report, 0, len(result.Entries))
	for _, entry := range result.Entries {
		rep, err := fromFields(entry.Fields)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, nil
}

// Count returns the number of reports matching q's filters.
func (r *Repo) Count(ctx context.Context, q query.Query) (int, error) {
	n, err := r.store.SearchCount(ctx, IndexName, buildQuery(q))
	if err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// DeleteMany removes the given reports. Unknown IDs are skipped.
func (r *Repo) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, reportKey(id))
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("delete reports: %w", err)
	}
	return nil
}
