// internal/app/store/pgstore/captures.go
package pgstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// CaptureStore reads raw captures from the capture tables. Each row is
// returned as its to_jsonb document so the normaliser sees the same shape
// the document backend produces.
type CaptureStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewCaptureStore creates a CaptureStore.
func NewCaptureStore(pool *pgxpool.Pool, logger *zap.Logger) *CaptureStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptureStore{pool: pool, logger: logger}
}

func captureQuery(table string) (string, error) {
	if !slices.Contains(captureexport.SourceTables, table) {
		return "", fmt.Errorf("unknown capture table %q", table)
	}
	return fmt.Sprintf(`SELECT to_jsonb(t) FROM %s t
WHERE t.project_id::text = $1
  AND ($2::timestamptz IS NULL OR t.created_at >= $2)
  AND ($3::timestamptz IS NULL OR t.created_at < $3)
ORDER BY t.created_at ASC`, pgx.Identifier{table}.Sanitize()), nil
}

// ListCaptures returns table's captures for q ordered by created_at. An
// undefined table yields Missing instead of an error.
func (s *CaptureStore) ListCaptures(ctx context.Context, table string, q captureexport.Query) (captureexport.SourceResult, error) {
	sql, err := captureQuery(table)
	if err != nil {
		return captureexport.SourceResult{}, err
	}

	rows, err := s.pool.Query(ctx, sql, q.ProjectID, q.From, q.ToExclusive)
	if err != nil {
		if isUndefinedTable(err) {
			return captureexport.SourceResult{Missing: true}, nil
		}
		return captureexport.SourceResult{}, mapError("query "+table, err, nil, nil)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.RawRecord, error) {
		var doc map[string]any
		if err := row.Scan(&doc); err != nil {
			return nil, err
		}
		return models.RawRecord(doc), nil
	})
	if err != nil {
		if isUndefinedTable(err) {
			return captureexport.SourceResult{Missing: true}, nil
		}
		return captureexport.SourceResult{}, mapError("scan "+table, err, nil, nil)
	}

	s.logger.Debug("captures listed",
		zap.String("table", table),
		zap.String("project_id", q.ProjectID),
		zap.Int("rows", len(docs)))

	return captureexport.SourceResult{Rows: docs}, nil
}

// ListRecentProjects returns project ids with captures created at or after
// since. Undefined tables are skipped.
func (s *CaptureStore) ListRecentProjects(ctx context.Context, since time.Time) ([]string, error) {
	seen := map[string]struct{}{}
	for _, table := range captureexport.SourceTables {
		sql := fmt.Sprintf(`SELECT DISTINCT project_id::text FROM %s WHERE created_at >= $1 AND project_id IS NOT NULL`,
			pgx.Identifier{table}.Sanitize())
		rows, err := s.pool.Query(ctx, sql, since)
		if err != nil {
			if isUndefinedTable(err) {
				continue
			}
			return nil, mapError("distinct "+table, err, nil, nil)
		}
		ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			if isUndefinedTable(err) {
				continue
			}
			return nil, mapError("distinct "+table, err, nil, nil)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
