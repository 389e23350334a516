// internal/app/store/pgstore/snapshots.go
package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var snapshotColumns = []string{
	"project_id", "snapshot_date", "zone_key", "macro_zone", "micro_zone", "zone",
	"cumulative_ft", "cumulative_botes", "cumulative_rolls", "cumulative_seams",
	"captures_count", "last_capture_at", "build_id", "computed_at",
}

// SnapshotStore persists zone daily snapshots in zone_daily_snapshots.
type SnapshotStore struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewSnapshotStore creates a SnapshotStore.
func NewSnapshotStore(pool *pgxpool.Pool, logger *zap.Logger) *SnapshotStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotStore{pool: pool, logger: logger}
}

// insertSQL builds a multi-row INSERT for n rows, optionally resolving
// conflicts on the snapshot key.
func insertSQL(n int, upsert bool) string {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(models.CollectionZoneDailySnapshots)
	b.WriteString(" (")
	b.WriteString(strings.Join(snapshotColumns, ", "))
	b.WriteString(") VALUES ")

	cols := len(snapshotColumns)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j := 0; j < cols; j++ {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", i*cols+j+1)
		}
		b.WriteByte(')')
	}

	if upsert {
		b.WriteString(" ON CONFLICT (project_id, snapshot_date, zone_key) DO UPDATE SET ")
		var sets []string
		for _, c := range snapshotColumns[3:] {
			sets = append(sets, c+" = EXCLUDED."+c)
		}
		b.WriteString(strings.Join(sets, ", "))
	}
	return b.String()
}

func snapshotArgs(rows []models.ZoneDailySnapshotRow) ([]any, error) {
	args := make([]any, 0, len(rows)*len(snapshotColumns))
	for _, r := range rows {
		day, err := time.ParseInLocation(daterange.DateLayout, r.SnapshotDate, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("snapshot_date %q: %w", r.SnapshotDate, err)
		}
		var last *time.Time
		if r.LastCaptureAt != nil {
			t, err := time.Parse(time.RFC3339Nano, *r.LastCaptureAt)
			if err != nil {
				return nil, fmt.Errorf("last_capture_at %q: %w", *r.LastCaptureAt, err)
			}
			last = &t
		}
		computed := r.ComputedAt
		if computed.IsZero() {
			computed = time.Now().UTC()
		}
		args = append(args,
			r.ProjectID, day, r.ZoneKey, r.MacroZone, r.MicroZone, r.Zone,
			r.CumulativeFt, r.CumulativeBotes, r.CumulativeRolls, r.CumulativeSeams,
			r.CapturesCount, last, r.BuildID, computed,
		)
	}
	return args, nil
}

// execer is satisfied by *pgxpool.Pool and pgx.Tx.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *SnapshotStore) write(ctx context.Context, db execer, op string, rows []models.ZoneDailySnapshotRow, upsert bool) error {
	if len(rows) == 0 {
		return nil
	}
	args, err := snapshotArgs(rows)
	if err != nil {
		return err
	}
	tag, err := db.Exec(ctx, insertSQL(len(rows), upsert), args...)
	if err != nil {
		return mapError(op, err, zonesnapshot.ErrRelationMissing, zonesnapshot.ErrNoConflictConstraint)
	}
	s.logger.Debug("snapshots written",
		zap.String("op", op),
		zap.Int64("rows", tag.RowsAffected()))
	return nil
}

// Upsert writes rows with ON CONFLICT on the snapshot key.
func (s *SnapshotStore) Upsert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	return s.write(ctx, s.pool, "upsert snapshots", rows, true)
}

// Insert writes rows without conflict resolution.
func (s *SnapshotStore) Insert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	return s.write(ctx, s.pool, "insert snapshots", rows, false)
}

func dateArg(date string) *time.Time {
	if date == "" {
		return nil
	}
	t, err := time.ParseInLocation(daterange.DateLayout, date, time.UTC)
	if err != nil {
		return nil
	}
	return &t
}

// DeleteRange removes a project's snapshots with snapshot_date in bounds.
func (s *SnapshotStore) DeleteRange(ctx context.Context, projectID string, bounds daterange.Bounds) error {
	return s.deleteRange(ctx, s.pool, projectID, bounds)
}

func (s *SnapshotStore) deleteRange(ctx context.Context, db execer, projectID string, bounds daterange.Bounds) error {
	tag, err := db.Exec(ctx, `DELETE FROM zone_daily_snapshots
WHERE project_id = $1
  AND ($2::date IS NULL OR snapshot_date >= $2)
  AND ($3::date IS NULL OR snapshot_date <= $3)`,
		projectID, dateArg(bounds.FromDate), dateArg(bounds.ToDate))
	if err != nil {
		return mapError("delete snapshots", err, zonesnapshot.ErrRelationMissing, nil)
	}
	s.logger.Debug("snapshots deleted",
		zap.String("project_id", projectID),
		zap.Int64("deleted", tag.RowsAffected()))
	return nil
}

// ReplaceRange deletes a project's snapshots in bounds and inserts rows in
// batches within one transaction, so readers never see the range empty.
func (s *SnapshotStore) ReplaceRange(ctx context.Context, projectID string, bounds daterange.Bounds, rows []models.ZoneDailySnapshotRow, batchSize int) error {
	if batchSize <= 0 {
		batchSize = zonesnapshot.DefaultBatchSize
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.deleteRange(ctx, tx, projectID, bounds); err != nil {
			return err
		}
		for start := 0; start < len(rows); start += batchSize {
			if err := s.write(ctx, tx, "insert snapshots", rows[start:min(start+batchSize, len(rows))], false); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns a project's snapshots in bounds ordered by date then zone.
func (s *SnapshotStore) List(ctx context.Context, projectID string, bounds daterange.Bounds) ([]models.ZoneDailySnapshotRow, error) {
	sql := `SELECT ` + strings.Join(snapshotColumns, ", ") + ` FROM zone_daily_snapshots
WHERE project_id = $1
  AND ($2::date IS NULL OR snapshot_date >= $2)
  AND ($3::date IS NULL OR snapshot_date <= $3)
ORDER BY snapshot_date ASC, zone_key ASC`

	rows, err := s.pool.Query(ctx, sql, projectID, dateArg(bounds.FromDate), dateArg(bounds.ToDate))
	if err != nil {
		return nil, mapError("list snapshots", err, zonesnapshot.ErrRelationMissing, nil)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ZoneDailySnapshotRow, error) {
		var (
			r       models.ZoneDailySnapshotRow
			day     time.Time
			last    *time.Time
			buildID *string
		)
		err := row.Scan(
			&r.ProjectID, &day, &r.ZoneKey, &r.MacroZone, &r.MicroZone, &r.Zone,
			&r.CumulativeFt, &r.CumulativeBotes, &r.CumulativeRolls, &r.CumulativeSeams,
			&r.CapturesCount, &last, &buildID, &r.ComputedAt,
		)
		if err != nil {
			return r, err
		}
		r.SnapshotDate = day.Format(daterange.DateLayout)
		if last != nil {
			at := last.UTC().Format(daterange.ISOLayout)
			r.LastCaptureAt = &at
		}
		if buildID != nil {
			r.BuildID = *buildID
		}
		r.ComputedAt = r.ComputedAt.UTC()
		return r, nil
	})
	if err != nil {
		return nil, mapError("list snapshots", err, zonesnapshot.ErrRelationMissing, nil)
	}
	if out == nil {
		out = []models.ZoneDailySnapshotRow{}
	}
	return out, nil
}
