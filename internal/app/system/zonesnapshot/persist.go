// internal/app/system/zonesnapshot/persist.go
package zonesnapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.uber.org/zap"
)

// DefaultBatchSize is the number of rows written per store call.
const DefaultBatchSize = 500

var (
	// ErrRelationMissing means the snapshot collection or table does not
	// exist. Fatal on writes; reads degrade to an empty result.
	ErrRelationMissing = errors.New("snapshot relation does not exist")

	// ErrNoConflictConstraint means the store has no unique constraint on
	// (project_id, snapshot_date, zone_key), so upserts cannot be resolved.
	ErrNoConflictConstraint = errors.New("no unique constraint matches the snapshot conflict key")
)

// Store is the snapshot sink.
type Store interface {
	// Upsert writes rows keyed by (project_id, snapshot_date, zone_key).
	Upsert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error
	// Insert writes rows without conflict resolution.
	Insert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error
	// DeleteRange removes a project's rows with snapshot_date inside bounds.
	// An unbounded side is open.
	DeleteRange(ctx context.Context, projectID string, bounds daterange.Bounds) error
}

// RangeReplacer is implemented by stores that can run the fallback
// delete-then-insert as one unit.
type RangeReplacer interface {
	ReplaceRange(ctx context.Context, projectID string, bounds daterange.Bounds, rows []models.ZoneDailySnapshotRow, batchSize int) error
}

// Reader lists persisted snapshots ordered by snapshot_date then zone_key.
type Reader interface {
	List(ctx context.Context, projectID string, bounds daterange.Bounds) ([]models.ZoneDailySnapshotRow, error)
}

// PersistResult reports how rows were written.
type PersistResult struct {
	Persisted          int
	UsedFallbackInsert bool
}

// Persist upserts rows in batches. When the store reports a missing
// conflict constraint it deletes the project's rows inside bounds once and
// plain-inserts every row, still batched. Batches run sequentially.
func Persist(ctx context.Context, store Store, projectID string, bounds daterange.Bounds, rows []models.ZoneDailySnapshotRow, batchSize int, logger *zap.Logger) (PersistResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	var res PersistResult
	for start := 0; start < len(rows); start += batchSize {
		batch := rows[start:min(start+batchSize, len(rows))]

		err := store.Upsert(ctx, batch)
		if errors.Is(err, ErrNoConflictConstraint) {
			logger.Warn("snapshot upsert unsupported, replacing range",
				zap.String("project_id", projectID),
				zap.String("from", bounds.FromDate),
				zap.String("to", bounds.ToDate))
			return replaceRange(ctx, store, projectID, bounds, rows, batchSize)
		}
		if err != nil {
			return res, fmt.Errorf("upsert snapshots: %w", err)
		}
		res.Persisted += len(batch)
	}
	return res, nil
}

func replaceRange(ctx context.Context, store Store, projectID string, bounds daterange.Bounds, rows []models.ZoneDailySnapshotRow, batchSize int) (PersistResult, error) {
	res := PersistResult{UsedFallbackInsert: true}
	if rr, ok := store.(RangeReplacer); ok {
		if err := rr.ReplaceRange(ctx, projectID, bounds, rows, batchSize); err != nil {
			return res, fmt.Errorf("replace snapshot range: %w", err)
		}
		res.Persisted = len(rows)
		return res, nil
	}
	if err := store.DeleteRange(ctx, projectID, bounds); err != nil {
		return res, fmt.Errorf("delete snapshot range: %w", err)
	}
	for start := 0; start < len(rows); start += batchSize {
		batch := rows[start:min(start+batchSize, len(rows))]
		if err := store.Insert(ctx, batch); err != nil {
			return res, fmt.Errorf("insert snapshots: %w", err)
		}
		res.Persisted += len(batch)
	}
	return res, nil
}
