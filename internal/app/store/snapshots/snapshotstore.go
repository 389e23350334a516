// internal/app/store/snapshots/snapshotstore.go
package snapshots

import (
	"context"
	"fmt"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/indexes"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/txn"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store persists zone daily snapshots in MongoDB.
type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	logger *zap.Logger
}

// New creates a snapshot Store.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		c:      db.Collection(models.CollectionZoneDailySnapshots),
		logger: logger,
	}
}

// requireCollection returns ErrRelationMissing when the collection is absent.
// Writes would otherwise create it implicitly without the unique key.
func (s *Store) requireCollection(ctx context.Context) error {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": models.CollectionZoneDailySnapshots})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(names) == 0 {
		return zonesnapshot.ErrRelationMissing
	}
	return nil
}

func keyFilter(r models.ZoneDailySnapshotRow) bson.M {
	return bson.M{
		"project_id":    r.ProjectID,
		"snapshot_date": r.SnapshotDate,
		"zone_key":      r.ZoneKey,
	}
}

// Upsert replaces rows by (project_id, snapshot_date, zone_key). It returns
// ErrNoConflictConstraint when the unique key index is missing, since
// concurrent upserts could otherwise duplicate rows.
func (s *Store) Upsert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.requireCollection(ctx); err != nil {
		return err
	}
	ok, err := indexes.HasUniqueIndex(ctx, s.c, indexes.SnapshotKey)
	if err != nil {
		return fmt.Errorf("list snapshot indexes: %w", err)
	}
	if !ok {
		return zonesnapshot.ErrNoConflictConstraint
	}

	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, r := range rows {
		writes = append(writes, mongo.NewReplaceOneModel().
			SetFilter(keyFilter(r)).
			SetReplacement(r).
			SetUpsert(true))
	}
	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return err
	}

	s.logger.Debug("snapshots upserted",
		zap.Int("rows", len(rows)),
		zap.Int64("upserted", res.UpsertedCount),
		zap.Int64("modified", res.ModifiedCount))
	return nil
}

// Insert writes rows as new documents.
func (s *Store) Insert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.requireCollection(ctx); err != nil {
		return err
	}
	return s.insert(ctx, rows)
}

func (s *Store) insert(ctx context.Context, rows []models.ZoneDailySnapshotRow) error {
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	if _, err := s.c.InsertMany(ctx, docs); err != nil {
		return err
	}
	s.logger.Debug("snapshots inserted", zap.Int("rows", len(rows)))
	return nil
}

func rangeFilter(projectID string, bounds daterange.Bounds) bson.M {
	filter := bson.M{"project_id": projectID}
	dates := bson.M{}
	if bounds.FromDate != "" {
		dates["$gte"] = bounds.FromDate
	}
	if bounds.ToDate != "" {
		dates["$lte"] = bounds.ToDate
	}
	if len(dates) > 0 {
		filter["snapshot_date"] = dates
	}
	return filter
}

// DeleteRange removes a project's snapshots with snapshot_date in bounds.
func (s *Store) DeleteRange(ctx context.Context, projectID string, bounds daterange.Bounds) error {
	if err := s.requireCollection(ctx); err != nil {
		return err
	}
	return s.deleteRange(ctx, projectID, bounds)
}

func (s *Store) deleteRange(ctx context.Context, projectID string, bounds daterange.Bounds) error {
	res, err := s.c.DeleteMany(ctx, rangeFilter(projectID, bounds))
	if err != nil {
		return err
	}
	s.logger.Debug("snapshots deleted",
		zap.String("project_id", projectID),
		zap.String("from", bounds.FromDate),
		zap.String("to", bounds.ToDate),
		zap.Int64("deleted", res.DeletedCount))
	return nil
}

// ReplaceRange deletes a project's snapshots in bounds and inserts rows in
// batches inside one transaction. Deployments without transactions run the
// same steps unwrapped.
func (s *Store) ReplaceRange(ctx context.Context, projectID string, bounds daterange.Bounds, rows []models.ZoneDailySnapshotRow, batchSize int) error {
	if err := s.requireCollection(ctx); err != nil {
		return err
	}
	if batchSize <= 0 {
		batchSize = zonesnapshot.DefaultBatchSize
	}
	return txn.Run(ctx, s.db, s.logger, func(ctx context.Context) error {
		if err := s.deleteRange(ctx, projectID, bounds); err != nil {
			return fmt.Errorf("delete: %w", err)
		}
		for start := 0; start < len(rows); start += batchSize {
			if err := s.insert(ctx, rows[start:min(start+batchSize, len(rows))]); err != nil {
				return fmt.Errorf("insert: %w", err)
			}
		}
		return nil
	})
}

// List returns a project's snapshots in bounds ordered by date then zone.
func (s *Store) List(ctx context.Context, projectID string, bounds daterange.Bounds) ([]models.ZoneDailySnapshotRow, error) {
	if err := s.requireCollection(ctx); err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "snapshot_date", Value: 1},
		{Key: "zone_key", Value: 1},
	})
	cur, err := s.c.Find(ctx, rangeFilter(projectID, bounds), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.ZoneDailySnapshotRow{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
