// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SnapshotKey is the composite key snapshot upserts resolve on.
var SnapshotKey = bson.D{
	{Key: "project_id", Value: 1},
	{Key: "snapshot_date", Value: 1},
	{Key: "zone_key", Value: 1},
}

// SnapshotKeyIndexName names the unique index over SnapshotKey.
const SnapshotKeyIndexName = "uniq_zone_daily_snapshots_key"

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
Capture collections belong to the capture app; they only get read indexes
when they already exist, so a missing one still reads as a relation warning.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	existing, err := db.ListCollectionNames(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	present := make(map[string]bool, len(existing))
	for _, name := range existing {
		present[name] = true
	}

	for _, name := range []string{
		models.CollectionFieldRecords,
		models.CollectionRollInstallation,
		models.CollectionMaterialRecords,
	} {
		if !present[name] {
			zap.L().Info("capture collection absent, skipping indexes", zap.String("collection", name))
			continue
		}
		if err := ensureCaptures(ctx, db, name); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}
	if err := ensureZoneDailySnapshots(ctx, db); err != nil {
		problems = append(problems, models.CollectionZoneDailySnapshots+": "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Core helper: reconcile a set of desired indexes for one collection         */
/* -------------------------------------------------------------------------- */

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func isTrue(b *bool) bool {
	return b != nil && *b
}

// isDuplicateKeyErr reports E11000 from either a write or a command.
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 11000 {
		return true
	}
	return strings.Contains(err.Error(), "E11000")
}

// listIndexes maps key signature to the existing index.
func listIndexes(ctx context.Context, coll *mongo.Collection) (map[string]existingIndex, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]existingIndex{}
	for cur.Next(ctx) {
		var idx existingIndex
		if err := cur.Decode(&idx); err != nil {
			zap.L().Warn("failed to decode existing index",
				zap.String("collection", coll.Name()),
				zap.Error(err))
			continue
		}
		out[keySig(idx.Key)] = idx
	}
	return out, cur.Err()
}

// HasUniqueIndex reports whether coll carries a unique index over exactly keys.
func HasUniqueIndex(ctx context.Context, coll *mongo.Collection, keys bson.D) (bool, error) {
	existing, err := listIndexes(ctx, coll)
	if err != nil {
		return false, err
	}
	idx, ok := existing[keySig(keys)]
	return ok && isTrue(idx.Unique), nil
}

func ensureIndexSet(ctx context.Context, coll *mongo.Collection, desired []mongo.IndexModel) error {
	var errs []string

	existing, err := listIndexes(ctx, coll)
	if err != nil {
		// A collection that does not exist yet has no indexes to reconcile.
		existing = map[string]existingIndex{}
	}

	for _, m := range desired {
		var name string
		var unique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				name = *m.Options.Name
			}
			unique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))
		start := time.Now()

		if ex, ok := existing[sig]; ok {
			if isTrue(unique) == isTrue(ex.Unique) {
				zap.L().Debug("reusing existing index",
					zap.String("collection", coll.Name()),
					zap.String("name", ex.Name),
					zap.String("keys", sig))
				continue
			}
			// Uniqueness changed: drop and recreate under the desired options.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), name, err))
				continue
			}
		}

		created, err := coll.Indexes().CreateOne(ctx, m)
		if err != nil {
			if isDuplicateKeyErr(err) && isTrue(unique) {
				errs = append(errs, fmt.Sprintf("%s(%s): cannot create unique index (duplicates present)", coll.Name(), name))
			} else {
				errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), name, err))
			}
			zap.L().Warn("index ensure failed",
				zap.String("collection", coll.Name()),
				zap.String("name", name),
				zap.String("keys", sig),
				zap.Error(err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", created),
			zap.String("keys", sig),
			zap.Bool("unique", isTrue(unique)),
			zap.String("took", time.Since(start).String()))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

/* -------------------------------------------------------------------------- */
/* Collection-specific index sets                                              */
/* -------------------------------------------------------------------------- */

func ensureCaptures(ctx context.Context, db *mongo.Database, name string) error {
	return ensureIndexSet(ctx, db.Collection(name), []mongo.IndexModel{
		// Export and snapshot reads: project + created_at range, ascending
		{
			Keys: bson.D{
				{Key: "project_id", Value: 1},
				{Key: "created_at", Value: 1},
			},
			Options: options.Index().SetName("idx_" + name + "_project_created"),
		},
		// Project discovery for the refresh job
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_" + name + "_created"),
		},
	})
}

func ensureZoneDailySnapshots(ctx context.Context, db *mongo.Database) error {
	return ensureIndexSet(ctx, db.Collection(models.CollectionZoneDailySnapshots), []mongo.IndexModel{
		{
			Keys:    SnapshotKey,
			Options: options.Index().SetUnique(true).SetName(SnapshotKeyIndexName),
		},
		// Latest build lookups
		{
			Keys:    bson.D{{Key: "project_id", Value: 1}, {Key: "build_id", Value: 1}},
			Options: options.Index().SetName("idx_zone_daily_snapshots_project_build"),
		},
	})
}
