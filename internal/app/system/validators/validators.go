// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates the collections this service writes (if missing) and
// tries to attach JSON-Schema validators. Capture collections belong to the
// field app and are left alone. On servers that don't support
// collMod/validators (e.g. some DocumentDB versions), we log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll, logger); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema, logger); err != nil {
			if isNoSuchCommand(err) || isNotImplemented(err) {
				logger.Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(models.CollectionZoneDailySnapshots, zoneDailySnapshotSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func collectionExists(ctx context.Context, db *mongo.Database, name string) (bool, error) {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ensureCollection returns created==true only if this call created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, logger *zap.Logger) (created bool, err error) {
	exists, listErr := collectionExists(ctx, db, name)
	if listErr == nil && exists {
		return false, nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return false, nil
		}
		logger.Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	logger.Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M, logger *zap.Logger) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	logger.Info("validator ensured", zap.String("collection", name))
	return nil
}

func commandErrorMatches(err error, code int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if ce.Code == code {
			return true
		}
		msg := strings.ToLower(ce.Message)
		for _, p := range phrases {
			if strings.Contains(msg, p) {
				return true
			}
		}
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

func isNamespaceExistsErr(err error) bool {
	return commandErrorMatches(err, 48, "already exists", "namespace exists")
}

func isNoSuchCommand(err error) bool {
	return commandErrorMatches(err, 59, "no such command")
}

func isNotImplemented(err error) bool {
	return commandErrorMatches(err, 115, "not implemented", "not supported")
}

// zoneDailySnapshotSchema mirrors models.ZoneDailySnapshotRow.
func zoneDailySnapshotSchema() bson.M {
	number := bson.M{"bsonType": bson.A{"double", "int", "long", "decimal"}, "minimum": 0}
	nullableString := bson.M{"bsonType": bson.A{"string", "null"}}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"project_id", "snapshot_date", "zone_key", "captures_count", "build_id", "computed_at"},
			"properties": bson.M{
				"project_id":       bson.M{"bsonType": "string", "minLength": 1},
				"snapshot_date":    bson.M{"bsonType": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				"zone_key":         bson.M{"bsonType": "string", "minLength": 1},
				"macro_zone":       nullableString,
				"micro_zone":       nullableString,
				"zone":             nullableString,
				"cumulative_ft":    number,
				"cumulative_botes": number,
				"cumulative_rolls": number,
				"cumulative_seams": number,
				"captures_count":   bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"last_capture_at":  nullableString,
				"build_id":         bson.M{"bsonType": "string"},
				"computed_at":      bson.M{"bsonType": "date"},
			},
		},
	}
}
