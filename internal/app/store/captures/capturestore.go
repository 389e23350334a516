// internal/app/store/captures/capturestore.go
package captures

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Store reads raw captures from the MongoDB capture collections.
// created_at is expected to be a BSON date.
type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

// New creates a capture Store.
func New(db *mongo.Database, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, logger: logger}
}

func (s *Store) exists(ctx context.Context, table string) (bool, error) {
	names, err := s.db.ListCollectionNames(ctx, bson.M{"name": table})
	if err != nil {
		return false, err
	}
	return len(names) > 0, nil
}

// ListCaptures returns table's captures for q ordered by created_at. A
// collection that does not exist yields Missing instead of an error.
func (s *Store) ListCaptures(ctx context.Context, table string, q captureexport.Query) (captureexport.SourceResult, error) {
	ok, err := s.exists(ctx, table)
	if err != nil {
		return captureexport.SourceResult{}, fmt.Errorf("list collections: %w", err)
	}
	if !ok {
		return captureexport.SourceResult{Missing: true}, nil
	}

	filter := bson.M{"project_id": q.ProjectID}
	created := bson.M{}
	if q.From != nil {
		created["$gte"] = *q.From
	}
	if q.ToExclusive != nil {
		created["$lt"] = *q.ToExclusive
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.db.Collection(table).Find(ctx, filter, opts)
	if err != nil {
		return captureexport.SourceResult{}, err
	}
	defer cur.Close(ctx)

	var rows []models.RawRecord
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return captureexport.SourceResult{}, err
		}
		rows = append(rows, models.RawRecord(plainMap(doc)))
	}
	if err := cur.Err(); err != nil {
		return captureexport.SourceResult{}, err
	}

	s.logger.Debug("captures listed",
		zap.String("collection", table),
		zap.String("project_id", q.ProjectID),
		zap.Int("rows", len(rows)))

	return captureexport.SourceResult{Rows: rows}, nil
}

// ListRecentProjects returns the distinct project ids with captures created
// at or after since, across every existing capture collection.
func (s *Store) ListRecentProjects(ctx context.Context, since time.Time) ([]string, error) {
	seen := map[string]struct{}{}
	for _, table := range captureexport.SourceTables {
		ok, err := s.exists(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("list collections: %w", err)
		}
		if !ok {
			continue
		}
		vals, err := s.db.Collection(table).Distinct(ctx, "project_id", bson.M{"created_at": bson.M{"$gte": since}})
		if err != nil {
			return nil, fmt.Errorf("distinct %s: %w", table, err)
		}
		for _, v := range vals {
			if id, ok := v.(string); ok && id != "" {
				seen[id] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// plainMap converts a decoded document into plain Go values so the
// normaliser never sees driver types.
func plainMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch x := v.(type) {
	case bson.M:
		return plainMap(x)
	case map[string]any:
		return plainMap(x)
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = plain(e)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC()
	case primitive.ObjectID:
		return x.Hex()
	case primitive.Decimal128:
		return x.String()
	case int32:
		return int64(x)
	default:
		return v
	}
}
