// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/health"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/store/captures"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/store/pgstore"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/store/snapshots"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/indexes"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// ConnectDB connects the configured store backend and builds the capture
// source and snapshot sink on it.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	switch appCfg.StoreBackend {
	case BackendPostgres:
		return connectPostgres(ctx, appCfg, logger)
	case BackendMongo:
		return connectMongo(ctx, appCfg, logger)
	}
	return DBDeps{}, fmt.Errorf("unknown store_backend %q", appCfg.StoreBackend)
}

func connectMongo(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}
	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	captureStore := captures.New(db, logger)
	snapshotStore := snapshots.New(db, logger)
	return DBDeps{
		Backend:        BackendMongo,
		MongoClient:    client,
		MongoDatabase:  db,
		Captures:       captureStore,
		Projects:       captureStore,
		Snapshots:      snapshotStore,
		SnapshotReader: snapshotStore,
		HealthChecks:   []health.Check{{Name: "mongodb", Pinger: health.MongoPinger(client)}},
	}, nil
}

func connectPostgres(ctx context.Context, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	pool, err := pgstore.Open(ctx, pgstore.Config{
		DSN:              appCfg.PostgresDSN,
		MaxConns:         appCfg.PostgresMaxConns,
		MinConns:         appCfg.PostgresMinConns,
		MaxConnLifetime:  appCfg.PostgresMaxConnLifetime,
		MaxConnIdleTime:  appCfg.PostgresMaxConnIdleTime,
		DialTimeout:      appCfg.PostgresDialTimeout,
		StatementTimeout: appCfg.PostgresStatementTimeout,
	}, logger)
	if err != nil {
		return DBDeps{}, err
	}

	captureStore := pgstore.NewCaptureStore(pool, logger)
	snapshotStore := pgstore.NewSnapshotStore(pool, logger)
	return DBDeps{
		Backend:        BackendPostgres,
		PgPool:         pool,
		Captures:       captureStore,
		Projects:       captureStore,
		Snapshots:      snapshotStore,
		SnapshotReader: snapshotStore,
		HealthChecks: []health.Check{{
			Name: "postgres",
			Pinger: health.PingFunc(func(ctx context.Context) error {
				return pgstore.HealthCheck(ctx, pool, timeouts.Ping())
			}),
		}},
	}, nil
}

// EnsureSchema creates the snapshot collection with its validator and the
// MongoDB indexes, including the unique snapshot key the upsert path relies
// on. The relational schema is managed externally; postgres is a no-op.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if deps.Backend != BackendMongo {
		logger.Info("relational schema is managed externally; skipping index setup",
			zap.String("backend", deps.Backend))
		return nil
	}

	logger.Info("ensuring collections and validators")
	if err := validators.EnsureAll(ctx, deps.MongoDatabase, logger); err != nil {
		logger.Error("failed to ensure validators", zap.Error(err))
		return err
	}

	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
