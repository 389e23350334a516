// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for app environment variables
// (PULSE_STORE_BACKEND, PULSE_MONGO_URI, ...).
const EnvVarPrefix = "PULSE"

// appConfigKeys are loaded through WAFFLE with precedence
// flags > env > files > defaults.
var appConfigKeys = []config.AppKey{
	{Name: "store_backend", Default: BackendMongo, Desc: "Capture/snapshot store: 'mongo' or 'postgres'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "pulse", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	{Name: "postgres_dsn", Default: "", Desc: "PostgreSQL DSN (required when store_backend is postgres)"},
	{Name: "postgres_max_conns", Default: 20, Desc: "PostgreSQL max pool connections"},
	{Name: "postgres_min_conns", Default: 2, Desc: "PostgreSQL min pool connections"},
	{Name: "postgres_max_conn_lifetime", Default: "1h", Desc: "PostgreSQL max connection lifetime"},
	{Name: "postgres_max_conn_idle_time", Default: "15m", Desc: "PostgreSQL max connection idle time"},
	{Name: "postgres_dial_timeout", Default: "10s", Desc: "PostgreSQL connect timeout"},
	{Name: "postgres_statement_timeout", Default: "30s", Desc: "PostgreSQL statement_timeout (0 disables)"},

	{Name: "snapshot_batch_size", Default: 500, Desc: "Snapshot rows per upsert/insert batch"},

	{Name: "snapshot_refresh_enabled", Default: false, Desc: "Periodically rebuild recent zone snapshots"},
	{Name: "snapshot_refresh_interval", Default: "1h", Desc: "Snapshot refresh interval"},
	{Name: "snapshot_refresh_lookback_days", Default: 7, Desc: "Days of snapshots each refresh rebuilds"},

	{Name: "export_timeout", Default: "60s", Desc: "Timeout for export and snapshot requests"},
	{Name: "api_allowed_origins", Default: "", Desc: "Comma-separated origins allowed to call /api (empty allows any)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		StoreBackend: appValues.String("store_backend"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		PostgresDSN:              appValues.String("postgres_dsn"),
		PostgresMaxConns:         int32(appValues.Int("postgres_max_conns")),
		PostgresMinConns:         int32(appValues.Int("postgres_min_conns")),
		PostgresMaxConnLifetime:  appValues.Duration("postgres_max_conn_lifetime", time.Hour),
		PostgresMaxConnIdleTime:  appValues.Duration("postgres_max_conn_idle_time", 15*time.Minute),
		PostgresDialTimeout:      appValues.Duration("postgres_dial_timeout", 10*time.Second),
		PostgresStatementTimeout: appValues.Duration("postgres_statement_timeout", 30*time.Second),

		SnapshotBatchSize: appValues.Int("snapshot_batch_size"),

		SnapshotRefreshEnabled:      appValues.Bool("snapshot_refresh_enabled"),
		SnapshotRefreshInterval:     appValues.Duration("snapshot_refresh_interval", time.Hour),
		SnapshotRefreshLookbackDays: appValues.Int("snapshot_refresh_lookback_days"),

		ExportTimeout:     appValues.Duration("export_timeout", 60*time.Second),
		APIAllowedOrigins: appValues.String("api_allowed_origins"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configurations the service cannot start with.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := validateAppConfig(appCfg); err != nil {
		logger.Error("invalid configuration", zap.Error(err))
		return err
	}
	return nil
}

func validateAppConfig(appCfg AppConfig) error {
	switch appCfg.StoreBackend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required")
		}
	case BackendPostgres:
		if appCfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when store_backend is %q", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown store_backend %q (want %q or %q)", appCfg.StoreBackend, BackendMongo, BackendPostgres)
	}

	if appCfg.SnapshotBatchSize <= 0 {
		return fmt.Errorf("snapshot_batch_size must be positive, got %d", appCfg.SnapshotBatchSize)
	}
	if appCfg.SnapshotRefreshEnabled {
		if appCfg.SnapshotRefreshInterval <= 0 {
			return fmt.Errorf("snapshot_refresh_interval must be positive")
		}
		if appCfg.SnapshotRefreshLookbackDays < 1 {
			return fmt.Errorf("snapshot_refresh_lookback_days must be at least 1")
		}
	}
	return nil
}
