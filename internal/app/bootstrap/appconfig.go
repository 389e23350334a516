// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// Store backends.
const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging, CORS and body limits.
// AppConfig covers the store backend, snapshot persistence and the
// scheduled refresh.
type AppConfig struct {
	// StoreBackend selects where captures are read and snapshots written:
	// "mongo" or "postgres".
	StoreBackend string

	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// PostgreSQL connection configuration
	PostgresDSN              string
	PostgresMaxConns         int32
	PostgresMinConns         int32
	PostgresMaxConnLifetime  time.Duration
	PostgresMaxConnIdleTime  time.Duration
	PostgresDialTimeout      time.Duration
	PostgresStatementTimeout time.Duration

	// Snapshot persistence
	SnapshotBatchSize int // rows per upsert/insert batch (default: 500)

	// Scheduled snapshot refresh
	SnapshotRefreshEnabled      bool
	SnapshotRefreshInterval     time.Duration // default: 1h
	SnapshotRefreshLookbackDays int           // trailing window in days (default: 7)

	// HTTP
	ExportTimeout     time.Duration // per-request budget for exports and rebuilds (default: 60s)
	APIAllowedOrigins string        // comma-separated; empty or "*" allows any origin
}
