// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/health"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds the backend clients created in ConnectDB and the store
// implementations built on them. Exactly one backend is populated.
type DBDeps struct {
	Backend string

	// MongoDB client and database (store_backend=mongo)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// PostgreSQL pool (store_backend=postgres)
	PgPool *pgxpool.Pool

	// Store contracts, whichever backend serves them.
	Captures       captureexport.Source
	Projects       captureexport.ProjectLister
	Snapshots      zonesnapshot.Store
	SnapshotReader zonesnapshot.Reader

	// Health probes for the active backend.
	HealthChecks []health.Check
}
