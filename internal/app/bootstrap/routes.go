// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	errorsfeature "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/errors"
	exportsfeature "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/exports"
	healthfeature "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/health"
	snapshotsfeature "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/snapshots"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/apicors"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root router:
//
//	/health, /ready, /readyz, /livez     backend probes
//	GET  /api/exports/project-csv        capture export (csv|xlsx)
//	POST /api/snapshots/zone-daily       rebuild + persist snapshots
//	GET  /api/snapshots/zone-daily       persisted snapshots (json|csv|xlsx)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	errLog := errorsfeature.NewErrorLogger(logger)
	errorsHandler := errorsfeature.NewHandler()

	fetcher := captureexport.NewFetcher(deps.Captures, logger)
	exportsHandler := exportsfeature.NewHandler(fetcher, appCfg.ExportTimeout, errLog, logger)
	snapshotsHandler := snapshotsfeature.NewHandler(
		newSnapshotService(appCfg, deps, logger),
		deps.SnapshotReader,
		appCfg.ExportTimeout,
		errLog,
		logger,
	)
	healthHandler := healthfeature.NewHandler(logger, deps.HealthChecks...)

	r := chi.NewRouter()

	// Global middleware. The request timeout leaves headroom over the
	// handlers' own export budget.
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(appCfg.ExportTimeout + 5*time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.Route("/api", func(api chi.Router) {
		api.Use(apicors.FromList(appCfg.APIAllowedOrigins))
		api.Mount("/exports", exportsfeature.Routes(exportsHandler))
		api.Mount("/snapshots", snapshotsfeature.Routes(snapshotsHandler))
	})

	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	logger.Info("routes mounted",
		zap.String("backend", deps.Backend),
		zap.Bool("snapshot_refresh", appCfg.SnapshotRefreshEnabled))

	return r, nil
}
