// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/tasks"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs once after the backend is connected and indexed, before the
// handler is built. It applies timeout overrides and starts the background
// snapshot refresh when enabled.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeout overrides applied", zap.Int("count", n), zap.Any("timeouts", timeouts.Current()))
	}

	if !appCfg.SnapshotRefreshEnabled {
		logger.Info("scheduled snapshot refresh disabled")
		return nil
	}

	startTaskRunner(appCfg, deps, logger)
	return nil
}

// taskRunner is the global task runner instance, used for graceful shutdown.
var taskRunner *tasks.Runner

// newSnapshotService builds the rebuild pipeline shared by the HTTP handler
// and the refresh job.
func newSnapshotService(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *zonesnapshot.Service {
	fetcher := captureexport.NewFetcher(deps.Captures, logger)
	return zonesnapshot.NewService(fetcher, deps.Snapshots, appCfg.SnapshotBatchSize, logger)
}

func startTaskRunner(appCfg AppConfig, deps DBDeps, logger *zap.Logger) {
	taskRunner = tasks.New(logger)

	taskRunner.Register(tasks.SnapshotRefreshJob(
		newSnapshotService(appCfg, deps, logger),
		deps.Projects,
		tasks.RefreshConfig{
			Interval:     appCfg.SnapshotRefreshInterval,
			Timeout:      appCfg.SnapshotRefreshInterval,
			LookbackDays: appCfg.SnapshotRefreshLookbackDays,
		},
		logger,
	))

	taskRunner.Start()
}
