// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"go.uber.org/zap"
)

// SnapshotRefreshName is the registered name of the snapshot refresh job.
const SnapshotRefreshName = "zone-snapshot-refresh"

// Refresher rewrites one project's snapshots for a date window, carrying in
// totals from captures before it.
type Refresher interface {
	Refresh(ctx context.Context, projectID, fromDate, toDate string) (zonesnapshot.RebuildResult, error)
}

// RefreshConfig configures SnapshotRefreshJob.
type RefreshConfig struct {
	Interval     time.Duration
	Timeout      time.Duration
	LookbackDays int
	// Now defaults to time.Now.
	Now func() time.Time
}

// RefreshWindow returns the trailing window [today-lookback+1, today] in UTC.
func RefreshWindow(now time.Time, lookbackDays int) (fromDate, toDate string) {
	if lookbackDays < 1 {
		lookbackDays = 1
	}
	today := now.UTC()
	from := today.AddDate(0, 0, -(lookbackDays - 1))
	return from.Format(daterange.DateLayout), today.Format(daterange.DateLayout)
}

// SnapshotRefreshJob rewrites the trailing window for every project with
// captures inside it. Cumulative totals still start at each project's first
// capture. A failing project does not stop the others; all failures are
// returned joined.
func SnapshotRefreshJob(svc Refresher, lister captureexport.ProjectLister, cfg RefreshConfig, logger *zap.Logger) Job {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return Job{
		Name:           SnapshotRefreshName,
		Interval:       cfg.Interval,
		Timeout:        cfg.Timeout,
		SkipInitialRun: true,
		Run: func(ctx context.Context) error {
			fromDate, toDate := RefreshWindow(now(), cfg.LookbackDays)
			since := daterange.GetDateRangeBounds(fromDate, toDate).From

			projects, err := lister.ListRecentProjects(ctx, *since)
			if err != nil {
				return fmt.Errorf("list recent projects: %w", err)
			}

			var errs []error
			rebuilt := 0
			for _, projectID := range projects {
				if ctx.Err() != nil {
					errs = append(errs, ctx.Err())
					break
				}
				res, err := svc.Refresh(ctx, projectID, fromDate, toDate)
				if err != nil {
					logger.Warn("snapshot refresh failed for project",
						zap.String("project_id", projectID),
						zap.Error(err))
					errs = append(errs, fmt.Errorf("project %s: %w", projectID, err))
					continue
				}
				rebuilt++
				logger.Debug("snapshot refreshed",
					zap.String("project_id", projectID),
					zap.Int("rows", len(res.Rows)),
					zap.Bool("used_fallback_insert", res.Persist.UsedFallbackInsert))
			}

			if len(projects) > 0 {
				logger.Info("snapshot refresh finished",
					zap.String("from", fromDate),
					zap.String("to", toDate),
					zap.Int("projects", len(projects)),
					zap.Int("rebuilt", rebuilt))
			}
			return errors.Join(errs...)
		},
	}
}
