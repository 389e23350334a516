// internal/app/system/captureexport/fetcher.go
// Package captureexport reads the three capture collections for a project,
// normalises every record into a CaptureExportRow and orders the result.
package captureexport

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Params are the raw request inputs. Dates are revalidated.
type Params struct {
	ProjectID string
	FromDate  string
	ToDate    string
}

// Result is a sorted row set plus the names of collections that did not
// exist, in SourceTables order.
type Result struct {
	Rows             []models.CaptureExportRow
	RelationWarnings []string
	Bounds           daterange.Bounds
}

// Fetcher fans out over the capture collections of one Source.
type Fetcher struct {
	src    Source
	logger *zap.Logger
}

// NewFetcher creates a Fetcher. A nil logger is replaced with a no-op logger.
func NewFetcher(src Source, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{src: src, logger: logger}
}

// Fetch queries every capture collection concurrently. A missing collection
// becomes a relation warning; any other error aborts the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, p Params) (Result, error) {
	bounds := daterange.GetDateRangeBounds(p.FromDate, p.ToDate)
	q := Query{ProjectID: p.ProjectID, From: bounds.From, ToExclusive: bounds.ToExclusive}

	results := make([]SourceResult, len(SourceTables))
	g, gctx := errgroup.WithContext(ctx)
	for i, table := range SourceTables {
		g.Go(func() error {
			res, err := f.src.ListCaptures(gctx, table, q)
			if errors.Is(err, ErrRelationMissing) {
				results[i] = SourceResult{Missing: true}
				return nil
			}
			if err != nil {
				return fmt.Errorf("fetch %s: %w", table, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	out := Result{Bounds: bounds, Rows: []models.CaptureExportRow{}}
	dropped := 0
	for i, table := range SourceTables {
		res := results[i]
		if res.Missing {
			out.RelationWarnings = append(out.RelationWarnings, table)
			f.logger.Warn("capture relation missing",
				zap.String("table", table),
				zap.String("project_id", p.ProjectID))
			continue
		}
		for _, raw := range res.Rows {
			row, ok := Normalize(table, raw)
			if !ok {
				dropped++
				continue
			}
			if row.ProjectID == "" {
				row.ProjectID = p.ProjectID
			}
			out.Rows = append(out.Rows, row)
		}
	}

	SortRows(out.Rows)

	f.logger.Debug("captures fetched",
		zap.String("project_id", p.ProjectID),
		zap.String("from", bounds.FromDate),
		zap.String("to", bounds.ToDate),
		zap.Int("rows", len(out.Rows)),
		zap.Int("dropped", dropped),
		zap.Strings("relation_warnings", out.RelationWarnings))

	return out, nil
}

// SortRows orders rows by created_at ascending, ties by module name.
func SortRows(rows []models.CaptureExportRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedTime.Equal(b.CreatedTime) {
			return a.CreatedTime.Before(b.CreatedTime)
		}
		return a.Module < b.Module
	})
}
