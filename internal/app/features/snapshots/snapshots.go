// internal/app/features/snapshots/snapshots.go
package snapshots

import (
	"errors"
	"net/http"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/download"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/inputval"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/jsonutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/normalize"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/xlsxutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"go.uber.org/zap"
)

// ServeRebuild computes and persists a project's zone daily snapshots.
func (h *Handler) ServeRebuild(w http.ResponseWriter, r *http.Request) {
	var in rebuildRequest
	if err := jsonutil.Decode(w, r, &in); err != nil {
		jsonutil.BadRequest(w, "invalid JSON body")
		return
	}
	in.ProjectID = normalize.QueryParam(in.ProjectID)
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}
	projectID := in.ProjectID

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeout, h.Log, "zone snapshot rebuild")
	defer cancel()

	res, err := h.Service.Rebuild(ctx, projectID, in.FromDate, in.ToDate)
	if err != nil {
		h.ErrLog.LogWithFields(r, "zone snapshot rebuild failed", err, zap.String("project_id", projectID))
		jsonutil.InternalError(w, err.Error())
		return
	}

	warnings := res.RelationWarnings
	if warnings == nil {
		warnings = []string{}
	}
	jsonutil.OK(w, rebuildResponse{
		ProjectID:          projectID,
		FromDate:           daterange.Nullable(res.Bounds.FromDate),
		ToDate:             daterange.Nullable(res.Bounds.ToDate),
		SnapshotRows:       len(res.Rows),
		Zones:              res.Zones,
		Persisted:          res.Persist.Persisted,
		UsedFallbackInsert: res.Persist.UsedFallbackInsert,
		BuildID:            res.BuildID,
		RelationWarnings:   warnings,
	})
}

// ServeList returns persisted snapshots as JSON (default), CSV or XLSX.
//
// Query: project (required), from, to, format.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := listQuery{
		Project: normalize.QueryParam(q.Get("project")),
		Format:  normalize.Format(q.Get("format")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}
	projectID, format := in.Project, in.Format
	if format == "" {
		format = download.FormatJSON
	}

	bounds := daterange.GetDateRangeBounds(q.Get("from"), q.Get("to"))

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeout, h.Log, "zone snapshot list")
	defer cancel()

	rows, err := h.Reader.List(ctx, projectID, bounds)
	warnings := []string{}
	switch {
	case errors.Is(err, zonesnapshot.ErrRelationMissing):
		h.Log.Warn("snapshot relation missing on read",
			zap.String("project_id", projectID),
			zap.Error(err))
		rows = []models.ZoneDailySnapshotRow{}
		warnings = append(warnings, models.CollectionZoneDailySnapshots)
	case err != nil:
		h.ErrLog.LogWithFields(r, "zone snapshot list failed", err, zap.String("project_id", projectID))
		jsonutil.InternalError(w, err.Error())
		return
	}
	if rows == nil {
		rows = []models.ZoneDailySnapshotRow{}
	}

	if format == download.FormatJSON {
		jsonutil.OK(w, listResponse{
			ProjectID:        projectID,
			FromDate:         daterange.Nullable(bounds.FromDate),
			ToDate:           daterange.Nullable(bounds.ToDate),
			Rows:             rows,
			Count:            len(rows),
			RelationWarnings: warnings,
		})
		return
	}

	var body []byte
	if format == download.FormatXLSX {
		body, err = xlsxutil.Encode("zone_daily", zonesnapshot.Columns, rows)
		if err != nil {
			h.ErrLog.LogWithFields(r, "zone snapshot xlsx encode failed", err, zap.String("project_id", projectID))
			jsonutil.InternalError(w, err.Error())
			return
		}
	} else {
		body = []byte(zonesnapshot.EncodeCSV(rows))
	}

	meta := download.Meta{
		Filename:         download.Filename("zone-daily", projectID, bounds, format),
		ContentType:      download.ContentType(format),
		RowCount:         len(rows),
		RelationWarnings: warnings,
	}
	if err := download.Write(w, meta, body); err != nil {
		h.Log.Warn("zone snapshot write failed", zap.Error(err))
	}
}
