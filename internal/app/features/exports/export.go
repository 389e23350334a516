// internal/app/features/exports/export.go
package exports

import (
	"net/http"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/download"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/inputval"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/jsonutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/normalize"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/xlsxutil"
	"go.uber.org/zap"
)

type exportQuery struct {
	Project string `validate:"required" label:"project"`
	Format  string `validate:"captureformat" label:"format"`
}

// ServeProjectCSV exports one project's captures.
//
// Query: project (required), from, to (YYYY-MM-DD, optional), format
// (csv by default, or xlsx).
func (h *Handler) ServeProjectCSV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	in := exportQuery{
		Project: normalize.QueryParam(q.Get("project")),
		Format:  normalize.Format(q.Get("format")),
	}
	if res := inputval.Validate(in); res.HasErrors() {
		jsonutil.BadRequest(w, res.First())
		return
	}
	projectID, format := in.Project, in.Format
	if format == "" {
		format = download.FormatCSV
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), h.Timeout, h.Log, "capture export")
	defer cancel()

	res, err := h.Fetcher.Fetch(ctx, captureexport.Params{
		ProjectID: projectID,
		FromDate:  q.Get("from"),
		ToDate:    q.Get("to"),
	})
	if err != nil {
		h.ErrLog.LogWithFields(r, "capture export failed", err, zap.String("project_id", projectID))
		jsonutil.InternalError(w, err.Error())
		return
	}

	var body []byte
	if format == download.FormatXLSX {
		body, err = xlsxutil.Encode("captures", captureexport.ExportColumns, res.Rows)
		if err != nil {
			h.ErrLog.LogWithFields(r, "capture export xlsx encode failed", err, zap.String("project_id", projectID))
			jsonutil.InternalError(w, err.Error())
			return
		}
	} else {
		body = []byte(captureexport.EncodeCSV(res.Rows))
	}

	meta := download.Meta{
		Filename:         download.Filename("captures", projectID, res.Bounds, format),
		ContentType:      download.ContentType(format),
		RowCount:         len(res.Rows),
		RelationWarnings: res.RelationWarnings,
	}
	if err := download.Write(w, meta, body); err != nil {
		h.Log.Warn("capture export write failed", zap.Error(err))
		return
	}

	h.Log.Info("capture export served",
		zap.String("project_id", projectID),
		zap.String("format", format),
		zap.Int("rows", len(res.Rows)),
		zap.Strings("relation_warnings", res.RelationWarnings))
}
