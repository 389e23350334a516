// internal/app/system/captureexport/columns.go
package captureexport

import (
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/csvutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

type exportRow = models.CaptureExportRow

// ExportColumns is the capture export column order.
var ExportColumns = []csvutil.Column[exportRow]{
	{Header: "project_id", Value: func(r exportRow) any { return r.ProjectID }},
	{Header: "created_at", Value: func(r exportRow) any { return r.CreatedAt }},
	{Header: "capture_date", Value: func(r exportRow) any { return r.CaptureDate }},
	{Header: "module", Value: func(r exportRow) any { return r.Module }},
	{Header: "capture_status", Value: func(r exportRow) any { return r.CaptureStatus }},
	{Header: "capture_session_id", Value: func(r exportRow) any { return r.CaptureSessionID }},
	{Header: "project_zone_id", Value: func(r exportRow) any { return r.ProjectZoneID }},
	{Header: "field_type", Value: func(r exportRow) any { return r.FieldType }},
	{Header: "macro_zone", Value: func(r exportRow) any { return r.MacroZone }},
	{Header: "micro_zone", Value: func(r exportRow) any { return r.MicroZone }},
	{Header: "zone", Value: func(r exportRow) any { return r.Zone }},
	{Header: "ft_totales", Value: func(r exportRow) any { return r.FtTotales }},
	{Header: "botes_usados", Value: func(r exportRow) any { return r.BotesUsados }},
	{Header: "total_rolls_used", Value: func(r exportRow) any { return r.TotalRollsUsed }},
	{Header: "total_seams", Value: func(r exportRow) any { return r.TotalSeams }},
	{Header: "roll_length_fit", Value: func(r exportRow) any { return r.RollLengthFit }},
	{Header: "compaction_surface_firm", Value: func(r exportRow) any { return r.CompactionSurfaceFirm }},
	{Header: "compaction_moisture_ok", Value: func(r exportRow) any { return r.CompactionMoistureOK }},
	{Header: "compaction_double_compaction", Value: func(r exportRow) any { return r.CompactionDoubleCompaction }},
	{Header: "material_type", Value: func(r exportRow) any { return r.MaterialType }},
	{Header: "material_pass_type", Value: func(r exportRow) any { return r.MaterialPassType }},
	{Header: "material_valve", Value: func(r exportRow) any { return r.MaterialValve }},
	{Header: "material_bags_expected", Value: func(r exportRow) any { return r.MaterialBagsExpected }},
	{Header: "material_bags_used", Value: func(r exportRow) any { return r.MaterialBagsUsed }},
	{Header: "material_deviation", Value: func(r exportRow) any { return r.MaterialDeviation }},
	{Header: "material_status", Value: func(r exportRow) any { return r.MaterialStatus }},
	{Header: "photos_count", Value: func(r exportRow) any { return r.PhotosCount }},
	{Header: "observaciones", Value: func(r exportRow) any { return r.Observaciones }},
}

// EncodeCSV renders rows with ExportColumns.
func EncodeCSV(rows []models.CaptureExportRow) string {
	return csvutil.Encode(ExportColumns, rows)
}
