// internal/app/system/zonesnapshot/columns.go
package zonesnapshot

import (
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/csvutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

type snapshotRow = models.ZoneDailySnapshotRow

// Columns is the snapshot export column order.
var Columns = []csvutil.Column[snapshotRow]{
	{Header: "project_id", Value: func(r snapshotRow) any { return r.ProjectID }},
	{Header: "snapshot_date", Value: func(r snapshotRow) any { return r.SnapshotDate }},
	{Header: "zone_key", Value: func(r snapshotRow) any { return r.ZoneKey }},
	{Header: "macro_zone", Value: func(r snapshotRow) any { return r.MacroZone }},
	{Header: "micro_zone", Value: func(r snapshotRow) any { return r.MicroZone }},
	{Header: "zone", Value: func(r snapshotRow) any { return r.Zone }},
	{Header: "cumulative_ft", Value: func(r snapshotRow) any { return r.CumulativeFt }},
	{Header: "cumulative_botes", Value: func(r snapshotRow) any { return r.CumulativeBotes }},
	{Header: "cumulative_rolls", Value: func(r snapshotRow) any { return r.CumulativeRolls }},
	{Header: "cumulative_seams", Value: func(r snapshotRow) any { return r.CumulativeSeams }},
	{Header: "captures_count", Value: func(r snapshotRow) any { return r.CapturesCount }},
	{Header: "last_capture_at", Value: func(r snapshotRow) any { return r.LastCaptureAt }},
	{Header: "build_id", Value: func(r snapshotRow) any { return r.BuildID }},
	{Header: "computed_at", Value: func(r snapshotRow) any { return r.ComputedAt }},
}

// EncodeCSV renders rows with Columns.
func EncodeCSV(rows []models.ZoneDailySnapshotRow) string {
	return csvutil.Encode(Columns, rows)
}
