// internal/domain/models/capture.go
package models

import "time"

// Source collections (tables) that hold raw capture records.
const (
	CollectionFieldRecords     = "field_records"
	CollectionRollInstallation = "roll_installation"
	CollectionMaterialRecords  = "material_records"
)

// Module tags. field_records carries its own module column; the other two
// collections map to a fixed tag.
const (
	ModuleCompaction   = "compactacion"
	ModuleRollos       = "rollos"
	ModulePegada       = "pegada"
	ModuleMaterial     = "material"
	ModuleIncidence    = "incidence"
	ModuleVerification = "verification"
	ModuleFieldRecord  = "field_record" // field_records row without a module tag
)

// Capture status values.
const (
	CaptureStatusComplete   = "complete"
	CaptureStatusIncomplete = "incomplete"
)

// RawRecord is a loosely typed persisted capture as read from a source
// collection. Nested documents are map[string]any, arrays are []any.
type RawRecord map[string]any

// CaptureExportRow is the canonical flat representation of one capture,
// whatever source collection it came from. Pointer fields are null when the
// capture's module does not report them.
type CaptureExportRow struct {
	ProjectID        string  `json:"project_id"`
	CreatedAt        string  `json:"created_at"`
	CaptureDate      string  `json:"capture_date"`
	Module           string  `json:"module"`
	CaptureStatus    *string `json:"capture_status"`
	CaptureSessionID *string `json:"capture_session_id"`

	ProjectZoneID *string `json:"project_zone_id"`
	FieldType     *string `json:"field_type"`
	MacroZone     *string `json:"macro_zone"`
	MicroZone     *string `json:"micro_zone"`
	Zone          *string `json:"zone"`

	FtTotales      *float64 `json:"ft_totales"`
	BotesUsados    *float64 `json:"botes_usados"`
	TotalRollsUsed *float64 `json:"total_rolls_used"`
	TotalSeams     *float64 `json:"total_seams"`
	RollLengthFit  *string  `json:"roll_length_fit"`

	CompactionSurfaceFirm      *bool `json:"compaction_surface_firm"`
	CompactionMoistureOK       *bool `json:"compaction_moisture_ok"`
	CompactionDoubleCompaction *bool `json:"compaction_double_compaction"`

	MaterialType         *string  `json:"material_type"`
	MaterialPassType     *string  `json:"material_pass_type"`
	MaterialValve        *float64 `json:"material_valve"`
	MaterialBagsExpected *float64 `json:"material_bags_expected"`
	MaterialBagsUsed     *float64 `json:"material_bags_used"`
	MaterialDeviation    *float64 `json:"material_deviation"`
	MaterialStatus       *string  `json:"material_status"`

	PhotosCount   *int    `json:"photos_count"`
	Observaciones *string `json:"observaciones"`

	// CreatedTime is the parsed CreatedAt, used for ordering.
	CreatedTime time.Time `json:"-"`
}
