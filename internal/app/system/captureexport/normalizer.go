// internal/app/system/captureexport/normalizer.go
package captureexport

import (
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/daterange"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/htmlsanitize"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/normalize"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

// Shape is the layout a capture's metadata was stored in.
type Shape int

const (
	// ShapeLegacy keeps metadata fields directly on payload.
	ShapeLegacy Shape = iota
	// ShapeNested keeps them under payload.metadata (or a top-level metadata).
	ShapeNested
)

func (s Shape) String() string {
	if s == ShapeNested {
		return "nested"
	}
	return "legacy"
}

// record is a raw capture with its metadata shape resolved once.
type record struct {
	shape   Shape
	sources []map[string]any // searched in order: row, metadata, payload
}

// resolveShape picks the metadata object for raw.
func resolveShape(raw models.RawRecord) record {
	row := map[string]any(raw)
	payload, _ := raw["payload"].(map[string]any)

	if payload != nil {
		if meta, ok := payload["metadata"].(map[string]any); ok {
			return record{shape: ShapeNested, sources: []map[string]any{row, meta, payload}}
		}
	}
	if meta, ok := raw["metadata"].(map[string]any); ok {
		sources := []map[string]any{row, meta}
		if payload != nil {
			sources = append(sources, payload)
		}
		return record{shape: ShapeNested, sources: sources}
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return record{shape: ShapeLegacy, sources: []map[string]any{row, payload}}
}

// lookup returns the first present value for keys. Earlier aliases win over
// later ones regardless of source; for a single alias, row columns are
// searched before metadata.
func (r record) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		for _, src := range r.sources {
			v, ok := src[k]
			if !ok || v == nil {
				continue
			}
			if s, isStr := v.(string); isStr && normalize.Label(s) == "" {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

func (r record) text(keys ...string) *string {
	v, _ := r.lookup(keys...)
	return toText(v)
}

func (r record) number(keys ...string) *float64 {
	v, _ := r.lookup(keys...)
	return toNumber(v)
}

func (r record) boolean(keys ...string) *bool {
	v, _ := r.lookup(keys...)
	return toBool(v)
}

// Field aliases, in resolution order.
var (
	keysProjectID     = []string{"project_id", "projectId"}
	keysCreatedAt     = []string{"created_at", "createdAt"}
	keysModule        = []string{"module", "module_name", "moduleName"}
	keysCaptureStatus = []string{"capture_status", "captureStatus", "status"}
	keysSessionID     = []string{"capture_session_id", "captureSessionId", "session_id", "sessionId"}
	keysProjectZoneID = []string{"project_zone_id", "projectZoneId", "zone_id", "zoneId"}
	keysFieldType     = []string{"field_type", "fieldType", "tipo_campo"}
	keysMacroZone     = []string{"macro_zone", "macroZone", "macro"}
	keysMicroZone     = []string{"micro_zone", "microZone", "micro"}
	keysZone          = []string{"zone", "zona"}

	keysFt            = []string{"ftTotales", "ft_totales", "ft", "feet"}
	keysBotes         = []string{"botesUsados", "botes_usados", "botes", "cans"}
	keysRolls         = []string{"totalRollsUsed", "total_rolls_used", "rollsUsed", "rollos"}
	keysSeams         = []string{"totalSeams", "total_seams", "seams", "costuras"}
	keysRollLengthFit = []string{"rollLengthFit", "roll_length_fit", "lengthFit"}

	keysSurfaceFirm      = []string{"surfaceFirm", "surface_firm", "superficieFirme"}
	keysMoistureOK       = []string{"moistureOk", "moisture_ok", "humedadOk"}
	keysDoubleCompaction = []string{"doubleCompaction", "double_compaction", "dobleCompactacion"}

	keysMaterialType   = []string{"tipoMaterial", "tipo_material", "materialType", "material_type"}
	keysPassType       = []string{"tipoPasada", "tipo_pasada", "passType"}
	keysValve          = []string{"valvula", "valve"}
	keysBagsExpected   = []string{"bolsasEsperadas", "bolsas_esperadas", "expectedBags"}
	keysBagsUsed       = []string{"bolsasUtilizadas", "bolsas_utilizadas", "bagsUsed"}
	keysDeviation      = []string{"desviacion", "deviation"}
	keysMaterialStatus = []string{"statusColor", "status_color", "materialStatus"}

	keysPhotoURLs      = []string{"photo_urls", "photoUrls", "photos", "fotos", "images", "imageUrls"}
	keysEvidencePhotos = []string{"evidencePhotos", "evidence_photos", "evidencias", "fotosEvidencia"}
	keysObservaciones  = []string{"observaciones", "observations", "notes", "comentarios"}
)

// moduleFor returns the module tag for a record from table.
func moduleFor(table string, r record) string {
	switch table {
	case models.CollectionRollInstallation:
		return models.ModuleRollos
	case models.CollectionMaterialRecords:
		return models.ModuleMaterial
	}
	if t := r.text(keysModule...); t != nil {
		if m := normalize.Module(*t); m != "" {
			return m
		}
	}
	return models.ModuleFieldRecord
}

// Normalize converts a raw record read from table into a CaptureExportRow.
// It reports false when the record has no parseable created_at.
func Normalize(table string, raw models.RawRecord) (models.CaptureExportRow, bool) {
	r := resolveShape(raw)

	createdRaw, _ := r.lookup(keysCreatedAt...)
	created, ok := toTime(createdRaw)
	if !ok {
		return models.CaptureExportRow{}, false
	}

	row := models.CaptureExportRow{
		CreatedAt:   created.Format(daterange.ISOLayout),
		CaptureDate: created.Format(daterange.DateLayout),
		CreatedTime: created,
		Module:      moduleFor(table, r),

		CaptureSessionID: r.text(keysSessionID...),
		ProjectZoneID:    r.text(keysProjectZoneID...),
		FieldType:        r.text(keysFieldType...),
		MacroZone:        r.text(keysMacroZone...),
		MicroZone:        r.text(keysMicroZone...),

		FtTotales:      r.number(keysFt...),
		BotesUsados:    r.number(keysBotes...),
		TotalRollsUsed: r.number(keysRolls...),
		TotalSeams:     r.number(keysSeams...),
		RollLengthFit:  r.text(keysRollLengthFit...),

		CompactionSurfaceFirm:      r.boolean(keysSurfaceFirm...),
		CompactionMoistureOK:       r.boolean(keysMoistureOK...),
		CompactionDoubleCompaction: r.boolean(keysDoubleCompaction...),

		MaterialType:         r.text(keysMaterialType...),
		MaterialPassType:     r.text(keysPassType...),
		MaterialValve:        r.number(keysValve...),
		MaterialBagsExpected: r.number(keysBagsExpected...),
		MaterialBagsUsed:     r.number(keysBagsUsed...),
		MaterialDeviation:    r.number(keysDeviation...),
		MaterialStatus:       r.text(keysMaterialStatus...),
	}

	if p := r.text(keysProjectID...); p != nil {
		row.ProjectID = *p
	}

	if v, found := r.lookup(keysCaptureStatus...); found {
		row.CaptureStatus = toStatus(v)
	}

	row.Zone = r.text(keysZone...)
	if row.Zone == nil {
		row.Zone = row.MicroZone
	}
	if row.Zone == nil {
		row.Zone = row.MacroZone
	}

	row.PhotosCount = photosCount(r)

	if v, found := r.lookup(keysObservaciones...); found {
		if s, isStr := v.(string); isStr {
			if plain := htmlsanitize.PlainText(s); plain != "" {
				row.Observaciones = &plain
			}
		}
	}

	return row, true
}

// photosCount is the larger of the URL-array count and the evidence-map
// count, or null when the record carries neither.
func photosCount(r record) *int {
	urlsRaw, _ := r.lookup(keysPhotoURLs...)
	evidenceRaw, _ := r.lookup(keysEvidencePhotos...)

	urls, hasURLs := countURLs(urlsRaw)
	evidence, hasEvidence := countEvidence(evidenceRaw)
	if !hasURLs && !hasEvidence {
		return nil
	}
	n := max(urls, evidence)
	return &n
}
