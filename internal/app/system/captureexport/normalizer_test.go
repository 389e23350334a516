package captureexport

import (
	"testing"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
)

func TestResolveShape(t *testing.T) {
	tests := []struct {
		name string
		raw  models.RawRecord
		want Shape
	}{
		{"payload metadata", models.RawRecord{"payload": map[string]any{"metadata": map[string]any{}}}, ShapeNested},
		{"top-level metadata", models.RawRecord{"metadata": map[string]any{"ft": 1.0}}, ShapeNested},
		{"flat payload", models.RawRecord{"payload": map[string]any{"ft": 1.0}}, ShapeLegacy},
		{"no payload", models.RawRecord{"ft": 1.0}, ShapeLegacy},
		{"metadata not an object", models.RawRecord{"payload": map[string]any{"metadata": "x"}}, ShapeLegacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveShape(tt.raw).shape; got != tt.want {
				t.Errorf("resolveShape() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize_NestedPegada(t *testing.T) {
	raw := models.RawRecord{
		"project_id": "P1",
		"module":     "pegada",
		"macro_zone": "CENTRAL",
		"created_at": "2024-02-01T10:00:00Z",
		"payload": map[string]any{
			"metadata": map[string]any{"ftTotales": 120.0},
		},
	}

	row, ok := Normalize(models.CollectionFieldRecords, raw)
	if !ok {
		t.Fatal("Normalize() dropped the record")
	}
	if row.Module != "pegada" {
		t.Errorf("Module = %q, want pegada", row.Module)
	}
	if row.CaptureDate != "2024-02-01" {
		t.Errorf("CaptureDate = %q, want 2024-02-01", row.CaptureDate)
	}
	if row.CreatedAt != "2024-02-01T10:00:00.000Z" {
		t.Errorf("CreatedAt = %q", row.CreatedAt)
	}
	if row.FtTotales == nil || *row.FtTotales != 120 {
		t.Errorf("FtTotales = %v, want 120", row.FtTotales)
	}
	if row.Zone == nil || *row.Zone != "CENTRAL" {
		t.Errorf("Zone = %v, want CENTRAL", row.Zone)
	}
	if row.BotesUsados != nil || row.CompactionSurfaceFirm != nil || row.PhotosCount != nil {
		t.Error("metrics not reported by the capture should stay null")
	}
}

func TestNormalize_ModuleBySource(t *testing.T) {
	raw := models.RawRecord{"created_at": "2024-01-01T00:00:00Z", "module": "pegada"}

	tests := []struct {
		table string
		want  string
	}{
		{models.CollectionRollInstallation, models.ModuleRollos},
		{models.CollectionMaterialRecords, models.ModuleMaterial},
		{models.CollectionFieldRecords, "pegada"},
	}
	for _, tt := range tests {
		row, ok := Normalize(tt.table, raw)
		if !ok {
			t.Fatalf("Normalize(%s) dropped the record", tt.table)
		}
		if row.Module != tt.want {
			t.Errorf("Normalize(%s).Module = %q, want %q", tt.table, row.Module, tt.want)
		}
	}

	row, _ := Normalize(models.CollectionFieldRecords, models.RawRecord{"created_at": "2024-01-01T00:00:00Z"})
	if row.Module != models.ModuleFieldRecord {
		t.Errorf("untagged field record Module = %q, want %q", row.Module, models.ModuleFieldRecord)
	}
}

func TestNormalize_DropsWithoutCreatedAt(t *testing.T) {
	for _, v := range []any{nil, "", "not a date", 0.0} {
		if _, ok := Normalize(models.CollectionFieldRecords, models.RawRecord{"created_at": v}); ok {
			t.Errorf("Normalize(created_at=%v) kept the record", v)
		}
	}
}

func TestNormalize_AliasPrecedence(t *testing.T) {
	raw := models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"macro_zone": "ROW",
		"payload": map[string]any{
			"macro_zone": "META",
			"micro":      "A1",
			"ft":         10.0,
			"ftTotales":  "99",
			"zona":       "Libre",
		},
	}

	row, _ := Normalize(models.CollectionFieldRecords, raw)
	if row.MacroZone == nil || *row.MacroZone != "ROW" {
		t.Errorf("MacroZone = %v, want ROW (row columns win)", row.MacroZone)
	}
	if row.MicroZone == nil || *row.MicroZone != "A1" {
		t.Errorf("MicroZone = %v, want A1", row.MicroZone)
	}
	if row.FtTotales == nil || *row.FtTotales != 99 {
		t.Errorf("FtTotales = %v, want 99 (first alias wins)", row.FtTotales)
	}
	if row.Zone == nil || *row.Zone != "Libre" {
		t.Errorf("Zone = %v, want explicit zone", row.Zone)
	}
}

func TestNormalize_AliasPrecedenceAcrossSources(t *testing.T) {
	row, _ := Normalize(models.CollectionFieldRecords, models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"status":     "submitted",
		"zone_id":    "Z-row",
		"payload": map[string]any{
			"metadata": map[string]any{
				"captureStatus": "complete",
				"projectZoneId": "Z-meta",
			},
		},
	})
	if row.CaptureStatus == nil || *row.CaptureStatus != models.CaptureStatusComplete {
		t.Errorf("CaptureStatus = %v, want complete from metadata captureStatus", row.CaptureStatus)
	}
	if row.ProjectZoneID == nil || *row.ProjectZoneID != "Z-meta" {
		t.Errorf("ProjectZoneID = %v, want Z-meta from metadata projectZoneId", row.ProjectZoneID)
	}
}

func TestNormalize_ZoneFallback(t *testing.T) {
	row, _ := Normalize(models.CollectionRollInstallation, models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"payload":    map[string]any{"macroZone": "NORTE", "microZone": "B2"},
	})
	if row.Zone == nil || *row.Zone != "B2" {
		t.Errorf("Zone = %v, want micro zone B2", row.Zone)
	}

	row, _ = Normalize(models.CollectionRollInstallation, models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"payload":    map[string]any{"macroZone": "NORTE"},
	})
	if row.Zone == nil || *row.Zone != "NORTE" {
		t.Errorf("Zone = %v, want macro zone NORTE", row.Zone)
	}
}

func TestNormalize_CompactionAndMaterial(t *testing.T) {
	row, _ := Normalize(models.CollectionFieldRecords, models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"module":     "compactacion",
		"payload": map[string]any{"metadata": map[string]any{
			"surfaceFirm":       "sí",
			"moisture_ok":       0.0,
			"dobleCompactacion": true,
		}},
	})
	if row.CompactionSurfaceFirm == nil || !*row.CompactionSurfaceFirm {
		t.Errorf("CompactionSurfaceFirm = %v, want true", row.CompactionSurfaceFirm)
	}
	if row.CompactionMoistureOK == nil || *row.CompactionMoistureOK {
		t.Errorf("CompactionMoistureOK = %v, want false", row.CompactionMoistureOK)
	}
	if row.CompactionDoubleCompaction == nil || !*row.CompactionDoubleCompaction {
		t.Errorf("CompactionDoubleCompaction = %v, want true", row.CompactionDoubleCompaction)
	}

	row, _ = Normalize(models.CollectionMaterialRecords, models.RawRecord{
		"created_at": "2024-01-01T08:00:00Z",
		"payload": map[string]any{
			"tipoMaterial":     "Arena",
			"tipoPasada":       "Primera",
			"valvula":          "3",
			"bolsasEsperadas":  10.0,
			"bolsasUtilizadas": "12,5",
			"desviacion":       -2.5,
			"statusColor":      "amarillo",
		},
	})
	if row.MaterialType == nil || *row.MaterialType != "Arena" {
		t.Errorf("MaterialType = %v", row.MaterialType)
	}
	if row.MaterialValve == nil || *row.MaterialValve != 3 {
		t.Errorf("MaterialValve = %v, want 3", row.MaterialValve)
	}
	if row.MaterialBagsUsed == nil || *row.MaterialBagsUsed != 12.5 {
		t.Errorf("MaterialBagsUsed = %v, want 12.5", row.MaterialBagsUsed)
	}
	if row.MaterialDeviation == nil || *row.MaterialDeviation != 0 {
		t.Errorf("MaterialDeviation = %v, want clamped 0", row.MaterialDeviation)
	}
	if row.MaterialStatus == nil || *row.MaterialStatus != "amarillo" {
		t.Errorf("MaterialStatus = %v", row.MaterialStatus)
	}
}

func TestNormalize_PhotosCount(t *testing.T) {
	tests := []struct {
		name    string
		payload map[string]any
		want    *int
	}{
		{"none", map[string]any{}, nil},
		{"urls only", map[string]any{"photo_urls": []any{"a", "b", ""}}, intPtr(2)},
		{"evidence only", map[string]any{"evidencePhotos": map[string]any{
			"before": "a", "after": []any{"b", "c"}, "empty": "",
		}}, intPtr(3)},
		{"max of both", map[string]any{
			"photoUrls":      []any{"a"},
			"evidencePhotos": map[string]any{"x": map[string]any{"url": "u"}, "y": "v"},
		}, intPtr(2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, _ := Normalize(models.CollectionFieldRecords, models.RawRecord{
				"created_at": "2024-01-01T08:00:00Z",
				"payload":    tt.payload,
			})
			switch {
			case tt.want == nil && row.PhotosCount != nil:
				t.Errorf("PhotosCount = %d, want null", *row.PhotosCount)
			case tt.want != nil && (row.PhotosCount == nil || *row.PhotosCount != *tt.want):
				t.Errorf("PhotosCount = %v, want %d", row.PhotosCount, *tt.want)
			}
		})
	}
}

func TestNormalize_ObservacionesAndStatus(t *testing.T) {
	row, _ := Normalize(models.CollectionFieldRecords, models.RawRecord{
		"created_at":    "2024-01-01T08:00:00Z",
		"captureStatus": "Completed",
		"payload":       map[string]any{"notes": "<p>Costura <b>ok</b></p>"},
	})
	if row.Observaciones == nil || *row.Observaciones != "Costura ok" {
		t.Errorf("Observaciones = %v, want markup stripped", row.Observaciones)
	}
	if row.CaptureStatus == nil || *row.CaptureStatus != models.CaptureStatusComplete {
		t.Errorf("CaptureStatus = %v, want complete", row.CaptureStatus)
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *float64
	}{
		{"float", 1.5, floatPtr(1.5)},
		{"int64", int64(7), floatPtr(7)},
		{"numeric string", " 42 ", floatPtr(42)},
		{"decimal comma", "3,25", floatPtr(3.25)},
		{"single comma reads as decimal", "1,234", floatPtr(1.234)},
		{"thousands with point", "1,234.5", nil},
		{"negative clamps", -4.0, floatPtr(0)},
		{"nan string", "NaN", nil},
		{"inf string", "+Inf", nil},
		{"garbage", "abc", nil},
		{"bool", true, nil},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toNumber(tt.in)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("toNumber(%v) = %v, want null", tt.in, *got)
			case tt.want != nil && (got == nil || *got != *tt.want):
				t.Errorf("toNumber(%v) = %v, want %v", tt.in, got, *tt.want)
			}
		})
	}
}

func TestToBool(t *testing.T) {
	tests := []struct {
		in   any
		want *bool
	}{
		{true, boolPtr(true)},
		{1.0, boolPtr(true)},
		{0.0, boolPtr(false)},
		{"Sí", boolPtr(true)},
		{"si", boolPtr(true)},
		{"YES", boolPtr(true)},
		{"no", boolPtr(false)},
		{"false", boolPtr(false)},
		{2.0, nil},
		{"maybe", nil},
	}

	for _, tt := range tests {
		got := toBool(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("toBool(%v) = %v, want null", tt.in, *got)
		case tt.want != nil && (got == nil || *got != *tt.want):
			t.Errorf("toBool(%v) = %v, want %v", tt.in, got, *tt.want)
		}
	}
}

func intPtr(n int) *int { return &n }

func floatPtr(f float64) *float64 { return &f }

func boolPtr(b bool) *bool { return &b }
