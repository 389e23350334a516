package zonesnapshot_test

import (
	"context"
	"testing"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"github.com/google/uuid"
)

type staticSource map[string][]models.RawRecord

func (s staticSource) ListCaptures(ctx context.Context, table string, q captureexport.Query) (captureexport.SourceResult, error) {
	if table == models.CollectionMaterialRecords {
		return captureexport.SourceResult{Missing: true}, nil
	}
	return captureexport.SourceResult{Rows: s[table]}, nil
}

func TestService_Rebuild(t *testing.T) {
	src := staticSource{
		models.CollectionFieldRecords: {
			{"project_id": "P1", "module": "pegada", "macro_zone": "CENTRAL", "created_at": "2024-02-01T10:00:00Z",
				"payload": map[string]any{"metadata": map[string]any{"ftTotales": 120.0}}},
		},
		models.CollectionRollInstallation: {
			{"project_id": "P1", "created_at": "2024-02-03T09:00:00Z",
				"payload": map[string]any{"macroZone": "CENTRAL", "microZone": "A1", "totalRollsUsed": 4.0}},
		},
	}
	store := &fakeStore{}
	svc := zonesnapshot.NewService(captureexport.NewFetcher(src, nil), store, 500, nil)

	res, err := svc.Rebuild(context.Background(), "P1", "2024-02-01", "2024-02-03")
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	// CENTRAL::(sin-micro) on three days, CENTRAL::A1 on the last day.
	if len(res.Rows) != 4 {
		t.Fatalf("Rebuild() rows = %d, want 4", len(res.Rows))
	}
	if res.Zones != 2 {
		t.Errorf("Zones = %d, want 2", res.Zones)
	}
	if _, err := uuid.Parse(res.BuildID); err != nil {
		t.Errorf("BuildID %q is not a uuid: %v", res.BuildID, err)
	}
	for _, r := range res.Rows {
		if r.BuildID != res.BuildID {
			t.Errorf("row BuildID = %q, want %q", r.BuildID, res.BuildID)
		}
		if r.ComputedAt.IsZero() {
			t.Error("row ComputedAt not stamped")
		}
	}
	if res.Persist.Persisted != 4 || store.upserted != 4 {
		t.Errorf("persisted = %d (store %d), want 4", res.Persist.Persisted, store.upserted)
	}
	if len(res.RelationWarnings) != 1 || res.RelationWarnings[0] != models.CollectionMaterialRecords {
		t.Errorf("RelationWarnings = %v", res.RelationWarnings)
	}
}
