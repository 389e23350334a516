package snapshots

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/download"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func capture(day string, ft float64) models.RawRecord {
	return models.RawRecord{
		"project_id": "P1",
		"module":     "pegada",
		"macro_zone": "CENTRAL",
		"micro_zone": "A1",
		"created_at": day + "T10:00:00Z",
		"payload":    map[string]any{"ftTotales": ft},
	}
}

type fixture struct {
	src   *testutil.MemSource
	store *testutil.MemSnapshots
	h     http.Handler
}

func newFixture() *fixture {
	src := testutil.NewMemSource().Add(models.CollectionFieldRecords,
		capture("2024-01-01", 100),
		capture("2024-01-03", 50),
	)
	store := testutil.NewMemSnapshots()
	svc := zonesnapshot.NewService(captureexport.NewFetcher(src, nil), store, zonesnapshot.DefaultBatchSize, nil)
	h := NewHandler(svc, store, 5*time.Second, nil, zap.NewNop())
	return &fixture{src: src, store: store, h: Routes(h)}
}

func (f *fixture) do(method, target, body string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	f.h.ServeHTTP(rec, testutil.NewJSONRequest(method, target, body))
	return rec
}

func decodeRebuild(t *testing.T, rec *testutil.ResponseRecorder) rebuildResponse {
	t.Helper()
	var resp rebuildResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestServeRebuild(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-03"}`)
	rec.AssertStatus(t, http.StatusOK)

	resp := decodeRebuild(t, rec)
	if resp.ProjectID != "P1" || resp.FromDate == nil || *resp.FromDate != "2024-01-01" || resp.ToDate == nil || *resp.ToDate != "2024-01-03" {
		t.Errorf("response = %+v", resp)
	}
	if resp.SnapshotRows != 3 || resp.Zones != 1 || resp.Persisted != 3 {
		t.Errorf("rows/zones/persisted = %d/%d/%d, want 3/1/3", resp.SnapshotRows, resp.Zones, resp.Persisted)
	}
	if resp.UsedFallbackInsert {
		t.Error("usedFallbackInsert = true, want false")
	}
	if resp.BuildID == "" {
		t.Error("buildId is empty")
	}
	if f.store.Len() != 3 {
		t.Errorf("store has %d rows, want 3", f.store.Len())
	}
}

func TestServeRebuild_RepeatIsIdempotent(t *testing.T) {
	f := newFixture()
	body := `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-03"}`

	f.do(http.MethodPost, "/zone-daily", body).AssertStatus(t, http.StatusOK)
	f.do(http.MethodPost, "/zone-daily", body).AssertStatus(t, http.StatusOK)

	if f.store.Len() != 3 {
		t.Errorf("store has %d rows after two rebuilds, want 3", f.store.Len())
	}
}

func TestServeRebuild_Fallback(t *testing.T) {
	f := newFixture()
	f.store.NoConstraint = true
	body := `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-03"}`

	rec := f.do(http.MethodPost, "/zone-daily", body)
	rec.AssertStatus(t, http.StatusOK)
	if resp := decodeRebuild(t, rec); !resp.UsedFallbackInsert || resp.Persisted != 3 {
		t.Errorf("response = %+v, want fallback with 3 persisted", resp)
	}

	f.do(http.MethodPost, "/zone-daily", body).AssertStatus(t, http.StatusOK)
	if f.store.Len() != 3 {
		t.Errorf("store has %d rows after two fallback rebuilds, want 3", f.store.Len())
	}
}

func TestServeRebuild_UnboundedNullDates(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1"}`)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"fromDate":null`)
	rec.AssertContains(t, `"toDate":null`)
}

func TestServeRebuild_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty body", "", "invalid JSON body"},
		{"malformed", `{"projectId":`, "invalid JSON body"},
		{"missing projectId", `{"fromDate":"2024-01-01"}`, "projectId is required"},
		{"blank projectId", `{"projectId":"  "}`, "projectId is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newFixture().do(http.MethodPost, "/zone-daily", tt.body)
			rec.AssertStatus(t, http.StatusBadRequest)
			rec.AssertJSONError(t, tt.want)
		})
	}
}

func TestServeRebuild_MissingSinkIsFatal(t *testing.T) {
	f := newFixture()
	f.store.Missing = true

	rec := f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1"}`)
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "snapshot relation does not exist")
}

func TestServeRebuild_SourceFailure(t *testing.T) {
	f := newFixture()
	f.src.Fail[models.CollectionRollInstallation] = testutil.ErrInjected

	rec := f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1"}`)
	rec.AssertStatus(t, http.StatusInternalServerError)
	if f.store.Len() != 0 {
		t.Error("a failed fetch still persisted rows")
	}
}

func TestServeList_JSON(t *testing.T) {
	f := newFixture()
	f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-03"}`).
		AssertStatus(t, http.StatusOK)

	rec := f.do(http.MethodGet, "/zone-daily?project=P1&from=2024-01-02&to=2024-01-03", "")
	rec.AssertStatus(t, http.StatusOK)

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 2 || len(resp.Rows) != 2 {
		t.Fatalf("count = %d, rows = %d, want 2", resp.Count, len(resp.Rows))
	}
	if resp.Rows[0].SnapshotDate != "2024-01-02" || resp.Rows[0].CumulativeFt != 100 {
		t.Errorf("first row = %+v", resp.Rows[0])
	}
	if resp.Rows[1].CumulativeFt != 150 {
		t.Errorf("last cumulative_ft = %v, want 150", resp.Rows[1].CumulativeFt)
	}
	if resp.Rows[0].ZoneKey != "CENTRAL::A1" {
		t.Errorf("zone_key = %q", resp.Rows[0].ZoneKey)
	}
}

func TestServeList_CSV(t *testing.T) {
	f := newFixture()
	f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-03"}`).
		AssertStatus(t, http.StatusOK)

	rec := f.do(http.MethodGet, "/zone-daily?project=P1&format=csv", "")
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, "Content-Type", download.CSVContentType)
	rec.AssertHeader(t, "Content-Disposition", `attachment; filename="pulse-zone-daily-P1-all-all.csv"`)
	rec.AssertHeader(t, download.HeaderRowCount, "3")
	rec.AssertHeader(t, download.HeaderRelationWarnings, "")

	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 4 {
		t.Fatalf("CSV has %d lines, want 4", len(lines))
	}
	if !strings.HasPrefix(lines[0], "project_id,snapshot_date,zone_key,") {
		t.Errorf("header = %q", lines[0])
	}
}

func TestServeList_XLSX(t *testing.T) {
	f := newFixture()
	f.do(http.MethodPost, "/zone-daily", `{"projectId":"P1","fromDate":"2024-01-01","toDate":"2024-01-01"}`).
		AssertStatus(t, http.StatusOK)

	rec := f.do(http.MethodGet, "/zone-daily?project=P1&format=xlsx", "")
	rec.AssertStatus(t, http.StatusOK)

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer wb.Close()
	if v, _ := wb.GetCellValue("zone_daily", "C2"); v != "CENTRAL::A1" {
		t.Errorf("C2 = %q, want CENTRAL::A1", v)
	}
}

func TestServeList_MissingRelationIsEmpty(t *testing.T) {
	f := newFixture()
	f.store.Missing = true

	rec := f.do(http.MethodGet, "/zone-daily?project=P1", "")
	rec.AssertStatus(t, http.StatusOK)

	var resp listResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Count != 0 || resp.Rows == nil {
		t.Errorf("response = %+v, want empty non-null rows", resp)
	}
	if len(resp.RelationWarnings) != 1 || resp.RelationWarnings[0] != models.CollectionZoneDailySnapshots {
		t.Errorf("relationWarnings = %v", resp.RelationWarnings)
	}
}

func TestServeList_StoreFailure(t *testing.T) {
	f := newFixture()
	f.store.Fail = testutil.ErrInjected

	rec := f.do(http.MethodGet, "/zone-daily?project=P1", "")
	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertJSONError(t, testutil.ErrInjected.Error())
}

func TestServeList_Validation(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/zone-daily", "")
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertJSONError(t, "project is required")

	rec = f.do(http.MethodGet, "/zone-daily?project=P1&format=pdf", "")
	rec.AssertStatus(t, http.StatusBadRequest)
}
