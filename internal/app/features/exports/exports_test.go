package exports

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/download"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/domain/models"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/testutil"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

func p1Source() *testutil.MemSource {
	src := testutil.NewMemSource().Add(models.CollectionFieldRecords, models.RawRecord{
		"project_id": "P1",
		"module":     "pegada",
		"macro_zone": "CENTRAL",
		"created_at": "2024-02-01T10:00:00Z",
		"payload":    map[string]any{"metadata": map[string]any{"ftTotales": 120.0}},
	})
	src.Missing[models.CollectionRollInstallation] = true
	src.Missing[models.CollectionMaterialRecords] = true
	return src
}

func newTestHandler(src captureexport.Source) http.Handler {
	h := NewHandler(captureexport.NewFetcher(src, nil), 5*time.Second, nil, zap.NewNop())
	return Routes(h)
}

func serve(h http.Handler, target string) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestServeProjectCSV_P1(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=P1&from=2024-02-01&to=2024-02-01")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, "Content-Type", "text/csv; charset=utf-8")
	rec.AssertHeader(t, "Content-Disposition", `attachment; filename="pulse-captures-P1-2024-02-01-2024-02-01.csv"`)
	rec.AssertHeader(t, download.HeaderRowCount, "1")
	rec.AssertHeader(t, download.HeaderRelationWarnings, "roll_installation,material_records")

	lines := strings.Split(rec.Body.String(), "\n")
	if len(lines) != 2 {
		t.Fatalf("body has %d lines, want 2:\n%s", len(lines), rec.Body.String())
	}
	if !strings.HasPrefix(lines[0], "project_id,created_at,capture_date,module,") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "P1,2024-02-01T10:00:00.000Z,2024-02-01,pegada,") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestServeProjectCSV_SwappedRangeUsesResolvedBounds(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=P1&from=2024-02-02&to=2024-02-01")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, "Content-Disposition", `attachment; filename="pulse-captures-P1-2024-02-01-2024-02-02.csv"`)
	rec.AssertHeader(t, download.HeaderRowCount, "1")
}

func TestServeProjectCSV_Unbounded(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=P1&from=nope")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, "Content-Disposition", `attachment; filename="pulse-captures-P1-all-all.csv"`)
}

func TestServeProjectCSV_NoRowsHeaderOnly(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=OTHER")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, download.HeaderRowCount, "0")
	if strings.Contains(rec.Body.String(), "\n") {
		t.Errorf("body = %q, want header line only", rec.Body.String())
	}
}

func TestServeProjectCSV_MissingProject(t *testing.T) {
	for _, target := range []string{"/project-csv", "/project-csv?project=%20%20"} {
		rec := serve(newTestHandler(p1Source()), target)
		rec.AssertStatus(t, http.StatusBadRequest)
		rec.AssertJSONError(t, "project is required")
	}
}

func TestServeProjectCSV_BadFormat(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=P1&format=pdf")
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestServeProjectCSV_StoreFailure(t *testing.T) {
	src := p1Source()
	src.Fail[models.CollectionMaterialRecords] = errors.New("connection reset")

	rec := serve(newTestHandler(src), "/project-csv?project=P1")

	rec.AssertStatus(t, http.StatusInternalServerError)
	rec.AssertContains(t, "connection reset")
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("failed export still sent an attachment header")
	}
}

func TestServeProjectCSV_XLSX(t *testing.T) {
	rec := serve(newTestHandler(p1Source()), "/project-csv?project=P1&format=xlsx")

	rec.AssertStatus(t, http.StatusOK)
	rec.AssertHeader(t, "Content-Disposition", `attachment; filename="pulse-captures-P1-all-all.xlsx"`)

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue("captures", "A1"); v != "project_id" {
		t.Errorf("A1 = %q, want project_id", v)
	}
	if v, _ := f.GetCellValue("captures", "A2"); v != "P1" {
		t.Errorf("A2 = %q, want P1", v)
	}
}

func TestServeProjectCSV_Idempotent(t *testing.T) {
	h := newTestHandler(p1Source())
	first := serve(h, "/project-csv?project=P1").Body.String()
	second := serve(h, "/project-csv?project=P1").Body.String()
	if first != second {
		t.Errorf("repeated exports differ:\n%s\n---\n%s", first, second)
	}
}
