package apicors

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMiddleware(t *testing.T) {
	h := Middleware()(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exports/project-csv", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	want := "Content-Disposition, X-Pulse-Row-Count, X-Pulse-Relation-Warnings"
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != want {
		t.Errorf("Expose-Headers = %q, want %q", got, want)
	}
}

func TestMiddleware_Preflight(t *testing.T) {
	called := false
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/snapshots/zone-daily", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if called {
		t.Error("preflight reached the handler")
	}
}

func TestMiddlewareWithOrigins(t *testing.T) {
	h := FromList("https://dash.example.com, https://ops.example.com")(okHandler)

	tests := []struct {
		origin string
		want   string
	}{
		{"https://ops.example.com", "https://ops.example.com"},
		{"https://evil.example.com", ""},
		{"", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/api/snapshots/zone-daily", nil)
		if tt.origin != "" {
			req.Header.Set("Origin", tt.origin)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %q: Allow-Origin = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestFromList_Wildcard(t *testing.T) {
	for _, list := range []string{"", " * "} {
		rec := httptest.NewRecorder()
		FromList(list)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("FromList(%q) Allow-Origin = %q, want *", list, got)
		}
	}
}
