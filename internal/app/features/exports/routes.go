// internal/app/features/exports/routes.go
package exports

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router for export endpoints, mounted at /api/exports.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/project-csv", h.ServeProjectCSV)
	return r
}
