// internal/app/features/snapshots/routes.go
package snapshots

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router for snapshot endpoints, mounted at /api/snapshots.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/zone-daily", h.ServeRebuild)
	r.Get("/zone-daily", h.ServeList)
	return r
}
