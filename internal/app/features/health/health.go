// internal/app/features/health/health.go
package health

import (
	"context"
	"net/http"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/jsonutil"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// MongoPinger pings the primary of a MongoDB deployment.
func MongoPinger(client *mongo.Client) Pinger {
	return PingFunc(func(ctx context.Context) error {
		return client.Ping(ctx, readpref.Primary())
	})
}

// Check is one named backend probe.
type Check struct {
	Name   string
	Pinger Pinger
}

// Handler provides health check endpoints.
type Handler struct {
	checks []Check
	logger *zap.Logger
}

// NewHandler creates a new health check Handler over the given backends.
func NewHandler(logger *zap.Logger, checks ...Check) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		checks: checks,
		logger: logger,
	}
}

// Response represents the health check response.
type Response struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services,omitempty"`
}

// Routes returns a chi.Router with health check routes mounted.
// Provides /health (full check), /health/ready, and /health/live.
func Routes(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/", h.Check)
	r.Get("/ready", h.Ready)
	r.Get("/live", h.Live)
	return r
}

// MountRootEndpoints adds the Kubernetes probe paths /ready, /readyz and
// /livez directly on the root router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/ready", h.Ready)
	r.Get("/readyz", h.Ready)
	r.Get("/livez", h.Live)
}

// probe pings every backend and returns per-service status.
func (h *Handler) probe(ctx context.Context) (bool, map[string]string) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Ping())
	defer cancel()

	ok := true
	services := make(map[string]string, len(h.checks))
	for _, c := range h.checks {
		if err := c.Pinger.Ping(ctx); err != nil {
			ok = false
			services[c.Name] = "unavailable"
			h.logger.Warn("health check: ping failed",
				zap.String("service", c.Name),
				zap.Error(err))
			continue
		}
		services[c.Name] = "ok"
	}
	return ok, services
}

// Check performs a full health check including backend connectivity.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	ok, services := h.probe(r.Context())
	resp := Response{Status: "ok", Services: services}
	status := http.StatusOK
	if !ok {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}
	jsonutil.JSON(w, status, resp)
}

// Ready checks if the service is ready to accept requests.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if ok, _ := h.probe(r.Context()); !ok {
		jsonutil.JSON(w, http.StatusServiceUnavailable, Response{Status: "not ready"})
		return
	}
	jsonutil.OK(w, Response{Status: "ready"})
}

// Live checks if the process is alive. It never touches a backend.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	jsonutil.OK(w, Response{Status: "alive"})
}
