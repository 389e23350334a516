// internal/app/system/apicors/apicors.go
// Package apicors provides CORS middleware for the /api endpoints.
//
// The export endpoints return attachments whose metadata lives in response
// headers (row count, relation warnings, filename). Browsers hide those from
// scripts unless they are listed in Access-Control-Expose-Headers, so both
// middlewares expose them.
package apicors

import (
	"net/http"
	"strings"
)

// ExposedHeaders are readable by cross-origin callers.
var ExposedHeaders = []string{
	"Content-Disposition",
	"X-Pulse-Row-Count",
	"X-Pulse-Relation-Warnings",
}

const (
	allowMethods = "GET, POST, OPTIONS"
	allowHeaders = "Authorization, Content-Type, Accept"
	maxAge       = "86400"
)

func setCommon(h http.Header) {
	h.Set("Access-Control-Allow-Methods", allowMethods)
	h.Set("Access-Control-Allow-Headers", allowHeaders)
	h.Set("Access-Control-Expose-Headers", strings.Join(ExposedHeaders, ", "))
	h.Set("Access-Control-Max-Age", maxAge)
}

// Middleware allows any origin without credentials.
//
// Usage in routes.go:
//
//	r.Route("/api", func(api chi.Router) {
//	    api.Use(apicors.Middleware())
//	    api.Mount("/exports", exports.Routes(exportsHandler))
//	})
func Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			setCommon(w.Header())

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// MiddlewareWithOrigins only allows the listed origins. Requests from other
// origins get no CORS headers and the browser blocks them.
func MiddlewareWithOrigins(allowedOrigins ...string) func(http.Handler) http.Handler {
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			originSet[o] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); origin != "" {
				if _, allowed := originSet[origin]; allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
				}
			}
			setCommon(w.Header())

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// FromList picks MiddlewareWithOrigins for a comma-separated origin list
// and Middleware when the list is empty or "*".
func FromList(origins string) func(http.Handler) http.Handler {
	origins = strings.TrimSpace(origins)
	if origins == "" || origins == "*" {
		return Middleware()
	}
	return MiddlewareWithOrigins(strings.Split(origins, ",")...)
}
