// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/jsonutil"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger wraps the zap logger for handler error logging.
type ErrorLogger struct {
	logger *zap.Logger
}

// NewErrorLogger creates a new ErrorLogger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorLogger{logger: logger}
}

// Log logs an error with the request path and method.
func (e *ErrorLogger) Log(r *http.Request, msg string, err error) {
	e.LogWithFields(r, msg, err)
}

// LogWithFields logs an error with additional fields. The chi request id
// is attached when the RequestID middleware ran.
func (e *ErrorLogger) LogWithFields(r *http.Request, msg string, err error, fields ...zap.Field) {
	allFields := append([]zap.Field{
		zap.Error(err),
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	}, fields...)
	if id := chimw.GetReqID(r.Context()); id != "" {
		allFields = append(allFields, zap.String("request_id", id))
	}
	e.logger.Error(msg, allFields...)
}

// Handler answers unmatched routes with JSON error bodies.
type Handler struct{}

// NewHandler creates a new error Handler.
func NewHandler() *Handler {
	return &Handler{}
}

// NotFound writes a 404 {"error": "..."} body.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	jsonutil.NotFound(w, "no route for "+r.Method+" "+r.URL.Path)
}

// MethodNotAllowed writes a 405 {"error": "..."} body.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	jsonutil.MethodNotAllowed(w, "method "+r.Method+" not allowed on "+r.URL.Path)
}
