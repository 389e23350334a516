// internal/app/features/exports/handler.go
package exports

import (
	"time"

	uierrors "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/errors"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/captureexport"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler owns the capture export endpoint.
type Handler struct {
	Fetcher *captureexport.Fetcher
	Timeout time.Duration
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

// NewHandler creates a new exports Handler. A zero timeout uses
// timeouts.Long().
func NewHandler(fetcher *captureexport.Fetcher, timeout time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	if timeout <= 0 {
		timeout = timeouts.Long()
	}
	return &Handler{
		Fetcher: fetcher,
		Timeout: timeout,
		Log:     logger,
		ErrLog:  errLog,
	}
}
