// internal/app/features/snapshots/handler.go
package snapshots

import (
	"time"

	uierrors "github.com/FractalCodeDevCo/pulse-sub000/internal/app/features/errors"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/timeouts"
	"github.com/FractalCodeDevCo/pulse-sub000/internal/app/system/zonesnapshot"
	"go.uber.org/zap"
)

// Handler owns the zone daily snapshot endpoints.
type Handler struct {
	Service *zonesnapshot.Service
	Reader  zonesnapshot.Reader
	Timeout time.Duration
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

// NewHandler creates a new snapshots Handler. A zero timeout uses
// timeouts.Batch().
func NewHandler(svc *zonesnapshot.Service, reader zonesnapshot.Reader, timeout time.Duration, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if errLog == nil {
		errLog = uierrors.NewErrorLogger(logger)
	}
	if timeout <= 0 {
		timeout = timeouts.Batch()
	}
	return &Handler{
		Service: svc,
		Reader:  reader,
		Timeout: timeout,
		Log:     logger,
		ErrLog:  errLog,
	}
}
