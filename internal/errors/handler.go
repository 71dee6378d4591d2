package errors

import (
	"github.com/sirupsen/logrus"
)

// Handler converts per-frame errors and panics into logged, non-fatal
// events. Nothing routed through it propagates out of the playback loop.
type Handler struct {
	logger *logrus.Entry
}

// NewHandler creates a new error handler.
func NewHandler(logger *logrus.Entry) *Handler {
	return &Handler{
		logger: logger,
	}
}

// Handle logs an error at a level appropriate to its type and returns the
// normalized AppError for callers that surface it further.
func (h *Handler) Handle(err error) *AppError {
	appErr, ok := GetAppError(err)
	if !ok {
		appErr = WrapInternalError(err, "unexpected error")
	}

	logEntry := h.logger.WithFields(logrus.Fields{
		"error_type": appErr.Type,
		"error_code": appErr.Code,
	})
	for k, v := range appErr.Details {
		logEntry = logEntry.WithField(k, v)
	}

	switch appErr.Type {
	case ErrorTypeInternal:
		logEntry.Error(appErr.Error())
	case ErrorTypeSource, ErrorTypeFilter:
		logEntry.Warn(appErr.Error())
	default:
		logEntry.Info(appErr.Error())
	}

	return appErr
}

// HandlePanic logs a recovered panic and returns it as an internal error.
// Used by the playback tick loop, which must survive any per-frame failure.
func (h *Handler) HandlePanic(recovered interface{}) *AppError {
	h.logger.WithField("panic", recovered).Error("Panic recovered in playback loop")
	return NewInternalError("panic recovered in playback loop").
		WithDetails(map[string]interface{}{"panic": recovered})
}
