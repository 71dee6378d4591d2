package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error.
type ErrorType string

const (
	ErrorTypeSource        ErrorType = "SOURCE_ERROR"
	ErrorTypeCacheOverflow ErrorType = "CACHE_OVERFLOW"
	ErrorTypeFilter        ErrorType = "FILTER_ERROR"
	ErrorTypeConfig        ErrorType = "CONFIG_ERROR"
	ErrorTypeState         ErrorType = "STATE_ERROR"
	ErrorTypeInternal      ErrorType = "INTERNAL_ERROR"
)

// AppError represents an engine error with additional context.
type AppError struct {
	Type    ErrorType              `json:"type"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	e.Details = details
	return e
}

// WithCode adds an error code.
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// New creates a new AppError.
func New(errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
	}
}

// Wrap wraps an existing error.
func Wrap(err error, errType ErrorType, message string) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors.

// NewSourceError creates a frame source error.
func NewSourceError(message string) *AppError {
	return New(ErrorTypeSource, message)
}

// WrapSourceError wraps a decode failure.
func WrapSourceError(err error, frameNumber int64) *AppError {
	return Wrap(err, ErrorTypeSource, fmt.Sprintf("failed to decode frame %d", frameNumber)).
		WithDetails(map[string]interface{}{"frame_number": frameNumber})
}

// NewCacheOverflowError indicates a single frame exceeds the cache budget.
func NewCacheOverflowError(frameBytes, maxBytes int64) *AppError {
	return New(ErrorTypeCacheOverflow,
		fmt.Sprintf("frame of %d bytes exceeds cache budget of %d bytes", frameBytes, maxBytes)).
		WithDetails(map[string]interface{}{
			"frame_bytes": frameBytes,
			"max_bytes":   maxBytes,
		})
}

// NewFilterError creates a filter stage error.
func NewFilterError(stage, message string) *AppError {
	return New(ErrorTypeFilter, fmt.Sprintf("%s: %s", stage, message)).
		WithDetails(map[string]interface{}{"stage": stage})
}

// NewConfigError creates a configuration error.
func NewConfigError(message string) *AppError {
	return New(ErrorTypeConfig, message)
}

// NewStateError creates an invalid playback state transition error.
func NewStateError(message string) *AppError {
	return New(ErrorTypeState, message)
}

// NewInternalError creates an internal error.
func NewInternalError(message string) *AppError {
	return New(ErrorTypeInternal, message)
}

// WrapInternalError wraps an error as an internal error.
func WrapInternalError(err error, message string) *AppError {
	return Wrap(err, ErrorTypeInternal, message)
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError extracts AppError from an error.
func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	if appErr, ok := GetAppError(err); ok {
		return appErr.Type == errType
	}
	return false
}
