// Package errors provides unified error handling with structured error codes.
// Every failure class the pipeline reacts to has its own code so call sites
// classify errors by code, never by message text.
package errors

import "fmt"

// Code identifies a failure class.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeUnavailable
	CodeTimeout
	CodeCancelled

	// Capture
	CodeWindowGone
	CodeCaptureFailed

	// Recognition
	CodeOCRInit
	CodeOCRFailed
	CodeNoRecognizerLanguage

	// Translation
	CodeBackend
	CodeBackendRateLimited
	CodeBackendAuth

	// Rendering. CodeDeviceLost is the single recoverable class the
	// renderer rebuilds resources for; everything else propagates.
	CodeDeviceLost
	CodeRenderFailed
	CodeSurfaceInit

	// Configuration
	CodeConfigInvalid
	CodeConfigMissing
)

var codeNames = map[Code]string{
	CodeUnknown:              "UNKNOWN",
	CodeInternal:             "INTERNAL",
	CodeInvalidArgument:      "INVALID_ARGUMENT",
	CodeUnavailable:          "UNAVAILABLE",
	CodeTimeout:              "TIMEOUT",
	CodeCancelled:            "CANCELLED",
	CodeWindowGone:           "WINDOW_GONE",
	CodeCaptureFailed:        "CAPTURE_FAILED",
	CodeOCRInit:              "OCR_INIT",
	CodeOCRFailed:            "OCR_FAILED",
	CodeNoRecognizerLanguage: "NO_RECOGNIZER_LANGUAGE",
	CodeBackend:              "BACKEND",
	CodeBackendRateLimited:   "BACKEND_RATE_LIMITED",
	CodeBackendAuth:          "BACKEND_AUTH",
	CodeDeviceLost:           "DEVICE_LOST",
	CodeRenderFailed:         "RENDER_FAILED",
	CodeSurfaceInit:          "SURFACE_INIT",
	CodeConfigInvalid:        "CONFIG_INVALID",
	CodeConfigMissing:        "CONFIG_MISSING",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// AppError is the base error type with structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// IsCode checks whether err (or anything it wraps) carries the given code.
func IsCode(err error, code Code) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok {
			if appErr.Code == code {
				return true
			}
			err = appErr.Cause
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or CodeUnknown.
func CodeOf(err error) Code {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// IsRetryable returns true if the error is potentially retryable.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		return false
	}
	switch appErr.Code {
	case CodeUnavailable, CodeTimeout, CodeBackendRateLimited:
		return true
	default:
		return false
	}
}
