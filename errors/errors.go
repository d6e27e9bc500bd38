package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified streamkit error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Fatal indicates the error terminates the stream that raised it.
	Fatal bool `json:"fatal"`
	// HTTPStatus is the status the HTTP facade reports for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError whose fatality follows its code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Fatal:      IsFatalCode(code),
	}
}

// --- Stream error constructors ---

// Decode creates a fatal error for malformed encoded input found at the
// given absolute character offset of the stream.
func Decode(offset int64, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecode, Message: fmt.Sprintf("malformed input at offset %d", offset),
		HTTPStatus: http.StatusUnprocessableEntity, Fatal: true,
		Details: map[string]any{"offset": offset}, Cause: cause,
	}
}

// Mapper creates a non-fatal error for a mapping function that failed on one chunk.
func Mapper(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeMapper, Message: fmt.Sprintf("%s: mapper failed, chunk dropped", stage),
		HTTPStatus: http.StatusUnprocessableEntity, Fatal: false,
		Details: map[string]any{"stage": stage}, Cause: cause,
	}
}

// Predicate creates a fatal error for a predicate that failed or panicked.
func Predicate(stage string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePredicate, Message: fmt.Sprintf("%s: predicate failed", stage),
		HTTPStatus: http.StatusInternalServerError, Fatal: true,
		Details: map[string]any{"stage": stage}, Cause: cause,
	}
}

// Upstream wraps an error raised by a predecessor stage so it can be
// re-emitted downstream without terminating the receiving stage.
func Upstream(from string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUpstream, Message: fmt.Sprintf("error from upstream stage %s", from),
		HTTPStatus: http.StatusBadGateway, Fatal: false,
		Details: map[string]any{"from": from}, Cause: cause,
	}
}

// StreamClosed creates a non-fatal error for an operation attempted after end.
func StreamClosed(stage, op string) *AppError {
	return &AppError{
		Code: ErrCodeStreamClosed, Message: fmt.Sprintf("%s: %s after end", stage, op),
		HTTPStatus: http.StatusConflict, Fatal: false,
		Details: map[string]any{"stage": stage, "operation": op},
	}
}

// InvalidArgument creates an error for a stage constructed with a bad argument.
func InvalidArgument(param, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid parameter %s: %s", param, reason),
		HTTPStatus: http.StatusBadRequest, Fatal: true,
		Details: map[string]any{"parameter": param},
	}
}

// Validation creates an error for configuration or parameters that failed validation.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeValidation, Message: message,
		HTTPStatus: http.StatusBadRequest, Fatal: true,
	}
}

// Process creates an error reported by a spawned process.
func Process(command string, fatal bool, cause error) *AppError {
	return &AppError{
		Code: ErrCodeProcess, Message: fmt.Sprintf("process %q failed", command),
		HTTPStatus: http.StatusBadGateway, Fatal: fatal,
		Details: map[string]any{"command": command}, Cause: cause,
	}
}

// Internal creates a fatal error for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		HTTPStatus: http.StatusInternalServerError, Fatal: true, Cause: cause,
	}
}

// Panic converts a recovered panic value into an error.
func Panic(v any) error {
	if err, ok := v.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", v)
}

// IsFatal reports whether err terminates a stream. Errors that are not
// AppErrors are always fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Fatal
	}
	return true
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
