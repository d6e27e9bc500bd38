package errors

import (
	stderrors "errors"
	"net/http"
)

// ErrorResponse is the JSON body the HTTP facade answers a failed request with.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody is the client-visible part of an AppError.
type ErrorBody struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Fatal   bool           `json:"fatal"`
	Details map[string]any `json:"details,omitempty"`
}

// ToResponse returns the client-visible form of e. The cause stays private.
func (e *AppError) ToResponse() ErrorResponse {
	return ErrorResponse{Error: ErrorBody{
		Code:    e.Code,
		Message: e.Message,
		Fatal:   e.Fatal,
		Details: e.Details,
	}}
}

// AsAppError returns the AppError in err's chain, if there is one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := stderrors.As(err, &appErr)
	return appErr, ok
}

// IsAppError reports whether err's chain holds an AppError.
func IsAppError(err error) bool {
	_, ok := AsAppError(err)
	return ok
}

// From returns err as an AppError. A request body over its limit becomes
// a 413 VALIDATION_ERROR and any other plain error an INTERNAL_ERROR.
func From(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return New(ErrCodeValidation, "request body too large", http.StatusRequestEntityTooLarge).
			WithDetail("limit", tooLarge.Limit)
	}
	return Internal(err)
}
