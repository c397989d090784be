package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// APIError represents a standardized API error response. Engine services
// return these as typed failures; the HTTP layer translates them via the
// Status field, and nothing is ever thrown as an uncaught fault.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the ErrorCode from any error, or INTERNAL_ERROR if the
// error is not an APIError
func CodeOf(err error) ErrorCode {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ErrInternalError
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{
		Code:    ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{
		Code:    ErrForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// AlreadyExists creates an ALREADY_EXISTS error
func AlreadyExists(resource string) *APIError {
	return &APIError{
		Code:    ErrAlreadyExists,
		Message: fmt.Sprintf("%s already exists", resource),
		Status:  http.StatusConflict,
	}
}

// DuplicatePending rejects a second request while one is still pending
// for the same (subject, requester) pair
func DuplicatePending() *APIError {
	return &APIError{
		Code:    ErrDuplicatePending,
		Message: "a pending request already exists for this subject",
		Status:  http.StatusConflict,
	}
}

// AlreadyMember rejects a join when a membership row already exists
func AlreadyMember() *APIError {
	return &APIError{
		Code:    ErrAlreadyMember,
		Message: "user is already a member of this collective",
		Status:  http.StatusConflict,
	}
}

// AlreadyDecided rejects a transition on a request that is already terminal
func AlreadyDecided() *APIError {
	return &APIError{
		Code:    ErrAlreadyDecided,
		Message: "request has already been decided",
		Status:  http.StatusConflict,
	}
}

// Full rejects a join against a collective at capacity
func Full() *APIError {
	return &APIError{
		Code:    ErrFull,
		Message: "collective is at capacity",
		Status:  http.StatusConflict,
	}
}

// InvalidActor rejects a self-referential request
func InvalidActor(message string) *APIError {
	return &APIError{
		Code:    ErrInvalidActor,
		Message: message,
		Status:  http.StatusUnprocessableEntity,
	}
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return &APIError{
		Code:    ErrServiceUnavail,
		Message: fmt.Sprintf("%s is temporarily unavailable", service),
		Status:  http.StatusServiceUnavailable,
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}
