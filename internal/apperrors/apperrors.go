package apperrors

import (
	"fmt"
	"net/http"
)

// Code classifies an API error. Codes map one-to-one onto HTTP statuses but
// are also part of the response body so clients can branch without parsing
// messages.
type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeRateLimited  Code = "RATE_LIMITED"
	CodeUpstream     Code = "UPSTREAM_ERROR"
	CodeInternal     Code = "INTERNAL_ERROR"
)

var statusCodes = map[Code]int{
	CodeValidation:   http.StatusBadRequest,
	CodeUnauthorized: http.StatusUnauthorized,
	CodeForbidden:    http.StatusForbidden,
	CodeNotFound:     http.StatusNotFound,
	CodeConflict:     http.StatusConflict,
	CodeRateLimited:  http.StatusTooManyRequests,
	CodeUpstream:     http.StatusBadGateway,
	CodeInternal:     http.StatusInternalServerError,
}

// APIError is the uniform failure shape returned by every service operation.
// Callers never see raw store errors; handlers wrap them into one of these.
type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Status returns the HTTP status for this error.
func (e *APIError) Status() int {
	if s, ok := statusCodes[e.Code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func Validation(message string) *APIError {
	return &APIError{Code: CodeValidation, Message: message}
}

func Unauthorized(message string) *APIError {
	return &APIError{Code: CodeUnauthorized, Message: message}
}

func Forbidden(message string) *APIError {
	return &APIError{Code: CodeForbidden, Message: message}
}

func NotFound(message string) *APIError {
	return &APIError{Code: CodeNotFound, Message: message}
}

func Conflict(message string) *APIError {
	return &APIError{Code: CodeConflict, Message: message}
}

// Upstream wraps a failure from an external collaborator (media storage,
// email, SMS). The original error stays out of the response body.
func Upstream(collaborator string) *APIError {
	return &APIError{Code: CodeUpstream, Message: collaborator + " is temporarily unavailable"}
}

func Internal() *APIError {
	return &APIError{Code: CodeInternal, Message: "Internal server error"}
}
