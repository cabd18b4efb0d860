// Package apierrors translates domain-layer rejections into the transport
// edge's error representation. Domain and governance code never throws
// these: CanEdit-style functions return a small result value (spec §6),
// and only the HTTP handlers in cmd/server turn that value into an
// APIError and an HTTP status code.
package apierrors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// ErrorCode enumerates spec §6's command-surface exit codes, plus the
// §7 class-3 infrastructure-fault codes surfaced at the transport edge.
type ErrorCode string

const (
	CodeOK                    ErrorCode = "ok"
	CodeNotFound               ErrorCode = "not_found"
	CodeForbidden              ErrorCode = "forbidden"
	CodeLocked                 ErrorCode = "locked"
	CodeRequiresApproval       ErrorCode = "requires_approval"
	CodeRequiresJustification  ErrorCode = "requires_justification"
	CodeCyclicDependency       ErrorCode = "cyclic_dependency"
	CodeTerminalState          ErrorCode = "terminal_state"
	CodeConflict               ErrorCode = "conflict"
	CodeValidationError        ErrorCode = "validation_error"

	// Infrastructure faults (spec §7 class 3).
	CodeStoreUnavailable ErrorCode = "store_unavailable"
	CodeWriteConflict    ErrorCode = "write_conflict"
	CodeRateLimited      ErrorCode = "rate_limited"

	CodeInternalError ErrorCode = "internal_error"
)

// APIError is the structured error shape returned to API clients.
type APIError struct {
	Code      ErrorCode   `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse wraps APIError as the top-level JSON response body.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// New creates an APIError with the current timestamp.
func New(code ErrorCode, message string) *APIError {
	return &APIError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// WithDetails attaches structured detail (e.g. validator field errors).
func (e *APIError) WithDetails(details interface{}) *APIError {
	e.Details = details
	return e
}

// WithRequestID attaches the request's correlation ID.
func (e *APIError) WithRequestID(requestID string) *APIError {
	e.RequestID = requestID
	return e
}

// StatusCode maps this error's Code onto an HTTP status.
func (e *APIError) StatusCode() int {
	switch e.Code {
	case CodeOK:
		return http.StatusOK
	case CodeValidationError, CodeRequiresJustification, CodeCyclicDependency, CodeTerminalState:
		return http.StatusBadRequest
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeLocked, CodeConflict, CodeWriteConflict:
		return http.StatusConflict
	case CodeRequiresApproval:
		return http.StatusAccepted
	case CodeStoreUnavailable:
		return http.StatusServiceUnavailable
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WriteError writes err as the JSON error response body, setting the
// matching HTTP status code.
func WriteError(w http.ResponseWriter, err *APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode())
	json.NewEncoder(w).Encode(ErrorResponse{Error: *err})
}

// Helper constructors for the common cases.

func NotFound(resource string) *APIError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Forbidden(message string) *APIError {
	return New(CodeForbidden, message)
}

func Locked(message string) *APIError {
	return New(CodeLocked, message)
}

func RequiresApproval(message string) *APIError {
	return New(CodeRequiresApproval, message)
}

func RequiresJustification(minLength int) *APIError {
	return New(CodeRequiresJustification, fmt.Sprintf("a justification of at least %d characters is required", minLength))
}

func CyclicDependency() *APIError {
	return New(CodeCyclicDependency, "this dependency link would create a cycle")
}

func TerminalState(lifecycle string) *APIError {
	return New(CodeTerminalState, fmt.Sprintf("decision is %s and accepts no further edits", lifecycle))
}

func Conflict(message string) *APIError {
	return New(CodeConflict, message)
}

func Validation(message string) *APIError {
	return New(CodeValidationError, message)
}

func StoreUnavailable(message string) *APIError {
	return New(CodeStoreUnavailable, message)
}

func WriteConflict(message string) *APIError {
	return New(CodeWriteConflict, message)
}

func RateLimited() *APIError {
	return New(CodeRateLimited, "rate limit exceeded, retry after 60 seconds")
}

func Internal(message string) *APIError {
	return New(CodeInternalError, message)
}
