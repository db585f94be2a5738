// Package apperror provides structured error handling for the platform.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the ledger and document workflow domain.
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (409, 422)
	CodeInvalidTransition      = "INVALID_TRANSITION"
	CodeDocumentLocked         = "DOCUMENT_LOCKED"
	CodePreconditionFailed     = "PRECONDITION_FAILED"
	CodeEmptyPosting           = "EMPTY_POSTING"
	CodeInsufficientStock      = "INSUFFICIENT_STOCK"
	CodeConcurrentModification = "CONCURRENT_MODIFICATION"
	CodeBusinessRule           = "BUSINESS_RULE_VIOLATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the error type every handler and middleware understands.
// Code is machine-readable, Message is for humans, Details carries
// whatever structured context the caller attaches.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the status the error middleware renders with.
	HTTPStatus int `json:"-"`

	// Err is the wrapped cause, kept out of JSON responses.
	Err error `json:"-"`
}

func newError(code string, status int, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail attaches a key-value pair to the error's details.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the wrapped cause.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewValidation reports malformed or inconsistent input (400).
func NewValidation(message string) *AppError {
	return newError(CodeValidation, http.StatusBadRequest, message)
}

// NewNotFound reports a missing entity (404).
func NewNotFound(entity string, id any) *AppError {
	return newError(CodeNotFound, http.StatusNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInvalidTransition reports a status change the workflow table does
// not allow (422).
func NewInvalidTransition(kind string, from, to string) *AppError {
	return newError(CodeInvalidTransition, http.StatusUnprocessableEntity,
		fmt.Sprintf("cannot transition %s from %q to %q", kind, from, to)).
		WithDetail("kind", kind).
		WithDetail("from", from).
		WithDetail("to", to)
}

// NewDocumentLocked is returned when lines are mutated on a document
// that has already left its editable state.
func NewDocumentLocked(kind string, status string) *AppError {
	return newError(CodeDocumentLocked, http.StatusUnprocessableEntity,
		fmt.Sprintf("%s is no longer editable in status %q", kind, status)).
		WithDetail("kind", kind).
		WithDetail("status", status)
}

// NewPreconditionFailed is returned when a posting precondition is
// unmet or a concurrent writer changed the document status since the
// caller read it. Safe to retry after re-fetching the document.
func NewPreconditionFailed(message string) *AppError {
	return newError(CodePreconditionFailed, http.StatusConflict, message)
}

// NewEmptyPosting is returned when a posting would write no ledger
// rows, like a stock count whose variances are all zero.
func NewEmptyPosting(kind string) *AppError {
	return newError(CodeEmptyPosting, http.StatusUnprocessableEntity,
		fmt.Sprintf("%s has no non-zero quantities to post", kind)).
		WithDetail("kind", kind)
}

// NewBusinessRule reports a domain rule violation under a caller
// chosen code (422).
func NewBusinessRule(code, message string) *AppError {
	return newError(code, http.StatusUnprocessableEntity, message)
}

// NewInsufficientStock reports a shortage, with the requested and
// available quantities in the details.
func NewInsufficientStock(productID string, requested, available string) *AppError {
	return newError(CodeInsufficientStock, http.StatusUnprocessableEntity, "Insufficient stock").
		WithDetail("product_id", productID).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

// NewConcurrentModification reports a lost optimistic-lock race (409).
func NewConcurrentModification(entity string, id any) *AppError {
	return newError(CodeConcurrentModification, http.StatusConflict,
		"Record was modified by another user. Please refresh and try again.").
		WithDetail("entity", entity).
		WithDetail("id", id)
}

// NewInternal wraps an unexpected error without leaking it to clients.
func NewInternal(err error) *AppError {
	return newError(CodeInternal, http.StatusInternalServerError, "Internal server error").WithCause(err)
}

// NewUnauthorized reports missing or invalid credentials (401).
func NewUnauthorized(message string) *AppError {
	return newError(CodeUnauthorized, http.StatusUnauthorized, message)
}

// NewForbidden reports insufficient rights (403).
func NewForbidden(message string) *AppError {
	return newError(CodeForbidden, http.StatusForbidden, message)
}

// NewConflict reports a state conflict (409).
func NewConflict(message string) *AppError {
	return newError(CodeConflict, http.StatusConflict, message)
}

// NewDuplicate reports a uniqueness violation (409).
func NewDuplicate(entity, field, value string) *AppError {
	return newError(CodeDuplicate, http.StatusConflict,
		fmt.Sprintf("%s with this %s already exists", entity, field)).
		WithDetail("entity", entity).
		WithDetail("field", field).
		WithDetail("value", value)
}

// IsAppError reports whether the chain contains an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError pulls the AppError out of the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus maps any error to a response status, defaulting to 500
// for errors that carry no AppError.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func hasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err carries CodeNotFound.
func IsNotFound(err error) bool {
	return hasCode(err, CodeNotFound)
}

// IsInvalidTransition reports whether err carries CodeInvalidTransition.
func IsInvalidTransition(err error) bool {
	return hasCode(err, CodeInvalidTransition)
}

// IsDocumentLocked reports whether err carries CodeDocumentLocked.
func IsDocumentLocked(err error) bool {
	return hasCode(err, CodeDocumentLocked)
}

// IsPreconditionFailed reports whether err carries CodePreconditionFailed.
func IsPreconditionFailed(err error) bool {
	return hasCode(err, CodePreconditionFailed)
}

// IsEmptyPosting reports whether err carries CodeEmptyPosting.
func IsEmptyPosting(err error) bool {
	return hasCode(err, CodeEmptyPosting)
}

// IsConcurrentModification reports whether err carries CodeConcurrentModification.
func IsConcurrentModification(err error) bool {
	return hasCode(err, CodeConcurrentModification)
}
