package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for callers that need to decide on
// rollback and user-facing presentation.
type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindState             ErrorKind = "state"
	KindInsufficientStock ErrorKind = "insufficient_stock"
	KindReference         ErrorKind = "reference"
	KindPersistence       ErrorKind = "persistence"
	KindNotFound          ErrorKind = "not_found"
	KindAuthorization     ErrorKind = "authorization"
	KindConflict          ErrorKind = "conflict"
)

// Error codes carried on the wire
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidState      = "INVALID_STATE"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeReference         = "REFERENCE_ERROR"
	CodePersistence       = "PERSISTENCE_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeConflict          = "CONCURRENCY_CONFLICT"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string         `json:"code"`
	Kind    ErrorKind      `json:"kind"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is matches two domain errors by code so that sentinel comparisons keep
// working for errors built with formatted messages.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// WithDetail returns a copy of the error carrying an extra detail value
func (e *DomainError) WithDetail(key string, value any) *DomainError {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &DomainError{Code: e.Code, Kind: e.Kind, Message: e.Message, Details: details, cause: e.cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Kind:    kindForCode(code),
		Message: message,
	}
}

// NewValidationError is returned before any mutation when input breaks a rule
func NewValidationError(format string, args ...any) *DomainError {
	return &DomainError{Code: CodeValidation, Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NewStateError is returned when the operation is not valid for the current status
func NewStateError(format string, args ...any) *DomainError {
	return &DomainError{Code: CodeInvalidState, Kind: KindState, Message: fmt.Sprintf(format, args...)}
}

// NewInsufficientStockError reports the balance actually available at lock time
func NewInsufficientStockError(available, requested fmt.Stringer) *DomainError {
	return &DomainError{
		Code:    CodeInsufficientStock,
		Kind:    KindInsufficientStock,
		Message: fmt.Sprintf("cannot issue %s, only %s available", requested, available),
		Details: map[string]any{
			"available": available.String(),
			"requested": requested.String(),
		},
	}
}

// NewReferenceError is returned when a required collaborator record is missing
func NewReferenceError(format string, args ...any) *DomainError {
	return &DomainError{Code: CodeReference, Kind: KindReference, Message: fmt.Sprintf(format, args...)}
}

// NewPersistenceError wraps a storage constraint violation with a user-facing message
func NewPersistenceError(cause error, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodePersistence,
		Kind:    KindPersistence,
		Message: fmt.Sprintf(format, args...),
		cause:   cause,
	}
}

// KindOf returns the kind of a domain error, or empty when err is not one
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func kindForCode(code string) ErrorKind {
	switch code {
	case CodeValidation, "INVALID_INPUT":
		return KindValidation
	case CodeInvalidState:
		return KindState
	case CodeInsufficientStock:
		return KindInsufficientStock
	case CodeReference:
		return KindReference
	case CodePersistence, "ALREADY_EXISTS":
		return KindPersistence
	case CodeNotFound:
		return KindNotFound
	case CodeUnauthorized, "FORBIDDEN":
		return KindAuthorization
	case CodeConflict:
		return KindConflict
	}
	return ""
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrMissingTenant       = NewDomainError(CodeUnauthorized, "Tenant context is required")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientStock   = NewDomainError(CodeInsufficientStock, "Insufficient stock available")
)
