package shared

import (
	"errors"
	"fmt"
)

// Error codes shared by every bounded context
const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeInvalidState  = "INVALID_STATE"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeInternal      = "INTERNAL_ERROR"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewValidationError reports a missing or invalid field
func NewValidationError(field, message string) *DomainError {
	return &DomainError{
		Code:    CodeValidation,
		Message: message,
		Field:   field,
	}
}

// NewInvalidStateError reports a transition that is not allowed from the current state
func NewInvalidStateError(message string) *DomainError {
	return NewDomainError(CodeInvalidState, message)
}

// NewNotFoundError reports a missing resource
func NewNotFoundError(resource string, id fmt.Stringer) *DomainError {
	return NewDomainError(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id))
}

// NewConflictError reports a resource that changed between validation and commit
func NewConflictError(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewInternalError wraps an infrastructure failure
func NewInternalError(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: message,
		cause:   cause,
	}
}

// Common domain errors
var (
	ErrNotFound     = NewDomainError(CodeNotFound, "Resource not found")
	ErrConflict     = NewDomainError(CodeConflict, "Resource was modified by another process")
	ErrInvalidInput = NewDomainError(CodeValidation, "Invalid input provided")
	ErrInvalidState = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrQuota        = NewDomainError(CodeQuotaExceeded, "Storage quota exceeded")
)

// IsValidation reports whether err belongs to the validation family.
// Quota and state violations are specialisations of validation failures.
func IsValidation(err error) bool {
	var de *DomainError
	if !errors.As(err, &de) {
		return false
	}
	switch de.Code {
	case CodeValidation, CodeQuotaExceeded, CodeInvalidState:
		return true
	}
	return false
}

// AsInternal passes domain errors through untouched and wraps anything else
// as an internal error so callers only ever see the domain taxonomy.
func AsInternal(err error, message string) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewInternalError(message, err)
}
