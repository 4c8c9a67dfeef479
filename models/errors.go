package models

import (
	"errors"
	"fmt"
)

// ErrorKind enumerates the business failure modes surfaced at the engine
// boundary. Every domain operation returns either its result or a
// DomainError carrying one of these kinds.
type ErrorKind string

const (
	ErrInvalidTransition   ErrorKind = "INVALID_TRANSITION"
	ErrUnauthorized        ErrorKind = "UNAUTHORIZED"
	ErrOwnershipRequired   ErrorKind = "OWNERSHIP_REQUIRED"
	ErrDepartmentMismatch  ErrorKind = "DEPARTMENT_MISMATCH"
	ErrPreconditionFailed  ErrorKind = "PRECONDITION_FAILED"
	ErrNotFound            ErrorKind = "NOT_FOUND"
	ErrConflict            ErrorKind = "CONFLICT"
	ErrExternalUnavailable ErrorKind = "EXTERNAL_UNAVAILABLE"
	ErrValidation          ErrorKind = "VALIDATION_ERROR"
)

// DomainError is an expected business outcome, not an infrastructure failure.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewDomainError builds a DomainError with a formatted message
func NewDomainError(kind ErrorKind, format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the error kind from err, or empty string if err is not a
// DomainError (infrastructure failures map to 5xx at the HTTP boundary).
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
