package models

import (
	"errors"

	"github.com/google/uuid"
)

// ErrorKind is the machine-readable error classification returned to API
// clients. Handlers map kinds to HTTP status codes.
type ErrorKind string

const (
	ErrNotFound            ErrorKind = "not_found"
	ErrInvalidRange        ErrorKind = "invalid_range"
	ErrCapacityExceeded    ErrorKind = "capacity_exceeded"
	ErrConflict            ErrorKind = "conflict"
	ErrInvalidState        ErrorKind = "invalid_state"
	ErrGatewayUnavailable  ErrorKind = "gateway_unavailable"
	ErrPaymentVerification ErrorKind = "payment_verification_failed"
	ErrForbidden           ErrorKind = "forbidden"
)

// DomainError carries a classified business error from services to handlers.
type DomainError struct {
	Kind    ErrorKind
	Message string

	// ConflictingBookingIDs is populated for ErrConflict so clients can
	// show which reservations block the requested range.
	ConflictingBookingIDs []uuid.UUID
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a classified error.
func NewDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

// NewConflictError creates an availability conflict error carrying the
// blocking booking IDs.
func NewConflictError(message string, bookingIDs []uuid.UUID) *DomainError {
	return &DomainError{Kind: ErrConflict, Message: message, ConflictingBookingIDs: bookingIDs}
}

// KindOf extracts the ErrorKind from an error chain. Unclassified errors
// report an empty kind, which handlers treat as an internal error.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
