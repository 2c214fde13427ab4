package services

import (
	"errors"
	"fmt"

	"railway-booking/store"
)

// Kind classifies a service failure for the transport layer
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindCapacityExhausted
	KindDuplicateBooking
	KindConflict
	KindDuplicateTrainNumber
	KindBelowBookedCount
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindCapacityExhausted:
		return "CapacityExhausted"
	case KindDuplicateBooking:
		return "DuplicateBooking"
	case KindConflict:
		return "Conflict"
	case KindDuplicateTrainNumber:
		return "DuplicateTrainNumber"
	case KindBelowBookedCount:
		return "BelowBookedCount"
	case KindValidation:
		return "ValidationError"
	default:
		return "Internal"
	}
}

// Error is the only error type services return. Message is safe to show to
// callers; Err carries the cause for logs.
type Error struct {
	Kind     Kind
	Message  string
	Conflict store.ConflictReason
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the caller should try the same request again
func (e *Error) Retryable() bool {
	return e.Kind == KindConflict
}

// KindOf returns the Kind of err, or KindInternal for foreign errors
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// conflictError keeps the store's reason so logs can tell a lock timeout
// from a lost commit race
func conflictError(message string, err error) *Error {
	e := &Error{
		Kind:    KindConflict,
		Message: message,
		Err:     err,
	}
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		e.Conflict = conflict.Reason
	}
	return e
}
