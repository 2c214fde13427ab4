package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced row does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTrainNumber is returned when a train number is already taken
	ErrDuplicateTrainNumber = errors.New("train number already exists")

	// ErrConflict matches every *ConflictError via errors.Is
	ErrConflict = errors.New("conflict")
)

// ConflictReason tags why a unit of work lost a race
type ConflictReason string

const (
	ConflictLockTimeout     ConflictReason = "lock_timeout"
	ConflictSerialization   ConflictReason = "serialization"
	ConflictSeatTaken       ConflictReason = "seat_taken"
	ConflictVersionMismatch ConflictReason = "version_mismatch"
)

// ConflictError reports contention that a retry is expected to resolve
type ConflictError struct {
	Reason ConflictReason
	Err    error
}

// NewConflict wraps err as a conflict with the given reason
func NewConflict(reason ConflictReason, err error) *ConflictError {
	return &ConflictError{Reason: reason, Err: err}
}

func (e *ConflictError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("conflict: %s", e.Reason)
	}
	return fmt.Sprintf("conflict: %s: %v", e.Reason, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
