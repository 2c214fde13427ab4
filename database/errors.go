package database

import (
	"errors"

	"github.com/lib/pq"

	"railway-booking/store"
)

const seatConstraint = "bookings_train_seat_confirmed_idx"

// PostgreSQL SQLSTATE codes the booking protocol treats as contention
const (
	codeUniqueViolation      pq.ErrorCode = "23505"
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
	codeLockNotAvailable     pq.ErrorCode = "55P03"
	codeQueryCanceled        pq.ErrorCode = "57014"
)

// classify maps driver errors onto the store error set so callers never see
// PostgreSQL codes
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeLockNotAvailable, codeQueryCanceled:
		return store.NewConflict(store.ConflictLockTimeout, err)
	case codeSerializationFailure, codeDeadlockDetected:
		return store.NewConflict(store.ConflictSerialization, err)
	case codeUniqueViolation:
		if pqErr.Constraint == seatConstraint {
			return store.NewConflict(store.ConflictSeatTaken, err)
		}
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation
}
