package memstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-memdb"

	"railway-booking/models"
	"railway-booking/store"
)

var errTxDone = errors.New("transaction already committed or rolled back")

type capacityChange struct {
	total     int
	available int
}

// memTx reads from one snapshot and stages every write. Commit re-checks the
// version of each train read through LockTrain inside a memdb write
// transaction, which memdb serializes, and fails with a version conflict if
// any of them moved.
type memTx struct {
	store  *Store
	read   *memdb.Txn
	locked map[int64]int64

	bookings   []*bookingRecord
	decrements map[int64]int
	capacity   map[int64]capacityChange
	done       bool
}

func (t *memTx) LockTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	if err := t.check(ctx); err != nil {
		return nil, err
	}

	rec, err := firstTrain(t.read, trainID)
	if err != nil {
		return nil, err
	}
	t.locked[trainID] = rec.Version
	return rec.model(), nil
}

func (t *memTx) HasConfirmedBooking(ctx context.Context, userID, trainID int64) (bool, error) {
	if err := t.checkLocked(ctx, trainID); err != nil {
		return false, err
	}

	for _, b := range t.bookings {
		if b.UserID == userID && b.TrainID == trainID && b.Status == string(models.BookingStatusConfirmed) {
			return true, nil
		}
	}

	it, err := t.read.Get(tableBookings, indexUserTrain, userID, trainID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing booking: %w", err)
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		if raw.(*bookingRecord).Status == string(models.BookingStatusConfirmed) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) MaxSeatNumber(ctx context.Context, trainID int64) (int, error) {
	if err := t.checkLocked(ctx, trainID); err != nil {
		return 0, err
	}

	var highest int64
	err := t.eachBooking(trainID, func(b *bookingRecord) {
		if b.SeatNumber > highest {
			highest = b.SeatNumber
		}
	})
	if err != nil {
		return 0, err
	}
	return int(highest), nil
}

func (t *memTx) CountConfirmedBookings(ctx context.Context, trainID int64) (int, error) {
	if err := t.checkLocked(ctx, trainID); err != nil {
		return 0, err
	}

	count := 0
	err := t.eachBooking(trainID, func(b *bookingRecord) {
		if b.Status == string(models.BookingStatusConfirmed) {
			count++
		}
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (t *memTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	if err := t.checkLocked(ctx, b.TrainID); err != nil {
		return err
	}

	b.CreatedAt = t.store.now()
	t.bookings = append(t.bookings, &bookingRecord{
		ID:         b.ID.String(),
		UserID:     b.UserID,
		TrainID:    b.TrainID,
		SeatNumber: int64(b.SeatNumber),
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
	})
	return nil
}

func (t *memTx) DecrementAvailableSeats(ctx context.Context, trainID int64) error {
	if err := t.checkLocked(ctx, trainID); err != nil {
		return err
	}

	if t.decrements == nil {
		t.decrements = make(map[int64]int)
	}
	t.decrements[trainID]++
	return nil
}

func (t *memTx) SetCapacity(ctx context.Context, trainID int64, total, available int) error {
	if err := t.checkLocked(ctx, trainID); err != nil {
		return err
	}

	if t.capacity == nil {
		t.capacity = make(map[int64]capacityChange)
	}
	t.capacity[trainID] = capacityChange{total: total, available: available}
	return nil
}

func (t *memTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true

	txn := t.store.db.Txn(true)
	defer txn.Abort()

	current := make(map[int64]*trainRecord, len(t.locked))
	for trainID, version := range t.locked {
		rec, err := firstTrain(txn, trainID)
		if err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		if rec.Version != version {
			return store.NewConflict(store.ConflictVersionMismatch,
				fmt.Errorf("train %d moved from version %d to %d", trainID, version, rec.Version))
		}
		current[trainID] = rec
	}

	for _, b := range t.bookings {
		taken, err := txn.First(tableBookings, indexTrainSeat, b.TrainID, b.SeatNumber)
		if err != nil {
			return fmt.Errorf("failed to commit: %w", err)
		}
		if taken != nil {
			return store.NewConflict(store.ConflictSeatTaken,
				fmt.Errorf("seat %d on train %d is already booked", b.SeatNumber, b.TrainID))
		}
		b.Seq = t.store.bookingSeq.Add(1)
		if err := txn.Insert(tableBookings, b); err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
	}

	for trainID, rec := range current {
		change, resized := t.capacity[trainID]
		taken := t.decrements[trainID]
		if !resized && taken == 0 {
			continue
		}

		updated := *rec
		if resized {
			updated.TotalSeats = change.total
			updated.AvailableSeats = change.available
		}
		updated.AvailableSeats -= taken
		if updated.AvailableSeats < 0 || updated.AvailableSeats > updated.TotalSeats {
			return store.NewConflict(store.ConflictSerialization,
				fmt.Errorf("train %d would have %d of %d seats available", trainID, updated.AvailableSeats, updated.TotalSeats))
		}
		updated.Version++

		if err := txn.Insert(tableTrains, &updated); err != nil {
			return fmt.Errorf("failed to update train: %w", err)
		}
	}

	txn.Commit()
	return nil
}

func (t *memTx) Rollback() error {
	t.done = true
	t.read.Abort()
	return nil
}

func (t *memTx) check(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	return ctx.Err()
}

func (t *memTx) checkLocked(ctx context.Context, trainID int64) error {
	if err := t.check(ctx); err != nil {
		return err
	}
	if _, ok := t.locked[trainID]; !ok {
		return fmt.Errorf("train %d must be locked first", trainID)
	}
	return nil
}

func (t *memTx) eachBooking(trainID int64, fn func(*bookingRecord)) error {
	for _, b := range t.bookings {
		if b.TrainID == trainID {
			fn(b)
		}
	}

	it, err := t.read.Get(tableBookings, indexTrain, trainID)
	if err != nil {
		return fmt.Errorf("failed to read bookings: %w", err)
	}
	for raw := it.Next(); raw != nil; raw = it.Next() {
		fn(raw.(*bookingRecord))
	}
	return nil
}
