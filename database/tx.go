package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"railway-booking/models"
	"railway-booking/store"
)

// pgTx runs the booking protocol steps on one *sql.Tx. The train row lock
// taken by LockTrain is released by Commit or Rollback.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) LockTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT `+trainColumns+`
		FROM trains
		WHERE id = $1
		FOR UPDATE
	`, trainID)

	train, err := scanTrain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock train: %w", classify(err))
	}
	return train, nil
}

func (t *pgTx) HasConfirmedBooking(ctx context.Context, userID, trainID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE user_id = $1 AND train_id = $2 AND booking_status = $3
		)
	`, userID, trainID, models.BookingStatusConfirmed).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existing booking: %w", classify(err))
	}
	return exists, nil
}

func (t *pgTx) MaxSeatNumber(ctx context.Context, trainID int64) (int, error) {
	var seat int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seat_number), 0)
		FROM bookings
		WHERE train_id = $1
	`, trainID).Scan(&seat)
	if err != nil {
		return 0, fmt.Errorf("failed to read seat numbers: %w", classify(err))
	}
	return seat, nil
}

func (t *pgTx) CountConfirmedBookings(ctx context.Context, trainID int64) (int, error) {
	var count int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM bookings
		WHERE train_id = $1 AND booking_status = $2
	`, trainID, models.BookingStatusConfirmed).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", classify(err))
	}
	return count, nil
}

func (t *pgTx) InsertBooking(ctx context.Context, b *models.Booking) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO bookings (id, user_id, train_id, seat_number, booking_status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`, b.ID, b.UserID, b.TrainID, b.SeatNumber, b.Status).Scan(&b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", classify(err))
	}
	return nil
}

func (t *pgTx) DecrementAvailableSeats(ctx context.Context, trainID int64) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE trains
		SET available_seats = available_seats - 1, version = version + 1
		WHERE id = $1 AND available_seats > 0
	`, trainID)
	if err != nil {
		return fmt.Errorf("failed to update seat availability: %w", classify(err))
	}
	return expectOneRow(res)
}

func (t *pgTx) SetCapacity(ctx context.Context, trainID int64, total, available int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE trains
		SET total_seats = $1, available_seats = $2, version = version + 1
		WHERE id = $3
	`, total, available, trainID)
	if err != nil {
		return fmt.Errorf("failed to update train seats: %w", classify(err))
	}
	return expectOneRow(res)
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", classify(err))
	}
	return nil
}

func (t *pgTx) Rollback() error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// expectOneRow guards updates issued under the row lock; zero rows means the
// row changed in a way the lock should have prevented
func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return store.NewConflict(store.ConflictSerialization, fmt.Errorf("expected 1 row, updated %d", n))
	}
	return nil
}
