// Package store defines the persistence contract shared by the Postgres and
// in-memory backends. Booking and capacity mutations only happen inside a Tx.
package store

import (
	"context"

	"github.com/google/uuid"

	"railway-booking/models"
)

// Store is the full persistence surface used by the services
type Store interface {
	Transactor
	TrainStore
	BookingReader
	UserReader
}

// Transactor opens a unit of work. Every Tx must end with Commit or Rollback.
type Transactor interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is an all-or-nothing unit of work against the train inventory and the
// booking ledger. LockTrain must be called before any other method touching
// the same train; the lock (or the version observed) is held until the
// transaction ends.
type Tx interface {
	LockTrain(ctx context.Context, trainID int64) (*models.Train, error)
	HasConfirmedBooking(ctx context.Context, userID, trainID int64) (bool, error)
	MaxSeatNumber(ctx context.Context, trainID int64) (int, error)
	CountConfirmedBookings(ctx context.Context, trainID int64) (int, error)
	InsertBooking(ctx context.Context, b *models.Booking) error
	DecrementAvailableSeats(ctx context.Context, trainID int64) error
	SetCapacity(ctx context.Context, trainID int64, total, available int) error
	Commit() error
	Rollback() error
}

// TrainStore covers train rows outside the booking protocol
type TrainStore interface {
	CreateTrain(ctx context.Context, t models.NewTrain) (*models.Train, error)
	GetTrain(ctx context.Context, trainID int64) (*models.Train, error)
	FindTrainsByRoute(ctx context.Context, source, destination string) ([]models.Train, error)
}

// BookingReader serves the read-only booking lookups
type BookingReader interface {
	GetBookingView(ctx context.Context, bookingID uuid.UUID, userID int64) (*models.BookingView, error)
	ListBookingViews(ctx context.Context, userID int64) ([]models.BookingView, error)
}

// UserReader loads identity provider reference data
type UserReader interface {
	GetUser(ctx context.Context, userID int64) (*models.User, error)
}
