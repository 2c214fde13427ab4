package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"railway-booking/models"
	"railway-booking/store"
)

const retryMessage = "Seat could not be reserved due to concurrent bookings. Please try again."

// BookingStore is the persistence the booking engine and queries need
type BookingStore interface {
	store.Transactor
	store.BookingReader
}

// BookingConfig bounds a single reservation call
type BookingConfig struct {
	// Timeout covers lock waits and every retry
	Timeout time.Duration
	// MaxAttempts is how many times a conflicting unit of work is replayed
	// before Conflict is returned
	MaxAttempts  int
	RetryBackoff time.Duration
}

// DefaultBookingConfig returns default configuration
func DefaultBookingConfig() BookingConfig {
	return BookingConfig{
		Timeout:      10 * time.Second,
		MaxAttempts:  3,
		RetryBackoff: 20 * time.Millisecond,
	}
}

// BookingService owns every booking write and the booking read models
type BookingService struct {
	store  BookingStore
	config BookingConfig
	logger *zap.Logger
	newID  func() uuid.UUID
}

// NewBookingService creates a new booking service
func NewBookingService(st BookingStore, config BookingConfig, logger *zap.Logger) *BookingService {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	return &BookingService{
		store:  st,
		config: config,
		logger: logger,
		newID:  uuid.New,
	}
}

// ReserveSeat assigns the next seat on trainID to userID. Capacity, the
// duplicate check, the seat number and both writes are decided inside one
// store transaction holding the train row.
func (s *BookingService) ReserveSeat(ctx context.Context, userID, trainID int64) (*models.Reservation, error) {
	if userID <= 0 || trainID <= 0 {
		return nil, newError(KindValidation, "train_id must be a positive integer")
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxAttempts; attempt++ {
		reservation, err := s.reserveOnce(ctx, userID, trainID)
		if err == nil {
			s.logger.Info("Seat booked",
				zap.String("booking_id", reservation.BookingID.String()),
				zap.Int64("user_id", userID),
				zap.Int64("train_id", trainID),
				zap.Int("seat_number", reservation.SeatNumber),
				zap.Int("attempt", attempt))
			return reservation, nil
		}

		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			lastErr = store.NewConflict(store.ConflictLockTimeout, err)
			break
		}
		if !errors.Is(err, store.ErrConflict) {
			s.logger.Error("Booking failed",
				zap.Int64("user_id", userID),
				zap.Int64("train_id", trainID),
				zap.Error(err))
			return nil, internalError("Internal server error during booking", err)
		}

		lastErr = err
		s.logger.Debug("Booking conflict",
			zap.Int64("train_id", trainID),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < s.config.MaxAttempts && !s.backoff(ctx, attempt) {
			lastErr = store.NewConflict(store.ConflictLockTimeout, ctx.Err())
			break
		}
	}

	s.logger.Warn("Booking gave up after conflicts",
		zap.Int64("user_id", userID),
		zap.Int64("train_id", trainID),
		zap.Error(lastErr))
	return nil, conflictError(retryMessage, lastErr)
}

func (s *BookingService) reserveOnce(ctx context.Context, userID, trainID int64) (*models.Reservation, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	train, err := tx.LockTrain(ctx, trainID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "Train not found")
		}
		return nil, err
	}

	if train.AvailableSeats <= 0 {
		return nil, newError(KindCapacityExhausted, "No seats available on this train")
	}

	booked, err := tx.HasConfirmedBooking(ctx, userID, trainID)
	if err != nil {
		return nil, err
	}
	if booked {
		return nil, newError(KindDuplicateBooking, "You already have a confirmed booking on this train")
	}

	// Seat numbers only grow; freed numbers are never reused
	lastSeat, err := tx.MaxSeatNumber(ctx, trainID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:         s.newID(),
		UserID:     userID,
		TrainID:    trainID,
		SeatNumber: lastSeat + 1,
		Status:     models.BookingStatusConfirmed,
	}
	if err := tx.InsertBooking(ctx, booking); err != nil {
		return nil, err
	}

	if err := tx.DecrementAvailableSeats(ctx, trainID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &models.Reservation{
		BookingID:  booking.ID,
		Train:      train.Summary(),
		SeatNumber: booking.SeatNumber,
		Status:     booking.Status,
		BookedAt:   booking.CreatedAt,
	}, nil
}

// backoff waits before the next attempt; false means the context ended
func (s *BookingService) backoff(ctx context.Context, attempt int) bool {
	if s.config.RetryBackoff <= 0 {
		return ctx.Err() == nil
	}

	timer := time.NewTimer(time.Duration(attempt) * s.config.RetryBackoff)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// GetBooking returns a booking owned by userID. Bookings of other users are
// reported as not found.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, userID int64) (*models.BookingView, error) {
	view, err := s.store.GetBookingView(ctx, bookingID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "Booking not found or you do not have access to this booking")
		}
		s.logger.Error("Get booking details failed",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, internalError("Internal server error while fetching booking details", err)
	}
	return view, nil
}

// ListBookings returns every booking of userID, newest first
func (s *BookingService) ListBookings(ctx context.Context, userID int64) (*models.BookingList, error) {
	views, err := s.store.ListBookingViews(ctx, userID)
	if err != nil {
		s.logger.Error("Get user bookings failed",
			zap.Int64("user_id", userID),
			zap.Error(err))
		return nil, internalError("Internal server error while fetching user bookings", err)
	}
	if views == nil {
		views = []models.BookingView{}
	}
	return &models.BookingList{TotalBookings: len(views), Bookings: views}, nil
}
