package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"railway-booking/models"
	"railway-booking/store"
)

// TrainStore is the persistence the inventory administration needs
type TrainStore interface {
	store.Transactor
	store.TrainStore
}

// TrainService manages train inventory
type TrainService struct {
	store  TrainStore
	logger *zap.Logger
}

// NewTrainService creates a new train service
func NewTrainService(st TrainStore, logger *zap.Logger) *TrainService {
	return &TrainService{store: st, logger: logger}
}

// CreateTrain adds a train with all seats available
func (s *TrainService) CreateTrain(ctx context.Context, req models.NewTrain) (*models.Train, error) {
	req.Number = strings.TrimSpace(req.Number)
	req.Name = strings.TrimSpace(req.Name)
	req.SourceStation = strings.TrimSpace(req.SourceStation)
	req.DestinationStation = strings.TrimSpace(req.DestinationStation)

	if req.Number == "" || req.Name == "" || req.SourceStation == "" || req.DestinationStation == "" {
		return nil, newError(KindValidation, "train_number, train_name, source_station and destination_station are required")
	}
	if req.TotalSeats < 1 {
		return nil, newError(KindValidation, "total_seats must be at least 1")
	}

	train, err := s.store.CreateTrain(ctx, req)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTrainNumber) {
			return nil, newError(KindDuplicateTrainNumber, "Train with this number already exists")
		}
		s.logger.Error("Add train failed", zap.String("train_number", req.Number), zap.Error(err))
		return nil, internalError("Internal server error while adding train", err)
	}

	s.logger.Info("Train added",
		zap.Int64("train_id", train.ID),
		zap.String("train_number", train.Number),
		zap.Int("total_seats", train.TotalSeats))
	return train, nil
}

// UpdateCapacity changes a train's total seats. The new total may not drop
// below the seats already booked; available seats are recomputed from the
// booking count read under the train lock.
func (s *TrainService) UpdateCapacity(ctx context.Context, trainID int64, newTotal int) (*models.Train, error) {
	if trainID <= 0 {
		return nil, newError(KindValidation, "train_id must be a positive integer")
	}
	if newTotal < 1 {
		return nil, newError(KindValidation, "total_seats must be at least 1")
	}

	train, err := s.updateCapacity(ctx, trainID, newTotal)
	if err != nil {
		var svcErr *Error
		if errors.As(err, &svcErr) {
			return nil, svcErr
		}
		if errors.Is(err, store.ErrConflict) || ctx.Err() != nil {
			return nil, conflictError("Train seats are being updated concurrently. Please try again.", err)
		}
		s.logger.Error("Update train seats failed", zap.Int64("train_id", trainID), zap.Error(err))
		return nil, internalError("Internal server error while updating train seats", err)
	}

	s.logger.Info("Train seats updated",
		zap.Int64("train_id", trainID),
		zap.Int("total_seats", train.TotalSeats),
		zap.Int("available_seats", train.AvailableSeats))
	return train, nil
}

func (s *TrainService) updateCapacity(ctx context.Context, trainID int64, newTotal int) (*models.Train, error) {
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

	booked, err := tx.CountConfirmedBookings(ctx, trainID)
	if err != nil {
		return nil, err
	}
	if newTotal < booked {
		return nil, newError(KindBelowBookedCount,
			fmt.Sprintf("Cannot reduce total seats below %d (already booked seats)", booked))
	}

	available := newTotal - booked
	if err := tx.SetCapacity(ctx, trainID, newTotal, available); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	train.TotalSeats = newTotal
	train.AvailableSeats = available
	train.Version++
	return train, nil
}

// GetTrain returns the latest committed state of a train
func (s *TrainService) GetTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	train, err := s.store.GetTrain(ctx, trainID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "Train not found")
		}
		s.logger.Error("Get train failed", zap.Int64("train_id", trainID), zap.Error(err))
		return nil, internalError("Internal server error while fetching train", err)
	}
	return train, nil
}

// SearchAvailability lists trains running between two stations
func (s *TrainService) SearchAvailability(ctx context.Context, source, destination string) (*models.RouteAvailability, error) {
	source = strings.TrimSpace(source)
	destination = strings.TrimSpace(destination)
	if source == "" || destination == "" {
		return nil, newError(KindValidation, "source and destination are required")
	}

	trains, err := s.store.FindTrainsByRoute(ctx, source, destination)
	if err != nil {
		s.logger.Error("Get seat availability failed",
			zap.String("source", source),
			zap.String("destination", destination),
			zap.Error(err))
		return nil, internalError("Internal server error while fetching seat availability", err)
	}
	if len(trains) == 0 {
		return nil, newError(KindNotFound, "No trains found between these stations")
	}

	return &models.RouteAvailability{
		Route:  models.Route{Source: source, Destination: destination},
		Trains: trains,
	}, nil
}
