package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"railway-booking/models"
	"railway-booking/store"
)

const trainColumns = `id, train_number, train_name, source_station, destination_station,
	total_seats, available_seats, version, created_at`

// Postgres is the store.Store backed by PostgreSQL row locks
type Postgres struct {
	db          *sql.DB
	lockTimeout time.Duration
}

var _ store.Store = (*Postgres)(nil)

// NewPostgres wraps an open pool. lockTimeout bounds how long a booking waits
// for another transaction's lock on the same train row.
func NewPostgres(db *sql.DB, lockTimeout time.Duration) *Postgres {
	return &Postgres{db: db, lockTimeout: lockTimeout}
}

// Begin starts a read-committed transaction with a bounded lock wait
func (p *Postgres) Begin(ctx context.Context) (store.Tx, error) {
	tx, err := p.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}

	if p.lockTimeout > 0 {
		_, err = tx.ExecContext(ctx, `SELECT set_config('lock_timeout', $1, true)`,
			fmt.Sprintf("%dms", p.lockTimeout.Milliseconds()))
		if err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to set lock timeout: %w", err)
		}
	}

	return &pgTx{tx: tx}, nil
}

// CreateTrain inserts a train with every seat available
func (p *Postgres) CreateTrain(ctx context.Context, t models.NewTrain) (*models.Train, error) {
	row := p.db.QueryRowContext(ctx, `
		INSERT INTO trains (train_number, train_name, source_station, destination_station, total_seats, available_seats)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING `+trainColumns,
		t.Number, t.Name, t.SourceStation, t.DestinationStation, t.TotalSeats)

	train, err := scanTrain(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateTrainNumber
		}
		return nil, fmt.Errorf("failed to insert train: %w", err)
	}
	return train, nil
}

// GetTrain reads a train without locking it
func (p *Postgres) GetTrain(ctx context.Context, trainID int64) (*models.Train, error) {
	row := p.db.QueryRowContext(ctx, `SELECT `+trainColumns+` FROM trains WHERE id = $1`, trainID)

	train, err := scanTrain(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get train: %w", err)
	}
	return train, nil
}

// FindTrainsByRoute matches stations case-insensitively
func (p *Postgres) FindTrainsByRoute(ctx context.Context, source, destination string) ([]models.Train, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT `+trainColumns+`
		FROM trains
		WHERE LOWER(source_station) = LOWER($1)
			AND LOWER(destination_station) = LOWER($2)
		ORDER BY train_name
	`, source, destination)
	if err != nil {
		return nil, fmt.Errorf("error querying trains: %w", err)
	}
	defer rows.Close()

	var trains []models.Train
	for rows.Next() {
		train, err := scanTrain(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning train: %w", err)
		}
		trains = append(trains, *train)
	}

	return trains, rows.Err()
}

// GetBookingView returns the booking only when it belongs to userID
func (p *Postgres) GetBookingView(ctx context.Context, bookingID uuid.UUID, userID int64) (*models.BookingView, error) {
	var view models.BookingView
	var passenger models.Passenger

	err := p.db.QueryRowContext(ctx, `
		SELECT
			b.id, b.seat_number, b.booking_status, b.created_at,
			t.id, t.train_number, t.train_name, t.source_station, t.destination_station,
			u.username, u.email
		FROM bookings b
		JOIN trains t ON b.train_id = t.id
		JOIN users u ON b.user_id = u.id
		WHERE b.id = $1 AND b.user_id = $2
	`, bookingID, userID).Scan(
		&view.BookingID, &view.SeatNumber, &view.Status, &view.BookedAt,
		&view.Train.ID, &view.Train.Number, &view.Train.Name,
		&view.Train.SourceStation, &view.Train.DestinationStation,
		&passenger.Username, &passenger.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	view.Passenger = &passenger
	return &view, nil
}

// ListBookingViews returns the user's bookings newest first
func (p *Postgres) ListBookingViews(ctx context.Context, userID int64) ([]models.BookingView, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT
			b.id, b.seat_number, b.booking_status, b.created_at,
			t.id, t.train_number, t.train_name, t.source_station, t.destination_station
		FROM bookings b
		JOIN trains t ON b.train_id = t.id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.seat_number DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("error querying bookings: %w", err)
	}
	defer rows.Close()

	views := []models.BookingView{}
	for rows.Next() {
		var view models.BookingView
		err := rows.Scan(
			&view.BookingID, &view.SeatNumber, &view.Status, &view.BookedAt,
			&view.Train.ID, &view.Train.Number, &view.Train.Name,
			&view.Train.SourceStation, &view.Train.DestinationStation,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning booking: %w", err)
		}
		views = append(views, view)
	}

	return views, rows.Err()
}

// GetUser loads a user row
func (p *Postgres) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	err := p.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at
		FROM users
		WHERE id = $1
	`, userID).Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTrain(row rowScanner) (*models.Train, error) {
	var t models.Train
	err := row.Scan(
		&t.ID, &t.Number, &t.Name, &t.SourceStation, &t.DestinationStation,
		&t.TotalSeats, &t.AvailableSeats, &t.Version, &t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
