package database

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// The users table belongs to the identity provider; it is created here only
// so a fresh database can serve the booking joins.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         BIGSERIAL PRIMARY KEY,
		username   VARCHAR(30) NOT NULL UNIQUE,
		email      VARCHAR(255) NOT NULL UNIQUE,
		role       VARCHAR(16) NOT NULL DEFAULT 'rider' CHECK (role IN ('rider', 'admin')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS trains (
		id                  BIGSERIAL PRIMARY KEY,
		train_number        VARCHAR(32) NOT NULL UNIQUE,
		train_name          VARCHAR(255) NOT NULL,
		source_station      VARCHAR(255) NOT NULL,
		destination_station VARCHAR(255) NOT NULL,
		total_seats         INTEGER NOT NULL CHECK (total_seats > 0),
		available_seats     INTEGER NOT NULL,
		version             BIGINT NOT NULL DEFAULT 0,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT trains_available_seats_range CHECK (available_seats >= 0 AND available_seats <= total_seats)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id             UUID PRIMARY KEY,
		user_id        BIGINT NOT NULL REFERENCES users (id),
		train_id       BIGINT NOT NULL REFERENCES trains (id),
		seat_number    INTEGER NOT NULL CHECK (seat_number > 0),
		booking_status VARCHAR(16) NOT NULL DEFAULT 'confirmed',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + seatConstraint + `
		ON bookings (train_id, seat_number) WHERE booking_status = 'confirmed'`,
	`CREATE INDEX IF NOT EXISTS bookings_user_created_idx ON bookings (user_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS trains_route_idx ON trains (LOWER(source_station), LOWER(destination_station))`,
}

// RunMigrations ensures all required tables exist
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	logger.Info("Checking database schema...")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	logger.Info("Database schema is up to date", zap.Int("statements", len(migrations)))
	return nil
}
