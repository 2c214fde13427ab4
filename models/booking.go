package models

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
)

// Booking represents one seat assigned to one user on one train
type Booking struct {
	ID         uuid.UUID     `json:"id"`
	UserID     int64         `json:"user_id"`
	TrainID    int64         `json:"train_id"`
	SeatNumber int           `json:"seat_number"`
	Status     BookingStatus `json:"booking_status"`
	CreatedAt  time.Time     `json:"created_at"`
}

// BookingRequest represents a seat reservation request
type BookingRequest struct {
	TrainID int64 `json:"train_id" binding:"required,min=1"`
}

// Reservation is the result of a successful seat reservation
type Reservation struct {
	BookingID  uuid.UUID     `json:"booking_id"`
	Train      TrainSummary  `json:"train"`
	SeatNumber int           `json:"seat_number"`
	Status     BookingStatus `json:"booking_status"`
	BookedAt   time.Time     `json:"booked_at"`
}

// BookingView is a booking joined with its train and, for single lookups,
// the passenger it belongs to
type BookingView struct {
	BookingID  uuid.UUID     `json:"booking_id"`
	Train      TrainSummary  `json:"train"`
	Passenger  *Passenger    `json:"passenger,omitempty"`
	SeatNumber int           `json:"seat_number"`
	Status     BookingStatus `json:"booking_status"`
	BookedAt   time.Time     `json:"booked_at"`
}

// Passenger is the display subset of the user holding a booking
type Passenger struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// BookingList is the response payload for a user's bookings
type BookingList struct {
	TotalBookings int           `json:"total_bookings"`
	Bookings      []BookingView `json:"bookings"`
}
