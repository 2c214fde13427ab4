package models

import "time"

// Train represents a train with a fixed seat inventory
type Train struct {
	ID                 int64     `json:"id"`
	Number             string    `json:"train_number"`
	Name               string    `json:"train_name"`
	SourceStation      string    `json:"source_station"`
	DestinationStation string    `json:"destination_station"`
	TotalSeats         int       `json:"total_seats"`
	AvailableSeats     int       `json:"available_seats"`
	Version            int64     `json:"-"`
	CreatedAt          time.Time `json:"created_at"`
}

// BookedSeats returns the number of seats held by confirmed bookings
func (t Train) BookedSeats() int {
	return t.TotalSeats - t.AvailableSeats
}

// Summary returns the display subset of the train used in booking views
func (t Train) Summary() TrainSummary {
	return TrainSummary{
		ID:                 t.ID,
		Number:             t.Number,
		Name:               t.Name,
		SourceStation:      t.SourceStation,
		DestinationStation: t.DestinationStation,
	}
}

// TrainSummary is the train portion of a booking view
type TrainSummary struct {
	ID                 int64  `json:"id"`
	Number             string `json:"train_number"`
	Name               string `json:"train_name"`
	SourceStation      string `json:"source_station"`
	DestinationStation string `json:"destination_station"`
}

// NewTrain holds the fields required to add a train
type NewTrain struct {
	Number             string `json:"train_number" binding:"required"`
	Name               string `json:"train_name" binding:"required"`
	SourceStation      string `json:"source_station" binding:"required"`
	DestinationStation string `json:"destination_station" binding:"required"`
	TotalSeats         int    `json:"total_seats" binding:"required,min=1"`
}

// CapacityRequest represents a seat capacity update
type CapacityRequest struct {
	TotalSeats *int `json:"total_seats" binding:"required,min=1"`
}

// AvailabilityQuery represents a route availability lookup
type AvailabilityQuery struct {
	Source      string `form:"source" binding:"required"`
	Destination string `form:"destination" binding:"required"`
}

// RouteAvailability is the result of a route availability lookup
type RouteAvailability struct {
	Route  Route   `json:"route"`
	Trains []Train `json:"trains"`
}

// Route names the two ends of a journey
type Route struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}
