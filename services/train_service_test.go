package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railway-booking/models"
	"railway-booking/services"
)

func TestCreateTrain(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	train, err := f.trains.CreateTrain(ctx, models.NewTrain{
		Number:             " 12951 ",
		Name:               "Mumbai Rajdhani",
		SourceStation:      "Mumbai",
		DestinationStation: "Delhi",
		TotalSeats:         100,
	})
	require.NoError(t, err)
	assert.Equal(t, "12951", train.Number)
	assert.Equal(t, 100, train.AvailableSeats)

	_, err = f.trains.CreateTrain(ctx, models.NewTrain{
		Number:             "12951",
		Name:               "Copy",
		SourceStation:      "Mumbai",
		DestinationStation: "Delhi",
		TotalSeats:         10,
	})
	assertKind(t, err, services.KindDuplicateTrainNumber)
}

func TestCreateTrainValidation(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	tests := []struct {
		name string
		req  models.NewTrain
	}{
		{"missing name", models.NewTrain{Number: "1", SourceStation: "A", DestinationStation: "B", TotalSeats: 1}},
		{"blank source", models.NewTrain{Number: "1", Name: "N", SourceStation: "  ", DestinationStation: "B", TotalSeats: 1}},
		{"zero seats", models.NewTrain{Number: "1", Name: "N", SourceStation: "A", DestinationStation: "B"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.trains.CreateTrain(ctx, tt.req)
			assertKind(t, err, services.KindValidation)
		})
	}
}

func TestUpdateCapacity(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	train := f.train(t, "1", 3)
	users := f.users(t, 2)

	for _, u := range users {
		_, err := f.bookings.ReserveSeat(ctx, u.ID, train.ID)
		require.NoError(t, err)
	}

	updated, err := f.trains.UpdateCapacity(ctx, train.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, updated.TotalSeats)
	assert.Equal(t, 8, updated.AvailableSeats)
	assertSeatsBalance(t, f, train.ID)

	updated, err = f.trains.UpdateCapacity(ctx, train.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.AvailableSeats)
	assertSeatsBalance(t, f, train.ID)
}

func TestUpdateCapacityBelowBookedCount(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	train := f.train(t, "1", 2)
	for _, u := range f.users(t, 2) {
		_, err := f.bookings.ReserveSeat(ctx, u.ID, train.ID)
		require.NoError(t, err)
	}

	_, err := f.trains.UpdateCapacity(ctx, train.ID, 1)
	assertKind(t, err, services.KindBelowBookedCount)
	assert.Contains(t, err.Error(), "Cannot reduce total seats below 2")

	got, err := f.trains.GetTrain(ctx, train.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalSeats)
	assert.Equal(t, 0, got.AvailableSeats)
}

func TestUpdateCapacityErrors(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()

	_, err := f.trains.UpdateCapacity(ctx, 77, 5)
	assertKind(t, err, services.KindNotFound)

	_, err = f.trains.UpdateCapacity(ctx, 1, 0)
	assertKind(t, err, services.KindValidation)
}

func TestGrowingCapacityReopensBooking(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	train := f.train(t, "1", 1)
	users := f.users(t, 2)

	_, err := f.bookings.ReserveSeat(ctx, users[0].ID, train.ID)
	require.NoError(t, err)
	_, err = f.bookings.ReserveSeat(ctx, users[1].ID, train.ID)
	assertKind(t, err, services.KindCapacityExhausted)

	_, err = f.trains.UpdateCapacity(ctx, train.ID, 2)
	require.NoError(t, err)

	res, err := f.bookings.ReserveSeat(ctx, users[1].ID, train.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.SeatNumber)
}

func TestSearchAvailability(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	f.train(t, "2", 5)
	f.train(t, "1", 5)

	result, err := f.trains.SearchAvailability(ctx, " mumbai ", "delhi")
	require.NoError(t, err)
	assert.Equal(t, "mumbai", result.Route.Source)
	require.Len(t, result.Trains, 2)
	assert.Equal(t, "Rajdhani 1", result.Trains[0].Name)

	_, err = f.trains.SearchAvailability(ctx, "Delhi", "Chennai")
	assertKind(t, err, services.KindNotFound)

	_, err = f.trains.SearchAvailability(ctx, "", "Chennai")
	assertKind(t, err, services.KindValidation)
}
