package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"railway-booking/memstore"
	"railway-booking/models"
	"railway-booking/services"
)

// fixture wires both services to one in-memory store
type fixture struct {
	store    *memstore.Store
	bookings *services.BookingService
	trains   *services.TrainService
}

func newFixture(t testing.TB, maxAttempts int) *fixture {
	t.Helper()
	st, err := memstore.New()
	require.NoError(t, err)
	return newFixtureWithStore(st, maxAttempts)
}

func newFixtureWithStore(st *memstore.Store, maxAttempts int) *fixture {
	logger := zap.NewNop()
	return &fixture{
		store: st,
		bookings: services.NewBookingService(st, services.BookingConfig{
			Timeout:      5 * time.Second,
			MaxAttempts:  maxAttempts,
			RetryBackoff: time.Millisecond,
		}, logger),
		trains: services.NewTrainService(st, logger),
	}
}

func (f *fixture) train(t testing.TB, number string, seats int) *models.Train {
	t.Helper()
	train, err := f.trains.CreateTrain(context.Background(), models.NewTrain{
		Number:             number,
		Name:               "Rajdhani " + number,
		SourceStation:      "Mumbai",
		DestinationStation: "Delhi",
		TotalSeats:         seats,
	})
	require.NoError(t, err)
	return train
}

func (f *fixture) users(t testing.TB, n int) []*models.User {
	t.Helper()
	users := make([]*models.User, n)
	for i := range users {
		u, err := f.store.AddUser(models.User{
			Username: fmt.Sprintf("user%d", i+1),
			Email:    fmt.Sprintf("user%d@example.com", i+1),
		})
		require.NoError(t, err)
		users[i] = u
	}
	return users
}
