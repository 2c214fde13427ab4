package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"railway-booking/auth"
	"railway-booking/memstore"
	"railway-booking/middleware"
	"railway-booking/models"
	"railway-booking/services"
)

const testAPIKey = "admin-key"

type testServer struct {
	router   *gin.Engine
	store    *memstore.Store
	verifier *auth.TokenVerifier
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := memstore.New()
	require.NoError(t, err)
	policy, err := auth.NewAdminPolicy(context.Background())
	require.NoError(t, err)

	logger := zap.NewNop()
	verifier := auth.NewTokenVerifier("test-secret")
	router := NewRouter(RouterConfig{
		Bookings:      services.NewBookingService(st, services.DefaultBookingConfig(), logger),
		Trains:        services.NewTrainService(st, logger),
		Authenticator: auth.NewAuthenticator(verifier, st),
		AdminPolicy:   policy,
		AdminAPIKey:   testAPIKey,
		Logger:        logger,
	})
	return &testServer{router: router, store: st, verifier: verifier}
}

func (s *testServer) token(t *testing.T, role models.Role) string {
	t.Helper()
	u, err := s.store.AddUser(models.User{Username: "u" + uuid.NewString()[:8], Email: "u@example.com", Role: role})
	require.NoError(t, err)
	token, err := s.verifier.Issue(u.ID, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

type call struct {
	method string
	path   string
	body   interface{}
	header map[string]string
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

func (s *testServer) do(t *testing.T, c call) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (s *testServer) addTrain(t *testing.T, number string, seats int) models.Train {
	t.Helper()
	w, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/trains",
		header: map[string]string{middleware.APIKeyHeader: testAPIKey},
		body: gin.H{
			"train_number":        number,
			"train_name":          "Shatabdi " + number,
			"source_station":      "Delhi",
			"destination_station": "Agra",
			"total_seats":         seats,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	var train models.Train
	require.NoError(t, json.Unmarshal(env.Data, &train))
	return train
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": token}
}

func TestHealthAndIndex(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)

	w, env = s.do(t, call{method: http.MethodGet, path: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "POST /api/bookings")

	w, env = s.do(t, call{method: http.MethodGet, path: "/nowhere"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "Route not found", env.Message)
}

func TestAddTrainRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{
		"train_number":        "12002",
		"train_name":          "Shatabdi",
		"source_station":      "Delhi",
		"destination_station": "Agra",
		"total_seats":         10,
	}

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/trains", body: body})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. No API key provided.", env.Message)

	w, _ = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/trains",
		body:   body,
		header: map[string]string{middleware.APIKeyHeader: "wrong"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/trains", body: body, header: bearer(s.token(t, models.RoleRider))})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/trains", body: body, header: bearer(s.token(t, models.RoleAdmin))})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAddTrainValidation(t *testing.T) {
	s := newTestServer(t)
	s.addTrain(t, "12002", 10)

	w, env := s.do(t, call{
		method: http.MethodPost,
		path:   "/api/trains",
		header: map[string]string{middleware.APIKeyHeader: testAPIKey},
		body:   gin.H{"train_number": "12003", "train_name": "X", "source_station": "A", "destination_station": "B", "total_seats": 0},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)

	w, env = s.do(t, call{
		method: http.MethodPost,
		path:   "/api/trains",
		header: map[string]string{middleware.APIKeyHeader: testAPIKey},
		body:   gin.H{"train_number": "12002", "train_name": "X", "source_station": "A", "destination_station": "B", "total_seats": 5},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Train with this number already exists", env.Message)
}

func TestTrainQueries(t *testing.T) {
	s := newTestServer(t)
	train := s.addTrain(t, "12002", 10)

	w, env := s.do(t, call{method: http.MethodGet, path: "/api/trains/availability?source=delhi&destination=agra"})
	require.Equal(t, http.StatusOK, w.Code)
	var result models.RouteAvailability
	require.NoError(t, json.Unmarshal(env.Data, &result))
	require.Len(t, result.Trains, 1)
	assert.Equal(t, 10, result.Trains[0].AvailableSeats)

	w, _ = s.do(t, call{method: http.MethodGet, path: "/api/trains/availability?source=delhi"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/trains/availability?source=agra&destination=delhi"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "No trains found between these stations", env.Message)

	w, _ = s.do(t, call{method: http.MethodGet, path: "/api/trains/" + itoa(train.ID)})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, call{method: http.MethodGet, path: "/api/trains/abc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, call{method: http.MethodGet, path: "/api/trains/999"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingFlow(t *testing.T) {
	s := newTestServer(t)
	train := s.addTrain(t, "12002", 1)
	alice := s.token(t, models.RoleRider)
	bob := s.token(t, models.RoleRider)

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{"train_id": train.ID}, header: bearer(alice)})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)
	assert.Equal(t, "Seat booked successfully", env.Message)
	var reservation models.Reservation
	require.NoError(t, json.Unmarshal(env.Data, &reservation))
	assert.Equal(t, 1, reservation.SeatNumber)

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{"train_id": train.ID}, header: bearer(alice)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "You already have a confirmed booking on this train", env.Message)
	assert.False(t, env.Retryable)

	w, env = s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{"train_id": train.ID}, header: bearer(bob)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No seats available on this train", env.Message)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{"train_id": 999}, header: bearer(bob)})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{}, header: bearer(bob)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := "/api/bookings/" + reservation.BookingID.String()
	w, env = s.do(t, call{method: http.MethodGet, path: path, header: bearer(alice)})
	require.Equal(t, http.StatusOK, w.Code)
	var view models.BookingView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	assert.Equal(t, reservation.BookingID, view.BookingID)
	assert.NotNil(t, view.Passenger)

	w, _ = s.do(t, call{method: http.MethodGet, path: path, header: bearer(bob)})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, call{method: http.MethodGet, path: "/api/bookings/not-a-uuid", header: bearer(alice)})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/bookings", header: bearer(alice)})
	require.Equal(t, http.StatusOK, w.Code)
	var list models.BookingList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.TotalBookings)
}

func TestBookingRequiresUser(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, call{method: http.MethodGet, path: "/api/bookings"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Access denied. No token provided.", env.Message)

	w, env = s.do(t, call{method: http.MethodGet, path: "/api/bookings", header: bearer("Bearer nonsense")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token.", env.Message)

	ghost, err := s.verifier.Issue(4242, time.Hour)
	require.NoError(t, err)
	w, env = s.do(t, call{method: http.MethodGet, path: "/api/bookings", header: bearer("Bearer " + ghost)})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid token. User not found.", env.Message)
}

func TestUpdateTrainSeats(t *testing.T) {
	s := newTestServer(t)
	train := s.addTrain(t, "12002", 1)
	admin := map[string]string{middleware.APIKeyHeader: testAPIKey}
	path := "/api/trains/" + itoa(train.ID) + "/seats"

	w, env := s.do(t, call{method: http.MethodPost, path: "/api/bookings", body: gin.H{"train_id": train.ID}, header: bearer(s.token(t, models.RoleRider))})
	require.Equal(t, http.StatusCreated, w.Code, env.Message)

	w, env = s.do(t, call{method: http.MethodPut, path: path, body: gin.H{"total_seats": 5}, header: admin})
	require.Equal(t, http.StatusOK, w.Code, env.Message)
	var updated models.Train
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, 5, updated.TotalSeats)
	assert.Equal(t, 4, updated.AvailableSeats)

	w, _ = s.do(t, call{method: http.MethodPut, path: path, body: gin.H{}, header: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, call{method: http.MethodPut, path: "/api/trains/999/seats", body: gin.H{"total_seats": 5}, header: admin})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, call{method: http.MethodPut, path: path, body: gin.H{"total_seats": 5}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConflictResponseIsRetryable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		respondError(c, zap.NewNop(), &services.Error{Kind: services.KindConflict, Message: "try again"})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.True(t, env.Retryable)
	assert.Equal(t, "try again", env.Message)
}

func TestInternalErrorsHideDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", func(c *gin.Context) {
		respondError(c, zap.NewNop(), assert.AnError)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
