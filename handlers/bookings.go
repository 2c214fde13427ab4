package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"railway-booking/middleware"
	"railway-booking/models"
	"railway-booking/services"
)

// BookingHandler serves the authenticated booking routes
type BookingHandler struct {
	bookings *services.BookingService
	logger   *zap.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(bookings *services.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, logger: logger}
}

// CreateBooking reserves the next seat on a train for the caller
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.BookingRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "train_id is required and must be a positive integer")
		return
	}

	user := middleware.UserFrom(c)
	reservation, err := h.bookings.ReserveSeat(c.Request.Context(), user.ID, req.TrainID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Seat booked successfully", reservation)
}

// GetBooking returns one of the caller's bookings
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("booking_id"))
	if err != nil {
		// Malformed ids cannot belong to anyone
		c.JSON(http.StatusNotFound, models.Response{
			Success: false,
			Message: "Booking not found or you do not have access to this booking",
		})
		return
	}

	user := middleware.UserFrom(c)
	view, err := h.bookings.GetBooking(c.Request.Context(), bookingID, user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Booking details retrieved successfully", view)
}

// ListBookings returns all of the caller's bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	user := middleware.UserFrom(c)
	list, err := h.bookings.ListBookings(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "User bookings retrieved successfully", list)
}
