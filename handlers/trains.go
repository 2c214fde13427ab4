package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railway-booking/models"
	"railway-booking/services"
)

// TrainHandler serves train inventory routes
type TrainHandler struct {
	trains *services.TrainService
	logger *zap.Logger
}

// NewTrainHandler creates a new train handler
func NewTrainHandler(trains *services.TrainService, logger *zap.Logger) *TrainHandler {
	return &TrainHandler{trains: trains, logger: logger}
}

// AddTrain creates a train (admin only)
func (h *TrainHandler) AddTrain(c *gin.Context) {
	var req models.NewTrain

	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "train_number, train_name, source_station, destination_station and total_seats (>= 1) are required")
		return
	}

	train, err := h.trains.CreateTrain(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusCreated, "Train added successfully", train)
}

// UpdateTrainSeats changes a train's capacity (admin only)
func (h *TrainHandler) UpdateTrainSeats(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}

	var req models.CapacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "total_seats is required and must be at least 1")
		return
	}

	train, err := h.trains.UpdateCapacity(c.Request.Context(), trainID, *req.TotalSeats)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Train seats updated successfully", train)
}

// GetSeatAvailability lists trains between two stations
func (h *TrainHandler) GetSeatAvailability(c *gin.Context) {
	var query models.AvailabilityQuery

	if err := c.ShouldBindQuery(&query); err != nil {
		respondBadRequest(c, "source and destination are required")
		return
	}

	result, err := h.trains.SearchAvailability(c.Request.Context(), query.Source, query.Destination)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Trains found successfully", result)
}

// GetTrain returns one train
func (h *TrainHandler) GetTrain(c *gin.Context) {
	trainID, ok := parseTrainID(c)
	if !ok {
		return
	}

	train, err := h.trains.GetTrain(c.Request.Context(), trainID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	respond(c, http.StatusOK, "Train retrieved successfully", train)
}

func parseTrainID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("train_id"), 10, 64)
	if err != nil || id <= 0 {
		respondBadRequest(c, "Invalid train ID")
		return 0, false
	}
	return id, true
}
