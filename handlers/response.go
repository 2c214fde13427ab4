package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railway-booking/middleware"
	"railway-booking/models"
	"railway-booking/services"
)

// statusFor maps service error kinds onto HTTP status codes
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindCapacityExhausted,
		services.KindDuplicateBooking,
		services.KindDuplicateTrainNumber,
		services.KindBelowBookedCount,
		services.KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var svcErr *services.Error
	if !errors.As(err, &svcErr) {
		svcErr = &services.Error{Kind: services.KindInternal, Message: "Internal server error", Err: err}
	}

	status := statusFor(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", middleware.RequestIDFrom(c)),
			zap.Error(err))
	}
	if svcErr.Kind == services.KindConflict {
		c.Header("Retry-After", "1")
	}

	_ = c.Error(err)
	c.JSON(status, models.Response{
		Success:   false,
		Message:   svcErr.Message,
		Retryable: svcErr.Retryable(),
	})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.Response{Success: false, Message: message})
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.Response{Success: true, Message: message, Data: data})
}
