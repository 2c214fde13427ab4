package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"railway-booking/auth"
	"railway-booking/middleware"
	"railway-booking/models"
	"railway-booking/services"
)

const apiVersion = "1.0.0"

// RouterConfig carries everything the HTTP surface is wired from
type RouterConfig struct {
	Bookings      *services.BookingService
	Trains        *services.TrainService
	Authenticator *auth.Authenticator
	AdminPolicy   *auth.AdminPolicy
	AdminAPIKey   string

	// GlobalLimiter applies to every route; BookingLimiter only to /api/bookings
	GlobalLimiter  *middleware.RateLimiter
	BookingLimiter *middleware.RateLimiter
	Logger         *zap.Logger
}

// NewRouter builds the gin engine
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(cfg.Logger), middleware.Recovery(cfg.Logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.APIKeyHeader, middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	if cfg.GlobalLimiter != nil {
		router.Use(cfg.GlobalLimiter.Handler())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "Railway Management System API is running",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   apiVersion,
		})
	})

	router.GET("/", func(c *gin.Context) {
		respond(c, http.StatusOK, "Welcome to Railway Management System API", gin.H{
			"version": apiVersion,
			"endpoints": gin.H{
				"trains": gin.H{
					"add":          "POST /api/trains (Admin API Key required)",
					"availability": "GET /api/trains/availability",
					"get":          "GET /api/trains/:train_id",
					"updateSeats":  "PUT /api/trains/:train_id/seats (Admin API Key required)",
				},
				"bookings": gin.H{
					"book":            "POST /api/bookings (Auth required)",
					"getDetails":      "GET /api/bookings/:booking_id (Auth required)",
					"getUserBookings": "GET /api/bookings (Auth required)",
				},
			},
		})
	})

	trainHandler := NewTrainHandler(cfg.Trains, cfg.Logger)
	bookingHandler := NewBookingHandler(cfg.Bookings, cfg.Logger)
	requireAdmin := middleware.RequireAdmin(cfg.AdminPolicy, cfg.AdminAPIKey, cfg.Authenticator, cfg.Logger)

	api := router.Group("/api")
	{
		// Train routes
		trains := api.Group("/trains")
		trains.POST("", requireAdmin, trainHandler.AddTrain)
		trains.GET("/availability", trainHandler.GetSeatAvailability)
		trains.GET("/:train_id", trainHandler.GetTrain)
		trains.PUT("/:train_id/seats", requireAdmin, trainHandler.UpdateTrainSeats)

		// Booking routes
		bookings := api.Group("/bookings")
		if cfg.BookingLimiter != nil {
			bookings.Use(cfg.BookingLimiter.Handler())
		}
		bookings.Use(middleware.RequireUser(cfg.Authenticator, cfg.Logger))
		bookings.POST("", bookingHandler.CreateBooking)
		bookings.GET("", bookingHandler.ListBookings)
		bookings.GET("/:booking_id", bookingHandler.GetBooking)
	}

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.Response{Success: false, Message: "Route not found"})
	})

	return router
}
