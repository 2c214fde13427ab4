package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"railway-booking/auth"
	"railway-booking/config"
	"railway-booking/database"
	"railway-booking/handlers"
	"railway-booking/logging"
	"railway-booking/memstore"
	"railway-booking/middleware"
	"railway-booking/models"
	"railway-booking/services"
	"railway-booking/store"
)

const devTokenTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg := config.Load()

	port := pflag.String("port", cfg.ServerPort, "HTTP listen port")
	storeKind := pflag.String("store", cfg.Store, "backing store: postgres or memory")
	migrate := pflag.Bool("migrate", true, "apply schema migrations on startup (postgres only)")
	pflag.Parse()
	cfg.ServerPort = *port
	if pflag.CommandLine.Changed("store") {
		cfg.Store = *storeKind
		cfg.Validate()
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsProduction())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("Starting Railway Management System",
		zap.String("env", cfg.AppEnv),
		zap.String("store", cfg.Store))

	ctx := context.Background()
	verifier := auth.NewTokenVerifier(cfg.JWTSecret)

	st, db, err := openStore(ctx, cfg, *migrate, verifier, logger)
	if err != nil {
		logger.Fatal("Failed to open store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	policy, err := auth.NewAdminPolicy(ctx)
	if err != nil {
		logger.Fatal("Failed to prepare admin policy", zap.Error(err))
	}

	bookingService := services.NewBookingService(st, services.BookingConfig{
		Timeout:      cfg.BookingTimeout,
		MaxAttempts:  cfg.BookingMaxAttempts,
		RetryBackoff: services.DefaultBookingConfig().RetryBackoff,
	}, logger)
	trainService := services.NewTrainService(st, logger)

	// Set Gin to release mode in production
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	globalLimiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow,
		"Too many requests from this IP, please try again later.")
	bookingLimiter := middleware.NewRateLimiter(cfg.BookingRateLimitRequests, cfg.BookingRateLimitWindow,
		"Too many booking attempts, please try again later.")

	router := handlers.NewRouter(handlers.RouterConfig{
		Bookings:       bookingService,
		Trains:         trainService,
		Authenticator:  auth.NewAuthenticator(verifier, st),
		AdminPolicy:    policy,
		AdminAPIKey:    cfg.AdminAPIKey,
		GlobalLimiter:  globalLimiter,
		BookingLimiter: bookingLimiter,
		Logger:         logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("port", cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// openStore returns the configured store. The *sql.DB is nil for the
// in-memory store.
func openStore(ctx context.Context, cfg *config.Config, migrate bool, verifier *auth.TokenVerifier, logger *zap.Logger) (store.Store, *sql.DB, error) {
	if cfg.Store == config.StoreMemory {
		mem, err := memstore.New()
		if err != nil {
			return nil, nil, err
		}
		if err := seedDemoUser(mem, verifier, logger); err != nil {
			return nil, nil, err
		}
		return mem, nil, nil
	}

	db, err := database.Connect(ctx, database.DSN(cfg), logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if migrate {
		if err := database.RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return database.NewPostgres(db, cfg.LockTimeout), db, nil
}

// seedDemoUser registers one rider so the in-memory store is usable without
// an identity provider
func seedDemoUser(mem *memstore.Store, verifier *auth.TokenVerifier, logger *zap.Logger) error {
	user, err := mem.AddUser(models.User{Username: "demo", Email: "demo@example.com"})
	if err != nil {
		return err
	}

	token, err := verifier.Issue(user.ID, devTokenTTL)
	if err != nil {
		logger.Warn("Demo user created without a token", zap.Error(err))
		return nil
	}
	logger.Info("Demo user created",
		zap.Int64("user_id", user.ID),
		zap.String("token", token))
	return nil
}
