package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Environment
	AppEnv   string
	LogLevel string

	// Store
	Store      string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Auth
	JWTSecret   string
	AdminAPIKey string

	// Booking
	BookingTimeout     time.Duration
	LockTimeout        time.Duration
	BookingMaxAttempts int

	// Rate limits
	RateLimitRequests        int
	RateLimitWindow          time.Duration
	BookingRateLimitRequests int
	BookingRateLimitWindow   time.Duration

	// Server
	ServerPort string
}

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Load loads configuration from environment variables
func Load() *Config {
	// Try to load .env file (optional for local development)
	_ = godotenv.Load()

	config := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Store:      getEnv("STORE", StorePostgres),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "railway"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminAPIKey: os.Getenv("ADMIN_API_KEY"),

		BookingTimeout:     getDuration("BOOKING_TIMEOUT", 10*time.Second),
		LockTimeout:        getDuration("LOCK_TIMEOUT", 5*time.Second),
		BookingMaxAttempts: getInt("BOOKING_MAX_ATTEMPTS", 3),

		RateLimitRequests:        getInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:          getDuration("RATE_LIMIT_WINDOW", 15*time.Minute),
		BookingRateLimitRequests: getInt("BOOKING_RATE_LIMIT_REQUESTS", 5),
		BookingRateLimitWindow:   getDuration("BOOKING_RATE_LIMIT_WINDOW", time.Minute),

		ServerPort: getEnv("SERVER_PORT", "3001"),
	}

	config.Validate()

	return config
}

// Validate warns about missing secrets and resets unusable values to defaults
func (c *Config) Validate() {
	if c.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET not set, every booking request will be rejected")
	}
	if c.AdminAPIKey == "" {
		log.Println("WARNING: ADMIN_API_KEY not set, admin endpoints are disabled")
	}

	switch c.Store {
	case StorePostgres, StoreMemory:
	default:
		log.Printf("WARNING: Unknown STORE: %s (using %s as fallback)\n", c.Store, StorePostgres)
		c.Store = StorePostgres
	}

	if c.BookingMaxAttempts < 1 {
		c.BookingMaxAttempts = 1
	}
}

// IsProduction reports whether the service runs with production settings
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("WARNING: invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
