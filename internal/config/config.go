package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const PROD_STRING = "prod"

// Storage backends selectable with STORE.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all application configuration loaded from environment.
type Config struct {
	IsProduction      bool
	ProdOrigins       string
	HTTPAddr          string
	Store             string
	DBDSN             string
	JWTSecret         string
	JWTAccessTokenTTL time.Duration
	BcryptCost        int

	// Scheduling
	BookingRequiresApproval bool
	MaxReservationSpan      time.Duration

	// Timeline defaults
	TimelineStartHour      int
	TimelineEndHour        int
	TimelineUnitsPerMinute float64
	TimelineMinLength      float64
	TimelineStackStep      float64
}

// Load loads configuration from .env (optional) and environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("failed to load .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var err error
	cfg := &Config{}

	// Production origin (default: empty)
	cfg.ProdOrigins = getEnv("PROD_ORIGINS", "")

	// Application environment (default: dev)
	cfg.IsProduction = getEnv("APP_ENV", "dev") == PROD_STRING
	if cfg.IsProduction && cfg.ProdOrigins == "" {
		return nil, fmt.Errorf("PROD_ORIGINS is required when APP_ENV=%s", PROD_STRING)
	}

	// HTTP listen address (default: :8080)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")

	// Storage backend (default: postgres)
	cfg.Store = getEnv("STORE", StorePostgres)
	switch cfg.Store {
	case StorePostgres:
		// Database DSN is required for postgres
		cfg.DBDSN = os.Getenv("DB_DSN")
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required")
		}
	case StoreMemory:
	default:
		return nil, fmt.Errorf("invalid STORE %q: want %s or %s", cfg.Store, StorePostgres, StoreMemory)
	}

	// JWT secret is required for signing tokens
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	// JWT access token TTL, parse as time.Duration (e.g. "15m", "1h").
	if cfg.JWTAccessTokenTTL, err = getEnvAsDuration("JWT_ACCESS_TOKEN_TTL", 15*time.Minute); err != nil {
		return nil, err
	}

	// Bcrypt cost for password hashing (default: 12)
	if cfg.BcryptCost, err = getEnvAsInt("BCRYPT_COST", 12); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}

	if cfg.BookingRequiresApproval, err = getEnvAsBool("BOOKING_REQUIRES_APPROVAL", true); err != nil {
		return nil, err
	}
	if cfg.MaxReservationSpan, err = getEnvAsDuration("MAX_RESERVATION_SPAN", 168*time.Hour); err != nil {
		return nil, err
	}

	if cfg.TimelineStartHour, err = getEnvAsInt("TIMELINE_START_HOUR", 7); err != nil {
		return nil, err
	}
	if cfg.TimelineEndHour, err = getEnvAsInt("TIMELINE_END_HOUR", 22); err != nil {
		return nil, err
	}
	if cfg.TimelineStartHour < 0 || cfg.TimelineEndHour > 24 || cfg.TimelineStartHour >= cfg.TimelineEndHour {
		return nil, fmt.Errorf("invalid timeline window %d-%d", cfg.TimelineStartHour, cfg.TimelineEndHour)
	}
	if cfg.TimelineUnitsPerMinute, err = getEnvAsFloat("TIMELINE_UNITS_PER_MINUTE", 2); err != nil {
		return nil, err
	}
	if cfg.TimelineMinLength, err = getEnvAsFloat("TIMELINE_MIN_LENGTH", 4); err != nil {
		return nil, err
	}
	if cfg.TimelineStackStep, err = getEnvAsFloat("TIMELINE_STACK_STEP", 20); err != nil {
		return nil, err
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable if set,
// otherwise returns the provided default value.
func getEnv(key, defaultValue string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer.
// It returns the default value if the variable is not set.
// It returns an error if the variable is set but is not a valid integer.
func getEnvAsInt(key string, defaultValue int) (int, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return 0, fmt.Errorf("env %s value %q is not a valid integer: %w", key, valStr, err)
	}

	return val, nil
}

func getEnvAsFloat(key string, defaultValue float64) (float64, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil || val <= 0 {
		return 0, fmt.Errorf("env %s value %q is not a positive number", key, valStr)
	}
	return val, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(valStr)
	if err != nil {
		return false, fmt.Errorf("env %s value %q is not a valid boolean: %w", key, valStr, err)
	}
	return val, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return val, nil
}
