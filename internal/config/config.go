package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Payment  PaymentConfig
	Booking  BookingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// JWTConfig holds JWT-related configuration
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// PaymentConfig holds payment gateway configuration.
// DefaultGateway selects which gateway serves bookings that do not name a
// method explicitly; both gateways can be active at once.
type PaymentConfig struct {
	DefaultGateway string // "stripe" or "chapa"

	StripeSecretKey     string
	StripeWebhookSecret string

	ChapaSecretKey     string
	ChapaWebhookSecret string
	ChapaBaseURL       string

	CallbackURL string // our webhook endpoint registered with the gateways
	ReturnURL   string // client redirect after hosted checkout
}

// BookingConfig holds booking lifecycle configuration
type BookingConfig struct {
	HoldTTL         time.Duration // how long a pending/unpaid booking holds its dates
	DefaultCurrency string
	SweepSchedule   string // cron expression for the expiry/completion sweeps
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: time.Duration(getEnvAsInt("JWT_ACCESS_TOKEN_EXPIRY", 3600)) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
		Payment: PaymentConfig{
			DefaultGateway:      getEnv("PAYMENT_GATEWAY", "chapa"),
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			ChapaSecretKey:      getEnv("CHAPA_SECRET_KEY", ""),
			ChapaWebhookSecret:  getEnv("CHAPA_WEBHOOK_SECRET", ""),
			ChapaBaseURL:        getEnv("CHAPA_BASE_URL", "https://api.chapa.co/v1"),
			CallbackURL:         getEnv("PAYMENT_CALLBACK_URL", ""),
			ReturnURL:           getEnv("PAYMENT_RETURN_URL", ""),
		},
		Booking: BookingConfig{
			HoldTTL:         time.Duration(getEnvAsInt("BOOKING_HOLD_TTL_MINUTES", 30)) * time.Minute,
			DefaultCurrency: getEnv("BOOKING_DEFAULT_CURRENCY", "ETB"),
			SweepSchedule:   getEnv("BOOKING_SWEEP_SCHEDULE", "0 */5 * * * *"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	switch c.Payment.DefaultGateway {
	case "stripe":
		if c.Server.Environment == "production" && c.Payment.StripeSecretKey == "" {
			return fmt.Errorf("STRIPE_SECRET_KEY is required when PAYMENT_GATEWAY=stripe in production")
		}
	case "chapa":
		if c.Server.Environment == "production" && c.Payment.ChapaSecretKey == "" {
			return fmt.Errorf("CHAPA_SECRET_KEY is required when PAYMENT_GATEWAY=chapa in production")
		}
	default:
		return fmt.Errorf("invalid PAYMENT_GATEWAY: %s (must be 'stripe' or 'chapa')", c.Payment.DefaultGateway)
	}

	if c.Booking.HoldTTL <= 0 {
		return fmt.Errorf("BOOKING_HOLD_TTL_MINUTES must be positive")
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
