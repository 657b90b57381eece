package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port        string
	Env         string
	LogLevel    string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// OpenDental API gateway
	OpenDentalBaseURL      string
	OpenDentalDeveloperKey string
	OpenDentalCustomerKey  string
	GatewayTimeout         time.Duration

	// Office context cache
	OfficeContextTTL   time.Duration
	OccupiedWindowDays int

	// Scheduling defaults
	DefaultAppointmentMinutes int
	MaxSlotOptions            int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		OpenDentalBaseURL:      getEnv("OPENDENTAL_BASE_URL", ""),
		OpenDentalDeveloperKey: getEnv("OPENDENTAL_DEVELOPER_KEY", ""),
		OpenDentalCustomerKey:  getEnv("OPENDENTAL_CUSTOMER_KEY", ""),
		GatewayTimeout:         getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),

		OfficeContextTTL:   getEnvAsDuration("OFFICE_CONTEXT_TTL", 5*time.Minute),
		OccupiedWindowDays: getEnvAsInt("OCCUPIED_WINDOW_DAYS", 7),

		DefaultAppointmentMinutes: getEnvAsInt("DEFAULT_APPOINTMENT_MINUTES", 30),
		MaxSlotOptions:            getEnvAsInt("MAX_SLOT_OPTIONS", 3),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
