package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Pricing  PricingConfig
	Trial    TrialConfig
	Maps     MapsConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	Environment  string
	ServiceName  string
	ReadTimeout  int
	WriteTimeout int
	CORSOrigins  string // Comma-separated list of allowed origins
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// NATSConfig holds NATS configuration for event publication
type NATSConfig struct {
	URL     string
	Enabled bool
}

// PricingConfig holds subscription pricing configuration.
// The active phase is supplied by operations, not derived from calendar dates.
type PricingConfig struct {
	CurrentPhase        string // launch, early, growth, premium
	LaunchDriverCap     int    // drivers admitted at launch pricing
	ReconnectionFee     int64  // minor units, charged after 7+ days overdue
	BillingCycleDays    int
	ReferralMonthlyCap  int
	ReferralTripsNeeded int
}

// TrialConfig holds trial period limits
type TrialConfig struct {
	MaxHours int
	MaxTrips int
}

// MapsConfig holds map cost-control configuration
type MapsConfig struct {
	HourlyRequestLimit    int
	DailyRequestLimit     int
	TrialDailyLimit       int
	CacheTTLSeconds       int
	NavigationIntervalSec int
	BaseFare              int64   // minor units
	PerKmRate             int64   // minor units
	RedisPrefix           string
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ServiceName:  serviceName,
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),
			CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "driverlifecycle"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Pricing: PricingConfig{
			CurrentPhase:        getEnv("PRICING_PHASE", "launch"),
			LaunchDriverCap:     getEnvAsInt("LAUNCH_DRIVER_CAP", 500),
			ReconnectionFee:     getEnvAsInt64("RECONNECTION_FEE", 2000),
			BillingCycleDays:    getEnvAsInt("BILLING_CYCLE_DAYS", 30),
			ReferralMonthlyCap:  getEnvAsInt("REFERRAL_MONTHLY_CAP", 5),
			ReferralTripsNeeded: getEnvAsInt("REFERRAL_TRIPS_NEEDED", 20),
		},
		Trial: TrialConfig{
			MaxHours: getEnvAsInt("TRIAL_MAX_HOURS", 24),
			MaxTrips: getEnvAsInt("TRIAL_MAX_TRIPS", 3),
		},
		Maps: MapsConfig{
			HourlyRequestLimit:    getEnvAsInt("MAPS_HOURLY_LIMIT", 100),
			DailyRequestLimit:     getEnvAsInt("MAPS_DAILY_LIMIT", 500),
			TrialDailyLimit:       getEnvAsInt("MAPS_TRIAL_DAILY_LIMIT", 20),
			CacheTTLSeconds:       getEnvAsInt("MAPS_CACHE_TTL_SECONDS", 3600),
			NavigationIntervalSec: getEnvAsInt("MAPS_NAV_INTERVAL_SECONDS", 30),
			BaseFare:              getEnvAsInt64("MAPS_BASE_FARE", 500),
			PerKmRate:             getEnvAsInt64("MAPS_PER_KM_RATE", 150),
			RedisPrefix:           getEnv("MAPS_REDIS_PREFIX", "maps"),
		},
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}
