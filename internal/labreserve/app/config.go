package app

import (
	"os"
	"strconv"
	"time"

	"github.com/labreserve/labreserve/pkg/jwtx"
)

type Config struct {
	Issuer    string // Issuer claim for access tokens (default: labreserve)
	JWTSecret string // Required: HS256 signing secret, at least 32 bytes

	DBDriver string // Database driver (sqlite, postgres) (default: sqlite)
	DBDSN    string // Connection string; for sqlite this is the database file path

	AccessTokenTTL time.Duration // Access token lifetime (default: 15m)
	RefreshTTL     time.Duration // Refresh session lifetime (default: 168h)

	SecureCookies bool // Whether refresh cookies carry the Secure attribute (default: true)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-session cleanup interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:               getEnvOrDefault("LABRESERVE_ISSUER", "labreserve"),
		JWTSecret:            os.Getenv("LABRESERVE_JWT_SECRET"),
		DBDriver:             getEnvOrDefault("LABRESERVE_DB_DRIVER", "sqlite"),
		DBDSN:                getEnvOrDefault("LABRESERVE_DB_DSN", "labreserve.db"),
		AccessTokenTTL:       getEnvDurationOrDefault("LABRESERVE_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("LABRESERVE_REFRESH_TTL", jwtx.DefaultRefreshSessionTTL),
		SecureCookies:        getEnvBoolOrDefault("LABRESERVE_SECURE_COOKIES", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are taken as minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
