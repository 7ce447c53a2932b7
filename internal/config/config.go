// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"primefit-service/internal/domain/customer"
	"primefit-service/internal/pkg/jwt"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type AppConfig struct {
	// Server
	HTTPAddr       string
	AllowedOrigins []string

	// Storage
	StorageDriver    string
	StorageKeyPrefix string
	PostgresURL      string
	SQLitePath       string

	// Redis backs the redis storage driver, sessions and the login limiter.
	// Empty disables all three.
	RedisAddr string
	RedisPass string
	RedisDB   int

	// JWT
	JWT jwt.Config

	// Login
	LoginRateLimit int

	// Admin overrides the canonical admin record fields that are set.
	Admin customer.Customer
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	admin := customer.CanonicalAdmin()
	admin.Name = getEnv("ADMIN_NAME", admin.Name)
	admin.Mobile = getEnv("ADMIN_MOBILE", admin.Mobile)
	admin.Password = getEnv("ADMIN_PASSWORD", admin.Password)

	return AppConfig{
		HTTPAddr:       getEnv("HTTP_ADDR", ":8000"),
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", nil),

		StorageDriver:    strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		StorageKeyPrefix: getEnv("STORAGE_KEY_PREFIX", customer.DefaultKeyPrefix),
		PostgresURL:      getEnv("POSTGRES_URL", ""),
		SQLitePath:       getEnv("SQLITE_PATH", "primefit.db"),

		RedisAddr: getEnv("REDIS_ADDR", ""),
		RedisPass: getEnv("REDIS_PASS", ""),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		JWT: jwt.Config{
			Secret:   getEnv("JWT_SECRET", ""),
			Issuer:   getEnv("JWT_ISSUER", "primefit-studio"),
			Audience: getEnv("JWT_AUDIENCE", "primefit-members"),
			TTL:      getEnvDuration("JWT_TTL", 24*time.Hour),
		},

		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 5),

		Admin: admin,
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
