package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port          string
	Env           string
	LogLevel      string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// API key allowlist for /api routes (comma separated).
	APIKeys []string
	// HMAC secret for admin JWT auth.
	AdminJWTSecret string

	CORSAllowedOrigins []string

	// Requests per second allowed per client IP, with burst headroom.
	RateLimitPerSecond float64
	RateLimitBurst     int

	// Phone reputation lookup configuration.
	PhoneReputationBaseURL string
	PhoneReputationAPIKey  string
	PhoneReputationTimeout time.Duration
	PhoneCacheTTL          time.Duration
	PhoneBatchConcurrency  int
	// Country leads must originate from; anything else is rejected.
	HomeCountry string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		APIKeys:        splitAndTrim(getEnv("VALID_API_KEYS", "")),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ORIGINS", "*")),

		RateLimitPerSecond: getEnvAsFloat("RATE_LIMIT_PER_SECOND", 2),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 100),

		PhoneReputationBaseURL: getEnv("PHONEREVEALR_BASE_URL", "https://phonerevealr.com/api"),
		PhoneReputationAPIKey:  getEnv("PHONEREVEALR_API_KEY", ""),
		PhoneReputationTimeout: getEnvAsDuration("PHONEREVEALR_TIMEOUT", 5*time.Second),
		PhoneCacheTTL:          getEnvAsDuration("PHONE_CACHE_TTL", time.Hour),
		PhoneBatchConcurrency:  getEnvAsInt("PHONE_BATCH_CONCURRENCY", 10),
		HomeCountry:            getEnv("HOME_COUNTRY", "US"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
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

func splitAndTrim(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
