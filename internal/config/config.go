package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port      string
	Env       string
	LogLevel  string
	LogFormat string

	// Remote REST API
	APIBaseURL string
	APITimeout time.Duration

	// Redis backs the diet plan wizard sessions. Empty address selects the in-memory store.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Session cookies
	SessionTTL    time.Duration
	SessionSecret string
	CookieSecure  bool
	CookieDomain  string

	CORSAllowedOrigins []string

	// Scheduling presentation
	ClinicTimezone string
	SlotInterval   time.Duration

	// Diet plan wizard
	WizardTTL  time.Duration
	WizardPace time.Duration

	LoginRatePerSec float64
	LoginBurst      int

	MetricsEnabled bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       getEnv("ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		APITimeout: getEnvAsDuration("API_TIMEOUT", 20*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		SessionTTL:    getEnvAsDuration("SESSION_TTL", 7*24*time.Hour),
		SessionSecret: getEnv("SESSION_SECRET", ""),
		CookieSecure:  getEnvAsBool("COOKIE_SECURE", false),
		CookieDomain:  getEnv("COOKIE_DOMAIN", ""),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		ClinicTimezone: getEnv("CLINIC_TIMEZONE", "Asia/Kolkata"),
		SlotInterval:   getEnvAsDuration("SLOT_INTERVAL", 30*time.Minute),

		WizardTTL:  getEnvAsDuration("WIZARD_TTL", 24*time.Hour),
		WizardPace: getEnvAsDuration("WIZARD_PACE", 0),

		LoginRatePerSec: getEnvAsFloat("LOGIN_RATE_PER_SEC", 1),
		LoginBurst:      getEnvAsInt("LOGIN_BURST", 5),

		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}
}

// Location resolves the clinic timezone, falling back to UTC when the name is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ClinicTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the portal runs with production settings.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
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

// getEnvAsList splits a comma separated variable, dropping blank entries.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
