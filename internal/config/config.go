package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the gallery service.
// Values come from the process environment, optionally seeded from a .env file.
type Config struct {
	Environment string
	ServerPort  string
	LogLevel    string
	LogFile     string

	// Database
	DBDriver    string // "postgres" or "sqlite"
	DatabaseURL string
	SQLitePath  string

	// Redis response cache
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	ResponseCacheTTL time.Duration

	// S3 gallery uploads
	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string

	// Gorse recommendation engine
	GorseURL    string
	GorseAPIKey string

	JWTSecret   string
	CORSOrigins []string

	// OpenTelemetry
	TelemetryEnabled bool
	OTLPEndpoint     string
	SamplingRate     float64

	// Gallery subsystem tunables
	RecommendationTTL    time.Duration
	CacheSweepInterval   time.Duration
	PreloadTimeout       time.Duration
	PreloadMaxTracked    int
	PreloadReleaseOnLoad bool
	NavigationCooldown   time.Duration
	SessionIdleTTL       time.Duration
	ImageLoadIdleTTL     time.Duration
}

// Load reads .env (if present) and the environment into a Config
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env
func FromEnv() (*Config, error) {
	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		ServerPort:  getEnvOrDefault("PORT", "8787"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "server.log"),

		DBDriver:    strings.ToLower(getEnvOrDefault("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnvOrDefault("SQLITE_PATH", "gallery.db"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),

		GorseURL:    os.Getenv("GORSE_URL"),
		GorseAPIKey: os.Getenv("GORSE_API_KEY"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "*")),

		OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
	}

	var err error
	if cfg.ResponseCacheTTL, err = durationEnv("RESPONSE_CACHE_TTL", 30*time.Second); err != nil {
		return nil, err
	}
	if cfg.RecommendationTTL, err = durationEnv("RECOMMENDATION_TTL", 60*time.Minute); err != nil {
		return nil, err
	}
	if cfg.CacheSweepInterval, err = durationEnv("CACHE_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PreloadTimeout, err = durationEnv("PRELOAD_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.NavigationCooldown, err = durationEnv("NAVIGATION_COOLDOWN", 300*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.ImageLoadIdleTTL, err = durationEnv("IMAGE_LOAD_IDLE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.PreloadMaxTracked, err = intEnv("PRELOAD_MAX_TRACKED", 32); err != nil {
		return nil, err
	}
	if cfg.PreloadReleaseOnLoad, err = boolEnv("PRELOAD_RELEASE_ON_LOAD", false); err != nil {
		return nil, err
	}
	if cfg.TelemetryEnabled, err = boolEnv("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.SamplingRate, err = floatEnv("OTEL_SAMPLING_RATE", 1.0); err != nil {
		return nil, err
	}

	if cfg.DBDriver != "postgres" && cfg.DBDriver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.DBDriver)
	}

	return cfg, nil
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// PostgresDSN returns DATABASE_URL or a DSN assembled from DB_* variables
func (c *Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		getEnvOrDefault("DB_HOST", "localhost"),
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "postgres"),
		os.Getenv("DB_PASSWORD"),
		getEnvOrDefault("DB_NAME", "fanhub"),
		getEnvOrDefault("DB_SSLMODE", "disable"),
	)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func boolEnv(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func floatEnv(key string, defaultValue float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
