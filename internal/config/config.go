package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Tenancy       TenancyConfig
	Calendar      CalendarConfig
	Matches       MatchConfig
	Ranking       RankingConfig
	Operator      OperatorConfig
	Observability ObservabilityConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver selects the store: postgres, or memory for local development.
	Driver       string
	URL          string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// AutoMigrate applies the embedded schema at startup.
	AutoMigrate bool
}

// RedisConfig holds the optional ranking cache configuration. An empty URL
// disables the cache.
type RedisConfig struct {
	URL      string
	CacheTTL time.Duration
}

// TenancyConfig controls how requests are mapped to clubs
type TenancyConfig struct {
	Mode             string
	DefaultSlug      string
	BaseDomain       string
	LegacyNullCompat bool
}

// CalendarConfig fixes the zone civil days are computed in
type CalendarConfig struct {
	UTCOffset string
}

// MatchConfig holds match recording configuration
type MatchConfig struct {
	DuplicateWindow time.Duration
}

// RankingConfig holds ranking aggregation configuration
type RankingConfig struct {
	BatchSize int
}

// OperatorConfig holds the operator token secret. Without it the operator
// endpoints are disabled.
type OperatorConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
	SamplingRate   float64
}

// SecurityConfig holds argon2 parameters for club admin passwords and join codes
type SecurityConfig struct {
	Argon2Memory      uint32
	Argon2Iterations  uint32
	Argon2Parallelism uint8
	Argon2SaltLength  uint32
	Argon2KeyLength   uint32
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment variables
// win over it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("SERVER_PORT", "8080"),
			ReadTimeout:     parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout:    parseDuration("SERVER_WRITE_TIMEOUT", "75s"),
			IdleTimeout:     parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
			ShutdownTimeout: parseDuration("SERVER_SHUTDOWN_TIMEOUT", "30s"),
		},
		Database: DatabaseConfig{
			Driver:       strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
			URL:          getEnv("DATABASE_URL", ""),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "clubledger"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "clubledger"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: parseInt("DB_MAX_IDLE_CONNS", 5),
			AutoMigrate:  parseBool("DB_AUTO_MIGRATE", false),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			CacheTTL: parseDuration("RANKING_CACHE_TTL", "10m"),
		},
		Tenancy: TenancyConfig{
			Mode:             getEnv("TENANCY_MODE", "permissive"),
			DefaultSlug:      getEnv("TENANCY_DEFAULT_SLUG", ""),
			BaseDomain:       getEnv("TENANCY_BASE_DOMAIN", ""),
			LegacyNullCompat: parseBool("TENANCY_LEGACY_NULL_COMPAT", true),
		},
		Calendar: CalendarConfig{
			UTCOffset: getEnv("CALENDAR_UTC_OFFSET", "+09:00"),
		},
		Matches: MatchConfig{
			DuplicateWindow: parseDuration("MATCH_DUPLICATE_WINDOW", "30m"),
		},
		Ranking: RankingConfig{
			BatchSize: parseInt("RANKING_BATCH_SIZE", 5),
		},
		Operator: OperatorConfig{
			TokenSecret: getEnv("OPERATOR_TOKEN_SECRET", ""),
			TokenTTL:    parseDuration("OPERATOR_TOKEN_TTL", "24h"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "clubledger"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
			SamplingRate:   parseFloat("OTEL_SAMPLING_RATE", 1.0),
		},
		Security: SecurityConfig{
			Argon2Memory:      uint32(parseInt("ARGON2_MEMORY", 65536)),
			Argon2Iterations:  uint32(parseInt("ARGON2_ITERATIONS", 3)),
			Argon2Parallelism: uint8(parseInt("ARGON2_PARALLELISM", 4)),
			Argon2SaltLength:  uint32(parseInt("ARGON2_SALT_LENGTH", 16)),
			Argon2KeyLength:   uint32(parseInt("ARGON2_KEY_LENGTH", 32)),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: parseFloat("RATELIMIT_RPS", 10),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD or DATABASE_URL is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Database.Driver)
	}

	switch strings.ToLower(c.Tenancy.Mode) {
	case "single", "permissive", "strict":
	default:
		return fmt.Errorf("unknown TENANCY_MODE %q", c.Tenancy.Mode)
	}

	if c.Matches.DuplicateWindow <= 0 {
		return fmt.Errorf("MATCH_DUPLICATE_WINDOW must be positive")
	}
	if c.Ranking.BatchSize < 1 {
		return fmt.Errorf("RANKING_BATCH_SIZE must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		// Fallback to default
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
