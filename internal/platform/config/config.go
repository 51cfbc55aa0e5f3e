package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration.
type Server struct {
	Addr        string
	Environment string

	LogLevel  slog.Level
	LogFormat string

	JWTSigningKey string
	JWTIssuer     string

	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig

	// FieldsFile points at the YAML employment field catalog. Empty means the
	// built-in catalog.
	FieldsFile string
	// GeoSeedFile seeds the in-memory registry when no database is configured.
	GeoSeedFile string

	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

// RateLimitConfig budgets requests per caller. Zero disables a class.
type RateLimitConfig struct {
	ReadLimit  int
	WriteLimit int
	Window     time.Duration
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	var (
		cfg Server
		err error
	)

	cfg.Addr = getEnvDefault("TRANSFERDESK_ADDR", ":8080")
	cfg.Environment = getEnvDefault("ENVIRONMENT", "development")

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return Server{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	cfg.LogFormat = strings.ToLower(getEnvDefault("LOG_FORMAT", "json"))
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Server{}, fmt.Errorf("LOG_FORMAT: must be json or text, got %q", cfg.LogFormat)
	}

	cfg.JWTSigningKey = os.Getenv("JWT_SIGNING_KEY")
	if cfg.JWTSigningKey == "" {
		if cfg.IsProduction() {
			return Server{}, fmt.Errorf("JWT_SIGNING_KEY: required in production")
		}
		cfg.JWTSigningKey = devSigningKey
	}
	cfg.JWTIssuer = getEnvDefault("JWT_ISSUER", "transferdesk")

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	if cfg.Database.MaxOpenConns, err = getEnvInt("DATABASE_MAX_OPEN_CONNS", 25); err != nil {
		return Server{}, err
	}
	if cfg.Database.MaxIdleConns, err = getEnvInt("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Server{}, err
	}
	if cfg.Database.ConnMaxLifetime, err = getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return Server{}, err
	}

	cfg.Redis = RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
	if cfg.Redis.CacheTTL, err = getEnvDuration("REDIS_CACHE_TTL", 10*time.Minute); err != nil {
		return Server{}, err
	}

	cfg.Kafka = KafkaConfig{
		Brokers:    parseCSV(os.Getenv("KAFKA_BROKERS")),
		AuditTopic: getEnvDefault("AUDIT_TOPIC", "transferdesk.audit"),
	}

	if cfg.RateLimit.ReadLimit, err = getEnvInt("RATE_LIMIT_READ", 300); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.WriteLimit, err = getEnvInt("RATE_LIMIT_WRITE", 60); err != nil {
		return Server{}, err
	}
	if cfg.RateLimit.Window, err = getEnvDuration("RATE_LIMIT_WINDOW", time.Minute); err != nil {
		return Server{}, err
	}

	cfg.FieldsFile = os.Getenv("FIELDS_FILE")
	cfg.GeoSeedFile = os.Getenv("GEO_SEED_FILE")

	if cfg.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return Server{}, err
	}
	return cfg, nil
}

func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

func getEnvDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, val)
	}
	return n, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid duration %q (use Go format: 30s, 1h, 15m)", key, val)
	}
	return d, nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown level %q, expected debug, info, warn or error", level)
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
