// Package config reads the backupq daemon and CLI settings from BACKUPQ_*
// environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Uploader backends.
const (
	UploaderHTTP = "http"
	UploaderS3   = "s3"
)

type Config struct {
	// Admin API listen address, also used by the CLI to reach the daemon.
	Addr   string
	APIURL string

	Store         string
	FileDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
	Namespace     string

	Interval        time.Duration
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	MaxRetries      int
	MaxPayloadBytes int64
	UploadTimeout   time.Duration

	// Empty ProbeURL disables probing; connectivity is then driven through the API.
	ProbeURL      string
	ProbeInterval time.Duration

	Uploader    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Region    string
	S3UseSSL    bool

	LogLevel        slog.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

const (
	defaultAddr            = "127.0.0.1:8765"
	defaultFileDir         = "./backupq-data"
	defaultRedisAddr       = "127.0.0.1:6379"
	defaultInterval        = 10 * time.Second
	defaultBaseDelay       = 5 * time.Second
	defaultMaxDelay        = 300 * time.Second
	defaultMaxRetries      = 3
	defaultMaxPayloadBytes = 25 << 20 // 25 MiB
	defaultProbeInterval   = 15 * time.Second
	defaultShutdownTimeout = 10 * time.Second
)

// Load reads the environment, applies defaults and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:          getEnvDefault("BACKUPQ_ADDR", defaultAddr),
		Store:         strings.ToLower(getEnvDefault("BACKUPQ_STORE", StoreFile)),
		FileDir:       getEnvDefault("BACKUPQ_FILE_DIR", defaultFileDir),
		RedisAddr:     getEnvDefault("BACKUPQ_REDIS_ADDR", defaultRedisAddr),
		RedisPassword: os.Getenv("BACKUPQ_REDIS_PASSWORD"),
		PostgresDSN:   os.Getenv("BACKUPQ_PG_DSN"),
		Namespace:     os.Getenv("BACKUPQ_NAMESPACE"),
		ProbeURL:      os.Getenv("BACKUPQ_PROBE_URL"),
		Uploader:      strings.ToLower(getEnvDefault("BACKUPQ_UPLOADER", UploaderHTTP)),
		S3Endpoint:    os.Getenv("BACKUPQ_S3_ENDPOINT"),
		S3AccessKey:   os.Getenv("BACKUPQ_S3_ACCESS_KEY"),
		S3SecretKey:   os.Getenv("BACKUPQ_S3_SECRET_KEY"),
		S3Region:      getEnvDefault("BACKUPQ_S3_REGION", "us-east-1"),
		LogFormat:     strings.ToLower(getEnvDefault("BACKUPQ_LOG_FORMAT", "text")),
	}
	cfg.APIURL = getEnvDefault("BACKUPQ_API_URL", "http://"+cfg.Addr)

	var err error
	if cfg.RedisDB, err = getEnvInt("BACKUPQ_REDIS_DB", 0); err != nil {
		return nil, fmt.Errorf("BACKUPQ_REDIS_DB: %w", err)
	}
	if cfg.Interval, err = getEnvDuration("BACKUPQ_INTERVAL", defaultInterval); err != nil {
		return nil, fmt.Errorf("BACKUPQ_INTERVAL: %w", err)
	}
	if cfg.BaseDelay, err = getEnvDuration("BACKUPQ_BASE_DELAY", defaultBaseDelay); err != nil {
		return nil, fmt.Errorf("BACKUPQ_BASE_DELAY: %w", err)
	}
	if cfg.MaxDelay, err = getEnvDuration("BACKUPQ_MAX_DELAY", defaultMaxDelay); err != nil {
		return nil, fmt.Errorf("BACKUPQ_MAX_DELAY: %w", err)
	}
	if cfg.MaxRetries, err = getEnvInt("BACKUPQ_MAX_RETRIES", defaultMaxRetries); err != nil {
		return nil, fmt.Errorf("BACKUPQ_MAX_RETRIES: %w", err)
	}
	if cfg.MaxPayloadBytes, err = getEnvInt64("BACKUPQ_MAX_PAYLOAD_BYTES", defaultMaxPayloadBytes); err != nil {
		return nil, fmt.Errorf("BACKUPQ_MAX_PAYLOAD_BYTES: %w", err)
	}
	if cfg.UploadTimeout, err = getEnvDuration("BACKUPQ_UPLOAD_TIMEOUT", 0); err != nil {
		return nil, fmt.Errorf("BACKUPQ_UPLOAD_TIMEOUT: %w", err)
	}
	if cfg.ProbeInterval, err = getEnvDuration("BACKUPQ_PROBE_INTERVAL", defaultProbeInterval); err != nil {
		return nil, fmt.Errorf("BACKUPQ_PROBE_INTERVAL: %w", err)
	}
	if cfg.ShutdownTimeout, err = getEnvDuration("BACKUPQ_SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return nil, fmt.Errorf("BACKUPQ_SHUTDOWN_TIMEOUT: %w", err)
	}
	if cfg.S3UseSSL, err = getEnvBool("BACKUPQ_S3_USE_SSL", false); err != nil {
		return nil, fmt.Errorf("BACKUPQ_S3_USE_SSL: %w", err)
	}
	if cfg.LogLevel, err = ParseLogLevel(getEnvDefault("BACKUPQ_LOG_LEVEL", "info")); err != nil {
		return nil, fmt.Errorf("BACKUPQ_LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store {
	case StoreFile:
		if c.FileDir == "" {
			return fmt.Errorf("BACKUPQ_FILE_DIR: required for store %q", c.Store)
		}
	case StoreRedis, StoreMemory:
	case StorePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("BACKUPQ_PG_DSN: required for store %q", c.Store)
		}
	default:
		return fmt.Errorf("BACKUPQ_STORE: invalid value %q, allowed: file, redis, postgres, memory", c.Store)
	}

	switch c.Uploader {
	case UploaderHTTP:
	case UploaderS3:
		if c.S3Endpoint == "" {
			return fmt.Errorf("BACKUPQ_S3_ENDPOINT: required for uploader %q", c.Uploader)
		}
	default:
		return fmt.Errorf("BACKUPQ_UPLOADER: invalid value %q, allowed: http, s3", c.Uploader)
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("BACKUPQ_LOG_FORMAT: invalid value %q, allowed: json, text", c.LogFormat)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("BACKUPQ_INTERVAL: must be positive, got %s", c.Interval)
	}
	if c.BaseDelay <= 0 {
		return fmt.Errorf("BACKUPQ_BASE_DELAY: must be positive, got %s", c.BaseDelay)
	}
	if c.MaxDelay < c.BaseDelay {
		return fmt.Errorf("BACKUPQ_MAX_DELAY: %s is below BACKUPQ_BASE_DELAY %s", c.MaxDelay, c.BaseDelay)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("BACKUPQ_MAX_RETRIES: must be at least 1, got %d", c.MaxRetries)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("BACKUPQ_PROBE_INTERVAL: must be positive, got %s", c.ProbeInterval)
	}
	return nil
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLogLevel accepts debug, info, warn and error.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, allowed: debug, info, warn, error", s)
	}
}

func getEnvDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getEnvInt64(key string, def int64) (int64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", v)
	}
	return d, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", v)
	}
	return b, nil
}
