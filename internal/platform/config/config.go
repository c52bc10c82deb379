package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Backend selects where products and sales live.
type Backend string

const (
	BackendPostgres Backend = "postgres"
	BackendMemory   Backend = "memory"
)

// Config holds everything the API process reads from the environment.
type Config struct {
	Port        string
	Backend     Backend
	DatabaseURL string

	RedisURL      string
	RedisPassword string
	RedisDB       int

	JWTSecret string
	TokenTTL  time.Duration

	CommitTimeout     time.Duration
	CartDraftTTL      time.Duration
	CatalogCacheTTL   time.Duration
	LowStockThreshold int
	ReportLocation    *time.Location

	LogLevel  string
	LogFormat string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests need not touch the real environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Port:          env("APP_PORT", "8080"),
		Backend:       Backend(env("STORE_BACKEND", string(BackendPostgres))),
		DatabaseURL:   getenv("DATABASE_URL"),
		RedisURL:      getenv("REDIS_URL"),
		RedisPassword: getenv("REDIS_PASSWORD"),
		JWTSecret:     getenv("JWT_SECRET"),
		LogLevel:      env("LOG_LEVEL", "info"),
		LogFormat:     env("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.RedisDB, err = intEnv(getenv, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.LowStockThreshold, err = intEnv(getenv, "LOW_STOCK_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = durationEnv(getenv, "TOKEN_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CommitTimeout, err = durationEnv(getenv, "COMMIT_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.CartDraftTTL, err = durationEnv(getenv, "CART_DRAFT_TTL", 72*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CatalogCacheTTL, err = durationEnv(getenv, "CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	cfg.ReportLocation, err = time.LoadLocation(env("REPORT_TIMEZONE", "Asia/Manila"))
	if err != nil {
		return nil, fmt.Errorf("REPORT_TIMEZONE: %w", err)
	}

	switch cfg.Backend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the %s backend", cfg.Backend)
		}
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET is required")
		}
	case BackendMemory:
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = "dev-secret"
		}
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND: %s (allowed: postgres, memory)", cfg.Backend)
	}
	if cfg.CommitTimeout <= 0 {
		return nil, fmt.Errorf("COMMIT_TIMEOUT must be greater than zero")
	}
	return cfg, nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func durationEnv(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
