// Package config loads server settings from the environment, after reading an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Storage drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// devJWTSecret signs tokens in development when JWT_SECRET is unset.
const devJWTSecret = "fintrack-dev-secret"

// Config holds the server settings.
type Config struct {
	Env  string
	Port int

	DB DBConfig

	JWTSecret string

	LogLevel  string
	LogFormat string

	DefaultMinimumBalance decimal.Decimal
	DefaultMonthlyBudget  decimal.Decimal
}

// DBConfig selects and configures the storage backend.
type DBConfig struct {
	Driver string
	// Path is the SQLite database file.
	Path string
	// URL is the PostgreSQL connection string.
	URL string
	// TxTimeout bounds a single unit of work.
	TxTimeout time.Duration
}

// Production reports whether the server runs with ENV=production.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return fromEnv()
}

func fromEnv() (*Config, error) {
	cfg := &Config{
		Env:       strings.ToLower(getEnv("ENV", "development")),
		JWTSecret: getEnv("JWT_SECRET", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "text")),
		DB: DBConfig{
			Driver: strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Path:   getEnv("DB_PATH", "./data/fintrack.db"),
			URL:    getEnv("DATABASE_URL", ""),
		},
	}

	var err error
	if cfg.Port, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.DB.TxTimeout, err = time.ParseDuration(getEnv("TX_TIMEOUT", "5s")); err != nil {
		return nil, fmt.Errorf("invalid TX_TIMEOUT: %w", err)
	}
	if cfg.DefaultMinimumBalance, err = decimal.NewFromString(getEnv("DEFAULT_MINIMUM_BALANCE", "250")); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_MINIMUM_BALANCE: %w", err)
	}
	if cfg.DefaultMonthlyBudget, err = decimal.NewFromString(getEnv("DEFAULT_MONTHLY_BUDGET", "5000")); err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_MONTHLY_BUDGET: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DB.URL == "" {
			return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.TxTimeout <= 0 {
		return errors.New("TX_TIMEOUT must be positive")
	}
	if c.DefaultMinimumBalance.IsNegative() || c.DefaultMonthlyBudget.IsNegative() {
		return errors.New("account defaults must not be negative")
	}

	if c.JWTSecret == "" {
		if c.Production() {
			return errors.New("JWT_SECRET is required in production")
		}
		slog.Warn("JWT_SECRET not set, using the development secret")
		c.JWTSecret = devJWTSecret
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
