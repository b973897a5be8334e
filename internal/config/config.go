package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr             string
	DBPath           string
	CatalogDir       string
	LogLevel         string
	Username         string
	FeedbackDelayMS  int
	BatchLoadDelayMS int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:             envOr("ADDR", ":8080"),
		DBPath:           envOr("DB_PATH", "file:coderquest.db"),
		CatalogDir:       envOr("CATALOG_DIR", "catalog"),
		LogLevel:         envOr("LOG_LEVEL", "INFO"),
		Username:         envOr("USERNAME", "player"),
		FeedbackDelayMS:  envIntOr("FEEDBACK_DELAY_MS", 1500),
		BatchLoadDelayMS: envIntOr("BATCH_LOAD_DELAY_MS", 1000),
	}
}

// Validate checks the configuration and reports every problem found.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, fmt.Errorf("ADDR cannot be empty"))
	}
	if c.DBPath == "" {
		errs = append(errs, fmt.Errorf("DB_PATH cannot be empty"))
	}
	if c.CatalogDir == "" {
		errs = append(errs, fmt.Errorf("CATALOG_DIR cannot be empty"))
	}
	if c.Username == "" {
		errs = append(errs, fmt.Errorf("USERNAME cannot be empty"))
	}
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if c.FeedbackDelayMS < 0 {
		errs = append(errs, fmt.Errorf("FEEDBACK_DELAY_MS cannot be negative"))
	}
	if c.BatchLoadDelayMS < 0 {
		errs = append(errs, fmt.Errorf("BATCH_LOAD_DELAY_MS cannot be negative"))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
