// Package config loads server settings from the environment and an optional
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Backends.
const (
	BackendSQLite    = "sqlite"
	BackendFirestore = "firestore"
)

// Config holds the server settings.
type Config struct {
	Backend             string
	DBPath              string
	Addr                string
	LogLevel            string
	LogFormat           string
	FirebaseProjectID   string
	FirebaseCredentials string
	JWTSecret           string
	OTLPEndpoint        string
	// RequestRate is the number of requests a user may create per minute.
	RequestRate int
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Backend:     BackendSQLite,
		DBPath:      "igralnica.db",
		Addr:        ":8080",
		LogLevel:    "info",
		LogFormat:   "json",
		RequestRate: 10,
	}
}

// Load reads .env from the working directory, if present, and then the
// process environment. Variables already set in the environment win over
// .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, starting from Default.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	str("IGRALNICA_BACKEND", &c.Backend)
	str("IGRALNICA_DB", &c.DBPath)
	str("IGRALNICA_ADDR", &c.Addr)
	str("IGRALNICA_LOG_LEVEL", &c.LogLevel)
	str("IGRALNICA_LOG_FORMAT", &c.LogFormat)
	str("FIREBASE_PROJECT_ID", &c.FirebaseProjectID)
	str("FIREBASE_CREDENTIALS", &c.FirebaseCredentials)
	str("IGRALNICA_JWT_SECRET", &c.JWTSecret)
	str("OTEL_EXPORTER_OTLP_ENDPOINT", &c.OTLPEndpoint)

	if v := getenv("IGRALNICA_REQUEST_RATE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("IGRALNICA_REQUEST_RATE: %w", err)
		}
		c.RequestRate = n
	}
	return c, c.Validate()
}

// Validate checks that the settings are usable together.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case BackendFirestore:
		if c.FirebaseProjectID == "" {
			return errors.New("firestore backend needs FIREBASE_PROJECT_ID")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.RequestRate <= 0 {
		return fmt.Errorf("request rate must be positive, got %d", c.RequestRate)
	}
	return nil
}
