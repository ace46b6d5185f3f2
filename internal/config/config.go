// Package config loads process-wide, read-only configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/yussieik/polyextract/internal/apperrors"
)

// Config holds the values every component needs at startup. It is constructed once and
// passed down by value/pointer; nothing in this package mutates it after Load returns.
type Config struct {
	PolygonAPIKey     string
	RequestsPerSecond int
	MaxBurstRequests  int
	DatabaseURL       string
	Port              string
}

// Load reads configuration from the environment, first loading a .env file if one exists
// (local development convenience; a missing file is not an error).
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "no .env file found, using environment variables")
	}

	apiKey := os.Getenv("POLYGON_API_KEY")
	if apiKey == "" {
		return Config{}, &apperrors.ConfigError{Field: "POLYGON_API_KEY", Err: fmt.Errorf("is required")}
	}

	rps, err := parsePositiveInt("REQUESTS_PER_SECOND")
	if err != nil {
		return Config{}, err
	}

	burst, err := parsePositiveInt("MAX_BURST_REQUESTS")
	if err != nil {
		return Config{}, err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		PolygonAPIKey:     apiKey,
		RequestsPerSecond: rps,
		MaxBurstRequests:  burst,
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              port,
	}, nil
}

func parsePositiveInt(name string) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, &apperrors.ConfigError{Field: name, Err: fmt.Errorf("is required")}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &apperrors.ConfigError{Field: name, Err: fmt.Errorf("must be an integer: %w", err)}
	}
	if n <= 0 {
		return 0, &apperrors.ConfigError{Field: name, Err: fmt.Errorf("must be positive, got %d", n)}
	}
	return n, nil
}
