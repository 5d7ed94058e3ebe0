package config

import (
	"os"
	"strconv"

	"gosurv/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Analysis AnalysisConfig
	Data     DataConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port string
}

// DatabaseConfig holds database connection settings. URL may be empty, in
// which case curve persistence is disabled.
type DatabaseConfig struct {
	URL string
}

// AnalysisConfig holds estimation settings
type AnalysisConfig struct {
	ConfidenceLevel float64
	Tolerance       float64
	MaxIterations   int
	StartOffset     float64
}

// DataConfig holds data loading settings
type DataConfig struct {
	File string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Analysis: AnalysisConfig{
			ConfidenceLevel: getEnvFloat("CONFIDENCE_LEVEL", 0.95),
			Tolerance:       getEnvFloat("CONVERGENCE_TOLERANCE", 1e-6),
			MaxIterations:   getEnvInt("MAX_ITERATIONS", 100),
			StartOffset:     getEnvFloat("START_OFFSET", 0),
		},
		Data: DataConfig{
			File: os.Getenv("DATA_FILE"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Analysis.ConfidenceLevel <= 0 || c.Analysis.ConfidenceLevel >= 1 {
		return errors.ConfigInvalid("CONFIDENCE_LEVEL must be in (0,1)")
	}
	if c.Analysis.Tolerance <= 0 {
		return errors.ConfigInvalid("CONVERGENCE_TOLERANCE must be positive")
	}
	if c.Analysis.MaxIterations < 1 {
		return errors.ConfigInvalid("MAX_ITERATIONS must be at least 1")
	}
	if c.Analysis.StartOffset < 0 {
		return errors.ConfigInvalid("START_OFFSET must be non-negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
