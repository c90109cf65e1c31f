package config

import (
	"os"
	"strconv"

	"goanova/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Analysis  AnalysisConfig
	Bootstrap BootstrapConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// LoggingConfig selects the zap profile
type LoggingConfig struct {
	Env string // "production" or "development"
}

// AnalysisConfig holds statistical defaults
type AnalysisConfig struct {
	DefaultAlpha float64
}

// BootstrapConfig holds resampling settings
type BootstrapConfig struct {
	Samples int
	Workers int
	Seed    int64
}

// Load reads configuration from environment variables and validates it.
// A malformed value is a configuration error, never a silent fallback.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	logEnv := getEnvOrDefault("LOG_ENV", "production")
	if logEnv != "production" && logEnv != "development" {
		return nil, errors.Newf(errors.CodeConfigInvalid,
			"LOG_ENV must be production or development, got %q", logEnv)
	}
	cfg.Logging = LoggingConfig{Env: logEnv}

	alpha, err := getEnvFloat("DEFAULT_ALPHA", 0.05)
	if err != nil {
		return nil, err
	}
	if alpha <= 0 || alpha >= 1 {
		return nil, errors.Newf(errors.CodeConfigInvalid,
			"DEFAULT_ALPHA must lie strictly between 0 and 1, got %v", alpha)
	}
	cfg.Analysis = AnalysisConfig{DefaultAlpha: alpha}

	samples, err := getEnvInt("BOOTSTRAP_SAMPLES", 5000)
	if err != nil {
		return nil, err
	}
	if samples < 1 {
		return nil, errors.Newf(errors.CodeConfigInvalid,
			"BOOTSTRAP_SAMPLES must be positive, got %d", samples)
	}

	workers, err := getEnvInt("BOOTSTRAP_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		return nil, errors.Newf(errors.CodeConfigInvalid,
			"BOOTSTRAP_WORKERS must be positive, got %d", workers)
	}

	seed, err := getEnvInt64("RNG_SEED", 42)
	if err != nil {
		return nil, err
	}
	cfg.Bootstrap = BootstrapConfig{Samples: samples, Workers: workers, Seed: seed}

	return cfg, nil
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.Newf(errors.CodeConfigInvalid, "%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.Newf(errors.CodeConfigInvalid, "%s must be an integer, got %q", key, value)
	}
	return parsed, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Newf(errors.CodeConfigInvalid, "%s must be a number, got %q", key, value)
	}
	return parsed, nil
}
