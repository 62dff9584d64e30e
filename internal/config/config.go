// Package config loads process configuration from environment variables,
// following the accessor style of a single flat Config struct with
// typed getEnv* helpers and sensible defaults.
package config

import (
	"os"
	"strconv"

	"github.com/aaronmussig/rsrq/internal/logger"
	"github.com/aaronmussig/rsrq/internal/rsrqerr"
)

// Config holds process-wide configuration.
type Config struct {
	// RedisURL is the connection string for Redis. Required.
	RedisURL string
	// Logging configures the process logger.
	Logging *logger.Config
}

// Load reads configuration from the environment. REDIS_URL is required;
// its absence is a fatal configuration error (env_missing).
func Load() (*Config, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, rsrqerr.New(rsrqerr.KindEnvMissing, "REDIS_URL is required")
	}

	cfg := &Config{
		RedisURL: redisURL,
		Logging:  loadLoggingConfig(),
	}

	if err := cfg.Logging.Validate(); err != nil {
		return nil, rsrqerr.Wrap(rsrqerr.KindGeneral, "invalid logging config", err)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func loadLoggingConfig() *logger.Config {
	cfg := logger.DefaultConfig()

	if level := getEnv("LOG_LEVEL", ""); level != "" {
		cfg.Level = logger.LogLevel(level)
	}
	if format := getEnv("LOG_FORMAT", ""); format != "" {
		cfg.Format = logger.LogFormat(format)
	}

	cfg.Console.Enabled = getEnvAsBool("LOG_CONSOLE_ENABLED", true)
	cfg.Console.Color = getEnvAsBool("LOG_COLOR", true)

	cfg.File.Enabled = getEnvAsBool("LOG_FILE_ENABLED", false)
	cfg.File.Path = getEnv("LOG_FILE_PATH", "rsrq.log")
	cfg.File.MaxSizeMB = getEnvAsInt("LOG_FILE_MAX_SIZE_MB", 100)
	cfg.File.MaxBackups = getEnvAsInt("LOG_FILE_MAX_BACKUPS", 5)
	cfg.File.MaxAgeDays = getEnvAsInt("LOG_FILE_MAX_AGE_DAYS", 30)
	cfg.File.Compress = getEnvAsBool("LOG_FILE_COMPRESS", true)

	return cfg
}
