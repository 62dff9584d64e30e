package logger

import (
	"fmt"
)

// LogLevel represents the severity level of a log entry.
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// LogFormat represents the output format for logs.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Component identifies which part of the system generated the log.
type Component string

const (
	ComponentWorker    Component = "worker"
	ComponentQueue     Component = "queue"
	ComponentSnakemake Component = "snakemake"
	ComponentReaper    Component = "reaper"
	ComponentCLI       Component = "cli"
)

// Config holds the logging configuration for both tiers.
type Config struct {
	Level  LogLevel  `json:"level"`
	Format LogFormat `json:"format"`

	Console ConsoleConfig `json:"console"`
	File    FileConfig    `json:"file"`
}

// ConsoleConfig configures console/terminal logging (Tier 1, on by default).
type ConsoleConfig struct {
	Enabled bool `json:"enabled"`
	Color   bool `json:"color"`
}

// FileConfig configures rotating file logging (Tier 2, optional).
type FileConfig struct {
	Enabled    bool `json:"enabled"`
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultConfig returns a default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  LevelInfo,
		Format: FormatText,
		Console: ConsoleConfig{
			Enabled: true,
			Color:   true,
		},
		File: FileConfig{
			Enabled:    false,
			Path:       "rsrq.log",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Level {
	case LevelDebug, LevelInfo, LevelWarn, LevelError:
	default:
		return fmt.Errorf("invalid log level: %s", c.Level)
	}

	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("invalid log format: %s", c.Format)
	}

	if c.File.Enabled {
		if c.File.Path == "" {
			return fmt.Errorf("file logging enabled but path is empty")
		}
		if c.File.MaxSizeMB <= 0 {
			return fmt.Errorf("file max size must be > 0")
		}
	}

	return nil
}
