package logger

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileLogger implements Tier 2: rotating file logging via lumberjack.
type FileLogger struct {
	logger *lumberjack.Logger
}

type fileEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Component Component              `json:"component,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// NewFileLogger creates a rotating file logger.
func NewFileLogger(config *Config) (*FileLogger, error) {
	if !config.File.Enabled {
		return nil, fmt.Errorf("file logging is not enabled")
	}
	return &FileLogger{
		logger: &lumberjack.Logger{
			Filename:   config.File.Path,
			MaxSize:    config.File.MaxSizeMB,
			MaxBackups: config.File.MaxBackups,
			MaxAge:     config.File.MaxAgeDays,
			Compress:   config.File.Compress,
		},
	}, nil
}

func (fl *FileLogger) log(level LogLevel, msg string, component Component, fields map[string]interface{}) {
	entry := fileEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Message:   msg,
		Component: component,
		Fields:    fields,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_, _ = fl.logger.Write(append(data, '\n'))
}

// Close closes the underlying lumberjack logger.
func (fl *FileLogger) Close() error {
	return fl.logger.Close()
}

// Rotate triggers manual log rotation.
func (fl *FileLogger) Rotate() error {
	return fl.logger.Rotate()
}
