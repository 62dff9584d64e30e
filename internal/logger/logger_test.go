package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaults(t *testing.T) {
	cfg := DefaultConfig()
	log, err := NewLogger(cfg)
	require.NoError(t, err)
	require.NotNil(t, log)
	defer log.Close()

	log.Info("hello", "key", "value")
	log.WithComponent(ComponentWorker).Warn("tagged")
}

func TestConfigValidateRejectsBadLevel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "verbose"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfigValidateRejectsBadFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Format = "xml"
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestConfigValidateRequiresFilePath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.File.Enabled = true
	cfg.File.Path = ""
	err := cfg.Validate()
	assert.Error(t, err)
}

func TestNoOpLoggerSatisfiesInterface(t *testing.T) {
	var l Logger = &NoOpLogger{}
	l.Info("noop")
	assert.NoError(t, l.Close())
}
