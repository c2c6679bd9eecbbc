package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		log, err := NewLogger(level, "json")
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}

	log, err := NewLogger("info", "text")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger("verboso", "json")
	assert.Error(t, err)
}

func TestLoggingDoesNotPanic(t *testing.T) {
	log, err := NewLogger("debug", "json")
	require.NoError(t, err)

	log.Debug("debug message", "key", "value")
	log.Info("info message", "case_id", 7)
	log.Warn("warn message")
	log.Error("error message", "error", assert.AnError)
}
