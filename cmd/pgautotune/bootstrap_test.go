package main

import (
	"path/filepath"
	"testing"

	"github.com/jamesainslie/pgautotune/pkg/autotune/config"
	"github.com/jamesainslie/pgautotune/pkg/autotune/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRotationConfig(t *testing.T) {
	tests := []struct {
		name     string
		input    config.RotationConfig
		expected logging.RotationConfig
	}{
		{
			name:     "default values",
			input:    config.RotationConfig{MaxSize: "10MiB", MaxBackups: 5, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 5, Daily: true},
		},
		{
			name:     "custom size in gigabytes",
			input:    config.RotationConfig{MaxSize: "1GiB", MaxBackups: 3},
			expected: logging.RotationConfig{MaxSize: 1024 * 1024 * 1024, MaxBackups: 3},
		},
		{
			name:     "decimal units",
			input:    config.RotationConfig{MaxSize: "5MB", MaxBackups: 1},
			expected: logging.RotationConfig{MaxSize: 5 * 1000 * 1000, MaxBackups: 1},
		},
		{
			name:     "empty max_size uses default",
			input:    config.RotationConfig{MaxBackups: 2, Daily: true},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 2, Daily: true},
		},
		{
			name:     "invalid max_size uses default",
			input:    config.RotationConfig{MaxSize: "invalid", MaxBackups: 4},
			expected: logging.RotationConfig{MaxSize: 10 * 1024 * 1024, MaxBackups: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseRotationConfig(tt.input))
		})
	}
}

func TestInitializeLogging_InvalidLevelFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("PGAUTOTUNE_LOGGING_LEVEL", "loud")
	initConfig()

	require.NoError(t, initializeLogging(nil, nil))
}

func TestInitializeLogging_FileSink(t *testing.T) {
	dir := isolate(t)
	logPath := filepath.Join(dir, "logs", "pgautotune.log")
	t.Setenv("PGAUTOTUNE_LOGGING_PATH", logPath)
	initConfig()

	require.NoError(t, initializeLogging(nil, nil))
	logging.Get("cli").Error("written to file")
	require.NoError(t, logging.Close())

	assert.FileExists(t, logPath)
}
