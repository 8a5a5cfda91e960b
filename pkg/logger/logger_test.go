package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{"debug", "debug", zerolog.DebugLevel},
		{"info", "info", zerolog.InfoLevel},
		{"warn", "warn", zerolog.WarnLevel},
		{"warning_alias", "warning", zerolog.WarnLevel},
		{"error", "error", zerolog.ErrorLevel},
		{"fatal", "fatal", zerolog.FatalLevel},
		{"mixed_case", "DeBuG", zerolog.DebugLevel},
		{"unknown_defaults_info", "verbose", zerolog.InfoLevel},
		{"empty_defaults_info", "", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLevel(tt.level))
		})
	}
}

func TestInitLogger_JSON(t *testing.T) {
	err := InitLogger(Config{
		Level:     "debug",
		Format:    "json",
		Output:    "stdout",
		Component: "test",
	})

	assert.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitLogger_Console(t *testing.T) {
	err := InitLogger(Config{
		Level:     "info",
		Format:    "console",
		Component: "test",
	})

	assert.NoError(t, err)
}

func TestInitLogger_FileFallsBackToStdout(t *testing.T) {
	// file output without a path falls back to stdout, no error
	err := InitLogger(Config{
		Level:  "info",
		Format: "json",
		Output: "file",
	})

	assert.NoError(t, err)
}
