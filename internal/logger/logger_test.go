package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name          string
		logLevel      string
		expectedLevel slog.Level
	}{
		{"DebugLevel", "debug", slog.LevelDebug},
		{"InfoLevel", "info", slog.LevelInfo},
		{"WarnLevel", "WARN", slog.LevelWarn},
		{"ErrorLevel", "error", slog.LevelError},
		{"DefaultToInfo", "verbose", slog.LevelInfo},
		{"EmptyToInfo", "", slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &config.Config{
				Application: config.ApplicationConfig{Name: "payment_gateway"},
				Logging:     config.LoggingConfig{Level: tc.logLevel},
			}

			logger := NewLogger(cfg)
			require.NotNil(t, logger)

			assert.True(t, logger.Enabled(context.Background(), tc.expectedLevel))
			// Nothing below the configured level should be enabled
			assert.False(t, logger.Enabled(context.Background(), tc.expectedLevel-1))
		})
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("Warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel("anything else"))
}
