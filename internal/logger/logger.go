// Package logger builds the shared slog logger used by every service binary.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/iso20022-payment-hub/internal/config"
)

// NewLogger creates a JSON slog.Logger tagged with the service name. Source
// locations are only recorded at debug level.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, opts))
	if cfg.Application.Name != "" {
		logger = logger.With("service", cfg.Application.Name)
	}

	logger.Info("logger initialized", "level", level)

	return logger
}

// parseLevel maps a configured level name onto a slog level, defaulting to
// info for unknown values
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
