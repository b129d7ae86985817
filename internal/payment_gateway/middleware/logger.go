package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger logs one line per completed request. Server errors log at error
// level, client errors at warn, everything else at info.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		requestLogger := logger
		if id := GetCorrelationID(c); id != "" {
			requestLogger = logger.With("correlation_id", id)
		}

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}

		switch {
		case status >= 500:
			requestLogger.Error("HTTP request", attrs...)
		case status >= 400:
			requestLogger.Warn("HTTP request", attrs...)
		default:
			requestLogger.Info("HTTP request", attrs...)
		}
	}
}
