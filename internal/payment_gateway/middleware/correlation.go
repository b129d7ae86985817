// Package middleware provides the gin middleware chain for the payment
// gateway: correlation ID propagation, request logging and panic recovery.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader carries the correlation ID on requests and responses
	CorrelationIDHeader = "X-Correlation-ID"

	// CorrelationIDKey stores the correlation ID in the gin context
	CorrelationIDKey = "correlation_id"
)

// CorrelationID tags every request with a correlation ID, generating one when
// the caller did not send a header. The ID is echoed on the response and
// carried through to the outbox envelope so archived documents can be traced
// back to the originating request.
func CorrelationID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Header(CorrelationIDHeader, id)
		c.Set(CorrelationIDKey, id)

		c.Next()
	}
}

// GetCorrelationID returns the request's correlation ID, or "" outside the
// middleware chain
func GetCorrelationID(c *gin.Context) string {
	id, exists := c.Get(CorrelationIDKey)
	if !exists {
		return ""
	}
	s, ok := id.(string)
	if !ok {
		return ""
	}
	return s
}
