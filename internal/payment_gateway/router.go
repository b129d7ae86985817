package payment_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iso20022-payment-hub/internal/payment_gateway/handler"
	"github.com/iso20022-payment-hub/internal/payment_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	paymentHandler *handler.PaymentHandler,
	simulatorHandler *handler.SimulatorHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Payment operations
		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.GetByID)
			payments.GET("/:id/events", paymentHandler.GetEvents)
			payments.GET("/:id/messages", paymentHandler.GetMessages)
			payments.GET("/:id/messages/:type", paymentHandler.GetMessage)
			payments.PUT("/:id/status", paymentHandler.UpdateStatus)

			// Batch lifecycle controls
			batch := payments.Group("/batch")
			{
				batch.POST("/advance", paymentHandler.AdvanceAll)
				batch.POST("/reset", paymentHandler.ResetAll)
				batch.POST("/fail-random", paymentHandler.FailRandom)
			}
		}

		// Simulator configuration
		sim := v1.Group("/simulator")
		{
			sim.GET("/config", simulatorHandler.GetConfig)
			sim.PUT("/config", simulatorHandler.UpdateConfig)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
