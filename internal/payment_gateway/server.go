// Package payment_gateway hosts the HTTP surface of the payment hub: the
// gin server, its routes and the services behind them.
package payment_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iso20022-payment-hub/internal/config"
	"github.com/iso20022-payment-hub/internal/payment_gateway/handler"
	"github.com/iso20022-payment-hub/internal/payment_gateway/service"
)

type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer builds the gin engine, mounts the payment and simulator routes
// and wraps everything in an http.Server using the configured timeouts.
func NewServer(log *slog.Logger, cfg *config.Config, paymentService service.PaymentService, simulatorService service.SimulatorService) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	setupRouter(log, router,
		handler.NewPaymentHandler(log, paymentService),
		handler.NewSimulatorHandler(log, simulatorService),
	)

	return &Server{
		logger: log,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
			IdleTimeout:  cfg.Server.IdleTimeout,
		},
	}
}

// Start blocks serving requests until the server is shut down.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests, waiting at most the server write timeout.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
