package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/payment_gateway/service"
	"github.com/iso20022-payment-hub/internal/simulator"
)

// SimulatorHandler handles HTTP requests for simulator configuration
type SimulatorHandler struct {
	simulatorService service.SimulatorService
	logger           *slog.Logger
}

// NewSimulatorHandler creates a new simulator handler
func NewSimulatorHandler(logger *slog.Logger, simulatorService service.SimulatorService) *SimulatorHandler {
	return &SimulatorHandler{
		simulatorService: simulatorService,
		logger:           logger,
	}
}

// GetConfig returns the current simulator configuration
func (h *SimulatorHandler) GetConfig(c *gin.Context) {
	RespondOK(c, mapConfigToPayload(h.simulatorService.GetConfig()))
}

// UpdateConfig replaces the simulator configuration
func (h *SimulatorHandler) UpdateConfig(c *gin.Context) {
	var req SimulatorConfigPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	cfg := simulator.Config{
		Enabled:         req.Enabled,
		SpeedMultiplier: req.SpeedMultiplier,
		FailureRate:     req.FailureRate,
		PauseAtStatus:   payment.Status(req.PauseAtStatus),
		BaseDelays: simulator.Delays{
			ToPending:    time.Duration(req.DelayToPendingMs) * time.Millisecond,
			ToProcessing: time.Duration(req.DelayToProcessingMs) * time.Millisecond,
			ToFinal:      time.Duration(req.DelayToFinalMs) * time.Millisecond,
		},
	}

	if err := h.simulatorService.UpdateConfig(cfg); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	RespondOK(c, mapConfigToPayload(h.simulatorService.GetConfig()))
}

func mapConfigToPayload(cfg simulator.Config) SimulatorConfigPayload {
	return SimulatorConfigPayload{
		Enabled:             cfg.Enabled,
		SpeedMultiplier:     cfg.SpeedMultiplier,
		FailureRate:         cfg.FailureRate,
		PauseAtStatus:       string(cfg.PauseAtStatus),
		DelayToPendingMs:    cfg.BaseDelays.ToPending.Milliseconds(),
		DelayToProcessingMs: cfg.BaseDelays.ToProcessing.Milliseconds(),
		DelayToFinalMs:      cfg.BaseDelays.ToFinal.Milliseconds(),
	}
}
