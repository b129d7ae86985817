package service

import (
	"log/slog"

	"github.com/iso20022-payment-hub/internal/simulator"
)

// SimulatorServiceImpl implements the SimulatorService interface
type SimulatorServiceImpl struct {
	simulator *simulator.Simulator
	logger    *slog.Logger
}

// NewSimulatorService creates a new simulator service
func NewSimulatorService(logger *slog.Logger, sim *simulator.Simulator) SimulatorService {
	return &SimulatorServiceImpl{
		simulator: sim,
		logger:    logger,
	}
}

// GetConfig returns the current simulator configuration
func (s *SimulatorServiceImpl) GetConfig() simulator.Config {
	return s.simulator.Snapshot()
}

// UpdateConfig replaces the simulator configuration after validation.
// Already-scheduled progressions keep the configuration they started with.
func (s *SimulatorServiceImpl) UpdateConfig(cfg simulator.Config) error {
	if err := s.simulator.Update(cfg); err != nil {
		s.logger.Warn("Rejected invalid simulator configuration", "error", err)
		return err
	}

	s.logger.Info("Simulator configuration updated",
		"enabled", cfg.Enabled,
		"speed_multiplier", cfg.SpeedMultiplier,
		"failure_rate", cfg.FailureRate,
		"pause_at_status", string(cfg.PauseAtStatus),
	)
	return nil
}
