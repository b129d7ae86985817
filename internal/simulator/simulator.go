// Package simulator drives payments through their lifecycle on a timer,
// emulating network latency for demonstration and testing. The clock and the
// random source are injected so tests can advance simulated time instantly
// and force deterministic outcomes.
package simulator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/rules"
	"github.com/iso20022-payment-hub/internal/statemachine"
)

// Failure reasons recorded in the final phase's event metadata
const (
	ReasonSuccess       = "success"
	ReasonRandomFailure = "random_failure"
	ReasonLimitExceeded = "limit_exceeded"
)

// Delays holds the base duration of each progression phase
type Delays struct {
	ToPending    time.Duration
	ToProcessing time.Duration
	ToFinal      time.Duration
}

// Config is the full simulator configuration surface. No other inputs are
// accepted.
type Config struct {
	Enabled         bool
	SpeedMultiplier float64
	FailureRate     float64
	// PauseAtStatus freezes progression at the given status; empty means
	// never pause
	PauseAtStatus payment.Status
	BaseDelays    Delays
}

// Validate checks the configuration invariants
func (c Config) Validate() error {
	if c.SpeedMultiplier <= 0 {
		return fmt.Errorf("speed multiplier must be greater than 0, got %v", c.SpeedMultiplier)
	}
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failure rate must be within [0,1], got %v", c.FailureRate)
	}
	if c.PauseAtStatus != "" {
		if _, err := payment.ParseStatus(string(c.PauseAtStatus)); err != nil {
			return err
		}
	}
	return nil
}

// delayProfile scales the three phase delays per rail
type delayProfile struct {
	toPending, toProcessing, toFinal float64
}

// The correspondent-banking rail is the slow one; RTP is the fastest instant
// rail; FedNow runs at base speed.
var delayProfiles = map[payment.Rail]delayProfile{
	payment.RailSwift:  {2, 2, 3},
	payment.RailRTP:    {0.8, 0.8, 0.8},
	payment.RailFedNow: {1, 1, 1},
}

// phase describes one scheduled progression step
type phase struct {
	delay    time.Duration
	expected payment.Status // status the payment must still hold at fire time
}

// Simulator schedules timer-driven advancement for individual payments
type Simulator struct {
	machine *statemachine.Machine
	repo    payment.Repository
	clock   clockwork.Clock
	rng     *rand.Rand
	logger  *slog.Logger

	mu  sync.RWMutex
	cfg Config

	// wg tracks in-flight progressions so tests and shutdown can wait for
	// them
	wg sync.WaitGroup
}

// New creates a simulator with the given clock and random source
func New(logger *slog.Logger, machine *statemachine.Machine, repo payment.Repository, clock clockwork.Clock, rng *rand.Rand, cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Simulator{
		machine: machine,
		repo:    repo,
		clock:   clock,
		rng:     rng,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

// Snapshot returns the current configuration
func (s *Simulator) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update replaces the configuration after validating it. Progressions
// already scheduled keep the delays computed at scheduling time.
func (s *Simulator) Update(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	return nil
}

// Schedule starts timer-driven progression for a freshly created payment.
// It is a no-op when the simulator is disabled. The three phases fire after
// cumulative delays scaled by the speed multiplier and the rail's profile;
// each phase re-reads the payment and only applies when the status still
// equals the one expected at scheduling time, so a manual transition racing
// ahead silently wins.
func (s *Simulator) Schedule(ctx context.Context, p *payment.Payment) {
	cfg := s.Snapshot()
	if !cfg.Enabled {
		return
	}

	profile, ok := delayProfiles[p.Rail]
	if !ok {
		profile = delayProfiles[payment.RailFedNow]
	}

	phases := []phase{
		{scale(cfg.BaseDelays.ToPending, cfg.SpeedMultiplier, profile.toPending), payment.StatusCreated},
		{scale(cfg.BaseDelays.ToProcessing, cfg.SpeedMultiplier, profile.toProcessing), payment.StatusPending},
		{scale(cfg.BaseDelays.ToFinal, cfg.SpeedMultiplier, profile.toFinal), payment.StatusProcessing},
	}

	s.logger.Info("Scheduling simulated progression",
		"payment_id", p.ID.String(),
		"rail", string(p.Rail),
		"to_pending", phases[0].delay.String(),
		"to_processing", phases[1].delay.String(),
		"to_final", phases[2].delay.String(),
	)

	s.wg.Add(1)
	go s.run(ctx, p.ID, p.Rail, cfg, phases)
}

// Wait blocks until every in-flight progression has finished
func (s *Simulator) Wait() {
	s.wg.Wait()
}

func (s *Simulator) run(ctx context.Context, id uuid.UUID, rail payment.Rail, cfg Config, phases []phase) {
	defer s.wg.Done()

	for i, ph := range phases {
		select {
		case <-ctx.Done():
			return
		case <-s.clock.After(ph.delay):
		}

		final := i == len(phases)-1
		if !s.fire(ctx, id, rail, cfg, ph.expected, final) {
			return
		}
	}
}

// fire applies one phase. Returns false when the chain should stop: the
// precondition no longer holds, the payment is paused, or the write failed.
func (s *Simulator) fire(ctx context.Context, id uuid.UUID, rail payment.Rail, cfg Config, expected payment.Status, final bool) bool {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Simulated progression aborted: payment unreadable", "payment_id", id.String(), "error", err)
		return false
	}

	// Guard against a manual transition racing ahead. A stale precondition
	// is a silent no-op, not an error.
	if p.Status != expected {
		s.logger.Debug("Skipping simulated phase: status moved",
			"payment_id", id.String(),
			"expected", string(expected),
			"actual", string(p.Status),
		)
		return false
	}

	if cfg.PauseAtStatus != "" && p.Status == cfg.PauseAtStatus {
		s.logger.Info("Simulated progression paused",
			"payment_id", id.String(),
			"status", string(p.Status),
		)
		return false
	}

	var req statemachine.Request
	if final {
		req = s.resolveFinal(p, cfg)
	} else {
		req = statemachine.Request{
			PaymentID: p.ID,
			Intent:    statemachine.IntentAdvance,
		}
		if next, ok := p.Status.Next(); ok && next == payment.StatusProcessing {
			req.Description = fmt.Sprintf("Payment being processed by %s network", rail)
		}
	}

	if _, err := s.machine.Transition(ctx, req); err != nil {
		s.logger.Error("Simulated transition failed", "payment_id", id.String(), "error", err)
		return false
	}
	return true
}

// resolveFinal decides the terminal outcome of a progression. The per-rail
// amount ceiling is checked first and always overrides the random draw.
func (s *Simulator) resolveFinal(p *payment.Payment, cfg Config) statemachine.Request {
	if ceiling, ok := rules.MaxAmountFor(p.Rail); ok && p.Amount.GreaterThan(ceiling) {
		return statemachine.Request{
			PaymentID:   p.ID,
			Intent:      statemachine.IntentFail,
			Reason:      ReasonLimitExceeded,
			Description: fmt.Sprintf("Payment failed - Amount exceeds %s limit", p.Rail),
		}
	}

	if s.draw() < cfg.FailureRate {
		return statemachine.Request{
			PaymentID:   p.ID,
			Intent:      statemachine.IntentFail,
			Reason:      ReasonRandomFailure,
			Description: "Payment failed during processing - Test failure simulation",
		}
	}

	return statemachine.Request{
		PaymentID: p.ID,
		Intent:    statemachine.IntentAdvance,
		Reason:    ReasonSuccess,
	}
}

func (s *Simulator) draw() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

func scale(base time.Duration, speedMultiplier, railMultiplier float64) time.Duration {
	return time.Duration(float64(base) / speedMultiplier * railMultiplier)
}
