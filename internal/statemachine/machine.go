// Package statemachine owns payment lifecycle transitions. All status
// changes, manual or simulated, funnel through a single entry point that
// reads the current status, computes the target and commits the new status
// together with its audit event as one atomic unit.
package statemachine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/panjf2000/ants/v2"
)

// Intent names the caller's requested transition
type Intent string

const (
	IntentAdvance   Intent = "advance"
	IntentReverse   Intent = "reverse"
	IntentFail      Intent = "fail"
	IntentManualSet Intent = "manualSet"
	IntentReset     Intent = "reset"
)

// ParseIntent converts a string into an Intent, rejecting unknown values
func ParseIntent(s string) (Intent, error) {
	switch Intent(s) {
	case IntentAdvance, IntentReverse, IntentFail, IntentManualSet, IntentReset:
		return Intent(s), nil
	}
	return "", fmt.Errorf("unknown transition intent: %q", s)
}

// Request describes one transition attempt
type Request struct {
	PaymentID uuid.UUID
	Intent    Intent
	// Target is the forced status for manualSet; ignored otherwise
	Target payment.Status
	// Override lets manualSet leave a terminal status. Overriding a
	// COMPLETED or FAILED payment is an explicit administrative action,
	// never the default.
	Override bool
	// Reason and Description customize the recorded event; when empty the
	// standard per-status description is used
	Reason      string
	Description string
}

// Result reports the outcome of a transition attempt. A no-op or rejection
// is not an error: Changed is false and Message explains why. Rejected marks
// the subset of unchanged outcomes where the intent was refused (for example
// failing a COMPLETED payment) rather than merely redundant.
type Result struct {
	Changed        bool           `json:"changed"`
	Rejected       bool           `json:"rejected,omitempty"`
	PreviousStatus payment.Status `json:"previous_status"`
	NewStatus      payment.Status `json:"new_status"`
	Message        string         `json:"message"`
}

// BatchResult summarizes a batch operation
type BatchResult struct {
	Examined int `json:"examined"`
	Updated  int `json:"updated"`
}

// Machine computes and commits lifecycle transitions
type Machine struct {
	repo   payment.Repository
	pool   *ants.Pool // optional; batch items run inline when nil
	rngMu  sync.Mutex // rand.Rand is not safe for concurrent draws
	rng    *rand.Rand
	logger *slog.Logger
}

// NewMachine creates a state machine. The worker pool is used to fan out
// batch operations and may be nil; rng drives FailRandom's pick and is
// injected so tests can force deterministic outcomes.
func NewMachine(logger *slog.Logger, repo payment.Repository, pool *ants.Pool, rng *rand.Rand) *Machine {
	return &Machine{
		repo:   repo,
		pool:   pool,
		rng:    rng,
		logger: logger,
	}
}

// Transition is the single entry point for every lifecycle change. It reads
// the payment's current status, decides the target for the requested intent
// and, when the status actually changes, appends exactly one audit event
// atomically with the status write. Unchanged outcomes append nothing.
func (m *Machine) Transition(ctx context.Context, req Request) (*Result, error) {
	p, err := m.repo.GetByID(ctx, req.PaymentID)
	if err != nil {
		return nil, err
	}

	current := p.Status
	var target payment.Status

	switch req.Intent {
	case IntentAdvance:
		if current == payment.StatusFailed {
			return rejection(current, "Cannot advance a failed payment"), nil
		}
		next, ok := current.Next()
		if !ok {
			return noChange(current, "Already at final status"), nil
		}
		target = next

	case IntentReverse:
		if current == payment.StatusFailed {
			return rejection(current, "Cannot reverse a failed payment"), nil
		}
		prev, ok := current.Previous()
		if !ok {
			return noChange(current, "Already at initial status"), nil
		}
		target = prev

	case IntentFail:
		if current == payment.StatusCompleted {
			return rejection(current, "Cannot fail a completed payment"), nil
		}
		if current == payment.StatusFailed {
			return noChange(current, "Payment has already failed"), nil
		}
		target = payment.StatusFailed

	case IntentManualSet:
		if _, err := payment.ParseStatus(string(req.Target)); err != nil {
			return nil, err
		}
		if req.Target == current {
			return noChange(current, "Payment already in status "+string(current)), nil
		}
		if current.Terminal() && !req.Override {
			return rejection(current, fmt.Sprintf("Refusing to override terminal status %s without explicit override", current)), nil
		}
		target = req.Target

	case IntentReset:
		if current == payment.StatusCreated {
			return noChange(current, "Payment already in initial status"), nil
		}
		target = payment.StatusCreated

	default:
		return nil, fmt.Errorf("unknown transition intent: %q", req.Intent)
	}

	description := req.Description
	if description == "" {
		description = payment.StatusDescription(target, string(req.Intent))
	}

	event := payment.NewEvent(p.ID, string(target), description, payment.EventMetadata{
		PreviousStatus: current,
		NewStatus:      target,
		Action:         string(req.Intent),
		Reason:         req.Reason,
		Rail:           p.Rail,
	})

	if err := m.repo.UpdateStatusAndAppendEvent(ctx, p.ID, target, event); err != nil {
		return nil, err
	}

	m.logger.Info("Payment status changed",
		"payment_id", p.ID.String(),
		"previous_status", string(current),
		"new_status", string(target),
		"intent", string(req.Intent),
	)

	return &Result{
		Changed:        true,
		PreviousStatus: current,
		NewStatus:      target,
		Message:        fmt.Sprintf("Status updated from %s to %s", current, target),
	}, nil
}

// AdvanceAll advances every non-terminal payment one step. Each item's
// status+event pair is atomic; the batch as a whole is not.
func (m *Machine) AdvanceAll(ctx context.Context) (*BatchResult, error) {
	payments, err := m.repo.List(ctx, payment.Filter{
		ExcludeStatuses: []payment.Status{payment.StatusCompleted, payment.StatusFailed},
	})
	if err != nil {
		return nil, err
	}
	return m.applyToAll(ctx, payments, IntentAdvance)
}

// ResetAll forces every payment back to CREATED
func (m *Machine) ResetAll(ctx context.Context) (*BatchResult, error) {
	payments, err := m.repo.List(ctx, payment.Filter{})
	if err != nil {
		return nil, err
	}
	return m.applyToAll(ctx, payments, IntentReset)
}

// FailRandom fails one randomly picked non-terminal payment. Returns a nil
// result when no candidate exists.
func (m *Machine) FailRandom(ctx context.Context) (*payment.Payment, *Result, error) {
	candidates, err := m.repo.List(ctx, payment.Filter{
		ExcludeStatuses: []payment.Status{payment.StatusCompleted, payment.StatusFailed},
	})
	if err != nil {
		return nil, nil, err
	}
	if len(candidates) == 0 {
		return nil, nil, nil
	}

	m.rngMu.Lock()
	pick := m.rng.Intn(len(candidates))
	m.rngMu.Unlock()

	target := candidates[pick]
	res, err := m.Transition(ctx, Request{
		PaymentID: target.ID,
		Intent:    IntentFail,
		Reason:    "random_failure",
	})
	if err != nil {
		return nil, nil, err
	}
	return target, res, nil
}

// applyToAll runs the single-payment transition independently per item,
// fanning out on the worker pool when one is configured.
func (m *Machine) applyToAll(ctx context.Context, payments []*payment.Payment, intent Intent) (*BatchResult, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		updated int
	)

	apply := func(p *payment.Payment) {
		res, err := m.Transition(ctx, Request{PaymentID: p.ID, Intent: intent})
		if err != nil {
			m.logger.Error("Batch transition failed",
				"payment_id", p.ID.String(),
				"intent", string(intent),
				"error", err,
			)
			return
		}
		if res.Changed {
			mu.Lock()
			updated++
			mu.Unlock()
		}
	}

	for _, p := range payments {
		p := p
		if m.pool == nil {
			apply(p)
			continue
		}
		wg.Add(1)
		if err := m.pool.Submit(func() {
			defer wg.Done()
			apply(p)
		}); err != nil {
			wg.Done()
			apply(p) // fall back to inline execution when the pool is saturated
		}
	}
	wg.Wait()

	return &BatchResult{Examined: len(payments), Updated: updated}, nil
}

func noChange(current payment.Status, message string) *Result {
	return &Result{
		PreviousStatus: current,
		NewStatus:      current,
		Message:        message,
	}
}

func rejection(current payment.Status, message string) *Result {
	return &Result{
		Rejected:       true,
		PreviousStatus: current,
		NewStatus:      current,
		Message:        message,
	}
}
