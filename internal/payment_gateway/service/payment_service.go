package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/iso20022"
	"github.com/iso20022-payment-hub/internal/rules"
	"github.com/iso20022-payment-hub/internal/simulator"
	"github.com/iso20022-payment-hub/internal/statemachine"
)

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	repo      payment.Repository
	engine    *rules.Engine
	machine   *statemachine.Machine
	simulator *simulator.Simulator
	logger    *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	logger *slog.Logger,
	repo payment.Repository,
	engine *rules.Engine,
	machine *statemachine.Machine,
	sim *simulator.Simulator,
) PaymentService {
	return &PaymentServiceImpl{
		repo:      repo,
		engine:    engine,
		machine:   machine,
		simulator: sim,
		logger:    logger,
	}
}

// CreatePayment validates the input, persists the payment with its initial
// CREATED event and hands it to the simulator for progression.
func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, input CreatePaymentInput) (*payment.Payment, error) {
	p := payment.NewPayment(input.Rail, input.Amount, input.Currency,
		input.DebtorName, input.DebtorAccount,
		input.CreditorName, input.CreditorAccount,
		input.Purpose, input.Remittance)

	// The UETR is assigned by the hub, never supplied by the caller, so the
	// rules run against the constructed payment: rails that require a UETR
	// must see the one about to be persisted. A rejected payment is simply
	// discarded.
	result := s.engine.Validate(rules.Record{
		Rail:            p.Rail,
		Amount:          p.Amount,
		Currency:        p.Currency,
		DebtorName:      p.DebtorName,
		DebtorAccount:   p.DebtorAccount,
		CreditorName:    p.CreditorName,
		CreditorAccount: p.CreditorAccount,
		Remittance:      p.Remittance,
		UETR:            p.UETR,
	})
	if !result.Valid {
		s.logger.Info("Payment rejected by rail rules",
			"rail", string(p.Rail),
			"violations", len(result.Errors),
		)
		return nil, rules.ValidationError{Violations: result.Errors}
	}
	for _, warning := range result.Warnings {
		s.logger.Warn("Rail rule warning on accepted payment",
			"rail", string(p.Rail),
			"code", warning.Code,
			"message", warning.Message,
		)
	}

	initial := payment.NewEvent(p.ID, string(payment.StatusCreated),
		payment.StatusDescription(payment.StatusCreated, ""), payment.EventMetadata{
			NewStatus: payment.StatusCreated,
			Rail:      p.Rail,
			Timestamp: p.CreatedAt,
		})

	if err := s.repo.Create(ctx, p, initial); err != nil {
		s.logger.Error("Failed to create payment", "error", err)
		return nil, err
	}

	s.logger.Info("Payment created",
		"payment_id", p.ID.String(),
		"rail", string(p.Rail),
		"amount", p.Amount.String(),
		"currency", p.Currency,
	)

	s.simulator.Schedule(ctx, p)

	return p, nil
}

// GetPaymentByID retrieves a payment by its ID
func (s *PaymentServiceImpl) GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	return s.repo.GetByID(ctx, id)
}

// ListPayments retrieves payments matching the filter, newest first
func (s *PaymentServiceImpl) ListPayments(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error) {
	return s.repo.List(ctx, filter)
}

// GetPaymentEvents retrieves a payment's full audit log. The payment is
// looked up first so a missing ID surfaces as ErrPaymentNotFound rather than
// an empty log.
func (s *PaymentServiceImpl) GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]*payment.Event, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListEvents(ctx, id)
}

// RenderMessage regenerates one ISO 20022 document. Rendering uses the
// payment's creation time so regenerated documents are byte-identical.
func (s *PaymentServiceImpl) RenderMessage(ctx context.Context, id uuid.UUID, messageType iso20022.MessageType) (string, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return renderDocument(p, messageType)
}

// RenderMessages regenerates all four ISO 20022 documents for a payment
func (s *PaymentServiceImpl) RenderMessages(ctx context.Context, id uuid.UUID) (*iso20022.Documents, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	docs, err := iso20022.RenderAll(p, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if p.Status == payment.StatusFailed {
		rejected, err := iso20022.RenderStatusReport(p, iso20022.OutcomeRejected, p.CreatedAt)
		if err != nil {
			return nil, err
		}
		docs.Pacs002 = rejected
	}

	return &docs, nil
}

// Transition applies one state machine transition
func (s *PaymentServiceImpl) Transition(ctx context.Context, req statemachine.Request) (*statemachine.Result, error) {
	return s.machine.Transition(ctx, req)
}

// AdvanceAll advances every non-terminal payment one step
func (s *PaymentServiceImpl) AdvanceAll(ctx context.Context) (*statemachine.BatchResult, error) {
	return s.machine.AdvanceAll(ctx)
}

// ResetAll resets every payment back to CREATED
func (s *PaymentServiceImpl) ResetAll(ctx context.Context) (*statemachine.BatchResult, error) {
	return s.machine.ResetAll(ctx)
}

// FailRandom fails one randomly chosen in-flight payment
func (s *PaymentServiceImpl) FailRandom(ctx context.Context) (*payment.Payment, *statemachine.Result, error) {
	return s.machine.FailRandom(ctx)
}

// renderDocument renders one document kind; the pacs.002 outcome follows the
// payment's current status.
func renderDocument(p *payment.Payment, messageType iso20022.MessageType) (string, error) {
	ts := p.CreatedAt
	switch messageType {
	case iso20022.MessageTypePain001:
		return iso20022.RenderCreditTransferInitiation(p, ts)
	case iso20022.MessageTypePacs008:
		return iso20022.RenderInterbankCreditTransfer(p, ts)
	case iso20022.MessageTypePacs002:
		outcome := iso20022.OutcomeAccepted
		if p.Status == payment.StatusFailed {
			outcome = iso20022.OutcomeRejected
		}
		return iso20022.RenderStatusReport(p, outcome, ts)
	case iso20022.MessageTypeCamt054:
		return iso20022.RenderDebitCreditNotification(p, ts)
	}
	return "", iso20022.EncodingError{Field: "message_type", Message: "unknown message type " + string(messageType)}
}
