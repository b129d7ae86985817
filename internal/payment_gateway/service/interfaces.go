package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/iso20022"
	"github.com/iso20022-payment-hub/internal/simulator"
	"github.com/iso20022-payment-hub/internal/statemachine"
	"github.com/shopspring/decimal"
)

// CreatePaymentInput carries the parsed request fields for a new payment
type CreatePaymentInput struct {
	Rail            payment.Rail
	Amount          decimal.Decimal
	Currency        string
	DebtorName      string
	DebtorAccount   string
	CreditorName    string
	CreditorAccount string
	Purpose         string
	Remittance      string
}

// PaymentService defines the interface for payment operations
type PaymentService interface {
	// CreatePayment validates the input against the rail rules, stores the
	// payment with its initial event and schedules simulated progression
	// Returns rules.ValidationError when the input violates the rail rules
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*payment.Payment, error)

	// GetPaymentByID retrieves a payment by its ID
	// Returns payment.ErrPaymentNotFound if the payment doesn't exist
	GetPaymentByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error)

	// ListPayments retrieves payments matching the filter, newest first
	ListPayments(ctx context.Context, filter payment.Filter) ([]*payment.Payment, error)

	// GetPaymentEvents retrieves a payment's full audit log in
	// chronological order
	GetPaymentEvents(ctx context.Context, id uuid.UUID) ([]*payment.Event, error)

	// RenderMessage regenerates one ISO 20022 document for a payment using
	// its stored identifier set
	RenderMessage(ctx context.Context, id uuid.UUID, messageType iso20022.MessageType) (string, error)

	// RenderMessages regenerates all four ISO 20022 documents for a payment
	RenderMessages(ctx context.Context, id uuid.UUID) (*iso20022.Documents, error)

	// Transition applies one state machine transition
	Transition(ctx context.Context, req statemachine.Request) (*statemachine.Result, error)

	// AdvanceAll advances every non-terminal payment one step
	AdvanceAll(ctx context.Context) (*statemachine.BatchResult, error)

	// ResetAll resets every payment back to CREATED
	ResetAll(ctx context.Context) (*statemachine.BatchResult, error)

	// FailRandom fails one randomly chosen in-flight payment
	// Returns nil payment when no candidate exists
	FailRandom(ctx context.Context) (*payment.Payment, *statemachine.Result, error)
}

// SimulatorService defines the interface for simulator configuration
type SimulatorService interface {
	// GetConfig returns the current simulator configuration
	GetConfig() simulator.Config

	// UpdateConfig replaces the simulator configuration after validation
	UpdateConfig(cfg simulator.Config) error
}
