package payment

import (
	"context"

	"github.com/google/uuid"
)

// Filter narrows List results. Zero-valued fields are ignored.
type Filter struct {
	Statuses        []Status // include only these statuses
	ExcludeStatuses []Status // drop these statuses
	Rail            Rail
}

// Repository manages payment and event persistence. Implementations must
// guarantee that UpdateStatusAndAppendEvent commits the status and its event
// as a single atomic unit: no reader may ever observe one without the other.
type Repository interface {
	// Create stores a new payment together with its initial CREATED event
	Create(ctx context.Context, p *Payment, initial *Event) error

	// GetByID retrieves a payment by its ID
	// Returns ErrPaymentNotFound if the payment doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*Payment, error)

	// List retrieves payments matching the filter, newest first
	List(ctx context.Context, filter Filter) ([]*Payment, error)

	// UpdateStatusAndAppendEvent atomically sets the payment status and
	// appends the causal audit event
	UpdateStatusAndAppendEvent(ctx context.Context, id uuid.UUID, newStatus Status, event *Event) error

	// ListEvents retrieves the full event log for a payment in
	// chronological order (creation time, then insertion order)
	ListEvents(ctx context.Context, paymentID uuid.UUID) ([]*Event, error)
}

// ErrPaymentNotFound indicates a missing payment record
type ErrPaymentNotFound struct {
	PaymentID uuid.UUID
}

func (e ErrPaymentNotFound) Error() string {
	return "payment not found: " + e.PaymentID.String()
}

// Is implements the errors.Is interface for ErrPaymentNotFound
func (e ErrPaymentNotFound) Is(target error) bool {
	t, ok := target.(ErrPaymentNotFound)
	if !ok {
		return false
	}
	// A target with a nil ID matches any ErrPaymentNotFound
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID
}
