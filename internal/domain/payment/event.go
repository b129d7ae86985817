package payment

import (
	"time"

	"github.com/google/uuid"
)

// EventMetadata carries the structured context recorded with a lifecycle
// event. Fields are optional; zero values are omitted from the stored JSON.
type EventMetadata struct {
	PreviousStatus Status    `json:"previous_status,omitempty"`
	NewStatus      Status    `json:"new_status,omitempty"`
	Action         string    `json:"action,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	Rail           Rail      `json:"rail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Event is one entry in a payment's append-only audit log. Events are never
// mutated or deleted; ordering is by creation time with insertion order
// breaking ties.
type Event struct {
	ID          int64         `json:"id"`
	PaymentID   uuid.UUID     `json:"payment_id"`
	Type        string        `json:"type"`
	Description string        `json:"description"`
	Metadata    EventMetadata `json:"metadata"`
	CreatedAt   time.Time     `json:"created_at"`
}

// NewEvent creates an audit event for the given payment
func NewEvent(paymentID uuid.UUID, eventType, description string, metadata EventMetadata) *Event {
	if metadata.Timestamp.IsZero() {
		metadata.Timestamp = time.Now().UTC()
	}
	return &Event{
		PaymentID:   paymentID,
		Type:        eventType,
		Description: description,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
	}
}

// StatusDescription returns the human-readable description recorded with a
// transition into the given status.
func StatusDescription(status Status, action string) string {
	switch status {
	case StatusCreated:
		return "Payment initiated"
	case StatusPending:
		return "Payment validated and submitted to processing network"
	case StatusProcessing:
		return "Payment being processed by network"
	case StatusCompleted:
		return "Payment successfully completed"
	case StatusFailed:
		if action == "fail" {
			return "Payment failed - Manual failure triggered"
		}
		return "Payment failed during processing"
	}
	return "Status changed to " + string(status)
}
