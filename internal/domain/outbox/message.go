package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

// Message stores a committed lifecycle event for reliable message publishing
type Message struct {
	ID            int64               `json:"id"`
	PaymentID     uuid.UUID           `json:"payment_id"`
	EventType     string              `json:"event_type"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

// NewMessage wraps a payment and one of its audit events into a pending
// outbox row. The payload is the full PaymentEvent envelope.
func NewMessage(p *payment.Payment, event *payment.Event) (*Message, error) {
	envelope := shared.PaymentEvent{
		EventID:     event.ID,
		EventType:   event.Type,
		Description: event.Description,
		Payment:     *p,
		Metadata:    event.Metadata,
		Timestamp:   event.CreatedAt,
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, err
	}

	return &Message{
		PaymentID: p.ID,
		EventType: event.Type,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetPaymentEvent extracts the payment event envelope from the payload
func (m *Message) GetPaymentEvent() (*shared.PaymentEvent, error) {
	var envelope shared.PaymentEvent
	if err := json.Unmarshal(m.Payload, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}
