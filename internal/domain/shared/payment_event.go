package shared

import (
	"time"

	"github.com/iso20022-payment-hub/internal/domain/payment"
)

// PaymentEvent defines the Kafka message published for every committed
// lifecycle transition. It carries a full payment snapshot so consumers can
// render ISO 20022 documents without a database round trip.
type PaymentEvent struct {
	EventID       int64                 `json:"event_id"`
	EventType     string                `json:"event_type"`
	Description   string                `json:"description"`
	Payment       payment.Payment       `json:"payment"`
	Metadata      payment.EventMetadata `json:"metadata"`
	CorrelationID string                `json:"correlation_id,omitempty"`
	Timestamp     time.Time             `json:"timestamp"`
}
