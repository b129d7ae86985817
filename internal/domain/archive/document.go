// Package archive defines the archived ISO 20022 document model. Every
// lifecycle event consumed from Kafka yields one XML document per message
// type, stored for audit and retrieval.
package archive

import (
	"time"

	"github.com/google/uuid"
)

// Document is one archived ISO 20022 XML document
type Document struct {
	PaymentID   uuid.UUID `bson:"payment_id" json:"payment_id"`
	EventID     int64     `bson:"event_id" json:"event_id"`
	EventType   string    `bson:"event_type" json:"event_type"`
	MessageType string    `bson:"message_type" json:"message_type"`
	MessageID   string    `bson:"message_id" json:"message_id"`
	UETR        string    `bson:"uetr" json:"uetr"`
	Rail        string    `bson:"rail" json:"rail"`
	Status      string    `bson:"status" json:"status"`
	XML         string    `bson:"xml" json:"xml"`
	ArchivedAt  time.Time `bson:"archived_at" json:"archived_at"`
}
