package archive

import (
	"context"

	"github.com/google/uuid"
)

// Repository manages archived document persistence
type Repository interface {
	// Create stores a document; re-archiving the same event and message
	// type is a silent no-op so consumers can safely reprocess
	Create(ctx context.Context, doc *Document) error

	// GetByPaymentID retrieves every document archived for a payment,
	// newest first
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID, limit, offset int) ([]*Document, error)

	// GetLatestByType retrieves the most recently archived document of the
	// given message type for a payment
	// Returns ErrDocumentNotFound if none exists
	GetLatestByType(ctx context.Context, paymentID uuid.UUID, messageType string) (*Document, error)
}

// ErrDocumentNotFound indicates a missing archived document
type ErrDocumentNotFound struct {
	PaymentID   uuid.UUID
	MessageType string
}

func (e ErrDocumentNotFound) Error() string {
	return "archived document not found: " + e.PaymentID.String() + " " + e.MessageType
}

// Is implements the errors.Is interface for ErrDocumentNotFound
func (e ErrDocumentNotFound) Is(target error) bool {
	t, ok := target.(ErrDocumentNotFound)
	if !ok {
		return false
	}
	if t.PaymentID == uuid.Nil {
		return true
	}
	return e.PaymentID == t.PaymentID && e.MessageType == t.MessageType
}
