package outbox

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/iso20022-payment-hub/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Repository persists outbox rows. Create is expected to run inside the
// same transaction as the payment write it mirrors; WithTx binds the
// repository to that transaction.
type Repository interface {
	// Create inserts a PENDING row carrying the serialized event envelope.
	Create(ctx context.Context, message *Message) error
	// GetPending returns up to limit rows awaiting publication, oldest first.
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error
	IncrementAttempts(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	GetByPaymentID(ctx context.Context, paymentID uuid.UUID) ([]*Message, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound is returned when an outbox row id does not exist.
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}
