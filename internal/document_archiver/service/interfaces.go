package service

import (
	"context"

	"github.com/iso20022-payment-hub/internal/domain/shared"
)

// ArchivingService defines the interface for archiving payment events
type ArchivingService interface {
	ArchiveEvent(ctx context.Context, event *shared.PaymentEvent) error
}
