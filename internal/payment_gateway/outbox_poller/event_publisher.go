package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/iso20022-payment-hub/internal/domain/outbox"
	"github.com/iso20022-payment-hub/internal/domain/shared"
	"github.com/iso20022-payment-hub/internal/platform/messaging/producers"
)

// EventPublisher publishes outbox messages to the payment events topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// EventPublisherImpl implements EventPublisher
type EventPublisherImpl struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &EventPublisherImpl{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent publishes one outbox message to Kafka and marks it processed.
// Messages are keyed by payment ID so every payment's events stay ordered
// within a partition.
func (p *EventPublisherImpl) PublishEvent(ctx context.Context, message *outbox.Message) error {
	envelope, err := message.GetPaymentEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal payment event from outbox payload",
			"outbox_id", message.ID, "payment_id", message.PaymentID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	p.logger.Info("Attempting to publish outbox message",
		"outbox_id", message.ID, "payment_id", message.PaymentID, "event_type", message.EventType)

	if err := p.producer.Publish(ctx, message.PaymentID.String(), envelope); err != nil {
		p.logger.Error("Failed to publish payment event to Kafka",
			"outbox_id", message.ID, "payment_id", message.PaymentID, "error", err,
		)
		return fmt.Errorf("failed to publish payment event for outbox %d: %w", message.ID, err)
	}

	// Mark outbox message as processed
	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		p.logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "payment_id", message.PaymentID, "error", err,
		)
		return fmt.Errorf("publish for %s OK, but failed to mark outbox %d as PROCESSED: %w", message.PaymentID, message.ID, err)
	}

	p.logger.Info("Outbox message successfully published and marked as PROCESSED",
		"outbox_id", message.ID, "payment_id", message.PaymentID)
	return nil
}
