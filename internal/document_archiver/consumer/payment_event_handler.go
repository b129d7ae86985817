package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/iso20022-payment-hub/internal/document_archiver/service"
	"github.com/iso20022-payment-hub/internal/domain/shared"
	"github.com/iso20022-payment-hub/internal/platform/messaging/producers"
)

// PaymentEventHandler handles incoming payment event messages from Kafka
type PaymentEventHandler struct {
	archivingService service.ArchivingService
	producer         producers.DeadLetterPublisher
	logger           *slog.Logger
}

// NewPaymentEventHandler creates a new handler
func NewPaymentEventHandler(
	logger *slog.Logger,
	archivingService service.ArchivingService,
	producer producers.DeadLetterPublisher,
) *PaymentEventHandler {
	return &PaymentEventHandler{
		archivingService: archivingService,
		producer:         producer,
		logger:           logger,
	}
}

// HandleMessage processes Kafka messages
func (h *PaymentEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var event shared.PaymentEvent
	if err := json.Unmarshal(value, &event); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal payment event from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		// Send to DLQ if available
		if h.producer != nil {
			dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
			if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
				h.logger.Error("Failed to publish message to DLQ after unmarshal error",
					"dlq_error", dlqErr,
					"original_error", err,
					"message_key", string(key),
				)
				// Return original error if DLQ fails
			} else {
				h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
				// Message handled, commit offset
				return nil
			}
		}
		// Allow Kafka retries
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	// Add correlation ID to logger
	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received payment event for archiving",
		"payment_id", event.Payment.ID.String(),
		"event_id", event.EventID,
		"event_type", event.EventType,
		"rail", string(event.Payment.Rail),
	)

	if err := h.archivingService.ArchiveEvent(ctx, &event); err != nil {
		logger.Error("Failed to archive payment event",
			"payment_id", event.Payment.ID.String(),
			"event_id", event.EventID,
			"error", err,
		)
		return fmt.Errorf("archiving event %d for payment %s failed: %w", event.EventID, event.Payment.ID.String(), err)
	}

	logger.Info("Successfully archived payment event",
		"payment_id", event.Payment.ID.String(),
		"event_id", event.EventID,
	)
	return nil // Success, commit offset
}
