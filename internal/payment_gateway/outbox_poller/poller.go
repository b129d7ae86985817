package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/iso20022-payment-hub/internal/domain/outbox"
	"github.com/iso20022-payment-hub/internal/domain/shared"
)

// Poller drains the outbox on a fixed interval, handing each pending row
// to the event publisher. Rows that keep failing are parked as
// FAILED_TO_PUBLISH once the retry budget is spent.
type Poller struct {
	outboxRepo       outbox.Repository
	eventPublisher   EventPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	eventPublisher EventPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		eventPublisher:   eventPublisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls until ctx is canceled.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Outbox batch publication failed", "error", err)
			}
		}
	}
}

// processPendingMessages publishes one batch. A message that fails to
// publish does not stop the rest of the batch.
func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}
	if len(messages) == 0 {
		return nil
	}

	p.logger.Info("Fetched pending outbox messages", "count", len(messages))
	for _, msg := range messages {
		logger := p.logger.With("payment_id", msg.PaymentID.String(), "outbox_id", msg.ID)

		if err := p.eventPublisher.PublishEvent(ctx, msg); err != nil {
			logger.Error("Failed to publish outbox message",
				"event_type", msg.EventType,
				"current_attempts", msg.Attempts,
				"error", err,
			)
			p.recordFailedAttempt(ctx, logger, msg)
			continue
		}
		logger.Info("Published outbox message", "event_type", msg.EventType)
	}
	return nil
}

func (p *Poller) recordFailedAttempt(ctx context.Context, logger *slog.Logger, msg *outbox.Message) {
	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		// Without the bump the retry budget can't be trusted, so leave the
		// row for the next tick.
		logger.Error("Failed to increment attempts for outbox message", "error", err)
		return
	}

	if msg.Attempts+1 >= p.maxRetryAttempts {
		logger.Warn("Retry budget spent for outbox message, marking FAILED_TO_PUBLISH",
			"attempts_made", msg.Attempts+1,
		)
		if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
			logger.Error("Failed to mark outbox message FAILED_TO_PUBLISH", "error", err)
		}
	}
}
