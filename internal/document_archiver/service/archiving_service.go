package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iso20022-payment-hub/internal/domain/archive"
	"github.com/iso20022-payment-hub/internal/domain/payment"
	"github.com/iso20022-payment-hub/internal/domain/shared"
	"github.com/iso20022-payment-hub/internal/iso20022"
)

// ArchivingServiceImpl implements the ArchivingService interface. For every
// consumed lifecycle event it renders the four ISO 20022 documents from the
// payment snapshot carried in the event and stores them in the archive.
type ArchivingServiceImpl struct {
	archiveRepo archive.Repository
	logger      *slog.Logger
}

// NewArchivingService creates a new archiving service
func NewArchivingService(logger *slog.Logger, archiveRepo archive.Repository) ArchivingService {
	return &ArchivingServiceImpl{
		archiveRepo: archiveRepo,
		logger:      logger,
	}
}

// ArchiveEvent renders and stores all four documents for one lifecycle
// event. Documents are rendered at the event timestamp so each archived set
// reflects the payment as it was when the transition committed.
func (s *ArchivingServiceImpl) ArchiveEvent(ctx context.Context, event *shared.PaymentEvent) error {
	p := &event.Payment

	docs, err := renderDocuments(p, event.Timestamp)
	if err != nil {
		s.logger.Error("Failed to render documents for archiving",
			"payment_id", p.ID.String(),
			"event_type", event.EventType,
			"error", err,
		)
		return fmt.Errorf("failed to render documents for payment %s: %w", p.ID, err)
	}

	for _, messageType := range iso20022.MessageTypes {
		xmlDoc, _ := docs.ByType(messageType)
		doc := &archive.Document{
			PaymentID:   p.ID,
			EventID:     event.EventID,
			EventType:   event.EventType,
			MessageType: string(messageType),
			MessageID:   p.Identifiers.MessageID,
			UETR:        p.UETR,
			Rail:        string(p.Rail),
			Status:      string(p.Status),
			XML:         xmlDoc,
			ArchivedAt:  time.Now().UTC(),
		}
		if err := s.archiveRepo.Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to archive %s for payment %s: %w", messageType, p.ID, err)
		}
	}

	s.logger.Info("Archived documents for payment event",
		"payment_id", p.ID.String(),
		"event_id", event.EventID,
		"event_type", event.EventType,
		"documents", len(iso20022.MessageTypes),
	)
	return nil
}

// renderDocuments renders the four message types; the pacs.002 outcome
// follows the snapshot's status.
func renderDocuments(p *payment.Payment, ts time.Time) (iso20022.Documents, error) {
	docs, err := iso20022.RenderAll(p, ts)
	if err != nil {
		return iso20022.Documents{}, err
	}
	if p.Status == payment.StatusFailed {
		rejected, err := iso20022.RenderStatusReport(p, iso20022.OutcomeRejected, ts)
		if err != nil {
			return iso20022.Documents{}, err
		}
		docs.Pacs002 = rejected
	}
	return docs, nil
}
