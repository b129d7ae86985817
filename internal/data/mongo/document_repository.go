// Package mongo provides the MongoDB implementation of the archive
// repository used to store rendered ISO 20022 documents.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iso20022-payment-hub/internal/domain/archive"
)

const (
	// DocumentCollectionName is the name of the archived documents collection in MongoDB
	DocumentCollectionName = "iso20022_documents"
)

// DocumentRepository implements the archive.Repository interface for MongoDB
type DocumentRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewDocumentRepository creates a new MongoDB document repository
func NewDocumentRepository(logger *slog.Logger, db *mongo.Database) archive.Repository {
	return &DocumentRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores an archived document. Re-archiving the same event and
// message type is a silent no-op so Kafka redeliveries stay idempotent.
func (r *DocumentRepository) Create(ctx context.Context, doc *archive.Document) error {
	collection := r.db.Collection(DocumentCollectionName)

	filter := bson.M{
		"payment_id":   doc.PaymentID,
		"event_id":     doc.EventID,
		"message_type": doc.MessageType,
	}
	count, err := collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.Error("Failed to check for existing archived document",
			"payment_id", doc.PaymentID.String(),
			"message_type", doc.MessageType,
			"error", err)
		return fmt.Errorf("failed to check for existing archived document: %w", err)
	}
	if count > 0 {
		r.logger.Debug("Document already archived, skipping",
			"payment_id", doc.PaymentID.String(),
			"event_id", doc.EventID,
			"message_type", doc.MessageType)
		return nil
	}

	_, err = collection.InsertOne(ctx, doc)
	if err != nil {
		r.logger.Error("Failed to archive document",
			"payment_id", doc.PaymentID.String(),
			"message_type", doc.MessageType,
			"error", err)
		return fmt.Errorf("failed to archive document: %w", err)
	}

	return nil
}

// GetByPaymentID retrieves paginated archived documents for a payment.
// Results are sorted by archive time in descending order (newest first).
func (r *DocumentRepository) GetByPaymentID(ctx context.Context, paymentID uuid.UUID, limit, offset int) ([]*archive.Document, error) {
	collection := r.db.Collection(DocumentCollectionName)

	filter := bson.M{"payment_id": paymentID}
	opts := options.Find().
		SetSort(bson.M{"archived_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to get archived documents",
			"payment_id", paymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived documents: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []*archive.Document
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode archived documents",
			"payment_id", paymentID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to decode archived documents: %w", err)
	}

	return docs, nil
}

// GetLatestByType retrieves the most recently archived document of the given
// message type for a payment.
func (r *DocumentRepository) GetLatestByType(ctx context.Context, paymentID uuid.UUID, messageType string) (*archive.Document, error) {
	collection := r.db.Collection(DocumentCollectionName)

	filter := bson.M{"payment_id": paymentID, "message_type": messageType}
	opts := options.FindOne().SetSort(bson.M{"archived_at": -1})

	var doc archive.Document
	err := collection.FindOne(ctx, filter, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, archive.ErrDocumentNotFound{PaymentID: paymentID, MessageType: messageType}
		}
		r.logger.Error("Failed to get archived document",
			"payment_id", paymentID.String(),
			"message_type", messageType,
			"error", err)
		return nil, fmt.Errorf("failed to get archived document: %w", err)
	}

	return &doc, nil
}
