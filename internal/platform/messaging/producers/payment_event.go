package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/segmentio/kafka-go"
)

type PaymentEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new payment event producer and ensures topic exists
func NewPaymentEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*PaymentEventProducer, error) {
	if cfg.PaymentEventsTopic == "" {
		return nil, fmt.Errorf("kafka payment events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for payment event producer: %w", err)
	}
	defer conn.Close()

	err = ensureTopic(conn, cfg.PaymentEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure payment events topic %s exists for payment event producer: %w", cfg.PaymentEventsTopic, err)
	}

	// Synchronous writes: the outbox poller marks rows PROCESSED only after
	// the broker acknowledges, so delivery must be confirmed on return.
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.PaymentEventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages", "topic", cfg.PaymentEventsTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages", "topic", cfg.PaymentEventsTopic, "count", len(messages))
			}
		},
	}

	return &PaymentEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.PaymentEventsTopic,
	}, nil
}

func (p *PaymentEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal message value for payment event producer: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish message via payment event producer",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish message to %s via payment event producer: %w", p.topic, err)
	}

	p.logger.Debug("Published message via payment event producer",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *PaymentEventProducer) Close() error {
	p.logger.Info("Closing payment event Kafka message producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close payment event kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
