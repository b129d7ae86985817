// Package consumers reads payment events from Kafka for the document
// archiver. Offsets are committed only after the handler succeeds, so a
// failed event is redelivered instead of lost.
package consumers

import (
	"context"
	"log/slog"
	"time"

	"github.com/iso20022-payment-hub/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one fetched message. Returning an error leaves
// the offset uncommitted.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type Consumer interface {
	Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error
	Close() error
}

// KafkaConsumer implements Consumer on top of a kafka-go reader.
type KafkaConsumer struct {
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger: logger,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.PaymentEventsTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts the consume loop in a goroutine. The loop runs until ctx
// is canceled.
func (c *KafkaConsumer) Subscribe(ctx context.Context, topic string, groupID string, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", topic,
		"group_id", groupID,
	)
	go c.consumeLoop(ctx, topic, groupID, handler)
	return nil
}

func (c *KafkaConsumer) consumeLoop(ctx context.Context, topic string, groupID string, handler MessageHandler) {
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping consumer",
				"topic", topic,
				"group_id", groupID,
			)
			return
		default:
		}

		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to fetch message from Kafka",
				"topic", topic,
				"group_id", groupID,
				"error", err,
			)
			time.Sleep(time.Second)
			continue
		}

		c.logger.Debug("Received message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			// Leave the offset uncommitted so the event is retried.
			c.logger.Error("Failed to process message, offset not committed",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"key", string(msg.Key),
				"error", err,
			)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message after processing",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
