// Package producers publishes payment events to Kafka, with an optional
// dead letter topic for messages the archiver cannot decode.
package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes keyed JSON messages to the primary topic.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher routes undecodable messages to the dead letter topic,
// preserving the original payload and the failure reason.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the slice of kafka.Writer the producers use, kept as an
// interface so tests can substitute a mock.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
