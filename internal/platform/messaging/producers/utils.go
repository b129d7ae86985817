package producers

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

const partitionReadAttempts = 5

// ensureTopic creates the topic when it does not exist yet. Brokers that
// are still starting up can fail partition reads transiently, so the read
// is retried before concluding the topic is missing.
func ensureTopic(conn *kafka.Conn, topic string, numPartitions, replicationFactor int, log *slog.Logger) error {
	var partitions []kafka.Partition
	var err error

	for attempt := 1; attempt <= partitionReadAttempts; attempt++ {
		partitions, err = conn.ReadPartitions(topic)
		if err == nil {
			break
		}
		log.Warn("Failed to read partitions, retrying",
			"topic", topic,
			"attempt", attempt,
			"error", err,
		)
		time.Sleep(2 * time.Second)
	}

	if len(partitions) > 0 {
		if err != nil {
			log.Warn("Topic exists but the last partition read failed", "topic", topic, "error", err)
		}
		return nil
	}

	if numPartitions == 0 {
		numPartitions = 1
	}
	if replicationFactor == 0 {
		replicationFactor = 1
	}

	log.Info("Creating Kafka topic",
		"topic", topic,
		"partitions", numPartitions,
		"replication_factor", replicationFactor,
	)
	if err := conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     numPartitions,
		ReplicationFactor: replicationFactor,
	}); err != nil {
		return fmt.Errorf("failed to create kafka topic %s: %w", topic, err)
	}
	return nil
}
