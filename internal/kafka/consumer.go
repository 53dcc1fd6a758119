package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

// MessageReader is the part of *kafka.Reader the consumer needs
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader     MessageReader
	topic      string
	logger     *logger.Logger
	retryDelay time.Duration
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	return NewConsumerWithReader(reader, topic, log)
}

// NewConsumerWithReader wraps an existing reader
func NewConsumerWithReader(reader MessageReader, topic string, log *logger.Logger) *Consumer {
	return &Consumer{reader: reader, topic: topic, logger: log, retryDelay: time.Second}
}

// Start consumes visit change events until ctx is cancelled. Malformed
// messages are skipped; handler errors are logged and do not stop the loop.
func (c *Consumer) Start(ctx context.Context, handler func(ctx context.Context, event models.VisitChangeEvent) error) error {
	c.logger.LogKafka("CONSUME", c.topic, "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.LogKafka("CONSUME", c.topic, "Kafka consumer stopped")
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message from %s: %v", c.topic, err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.retryDelay):
			}
			continue
		}

		var event models.VisitChangeEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Failed to unmarshal message at offset %d: %v", msg.Offset, err))
			continue
		}

		c.logger.LogKafka("RECEIVE", c.topic, fmt.Sprintf("visit %d %s", event.VisitID, event.Action))
		if err := handler(ctx, event); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Failed to handle visit %d %s: %v", event.VisitID, event.Action, err))
		}
	}
}

// Invalidator drops every cached report
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// InvalidateForeignChanges returns a handler that invalidates the report
// cache for changes made by other writers. Events stamped with self were
// already invalidated by this instance when the write happened.
func InvalidateForeignChanges(self string, cache Invalidator, log *logger.Logger) func(ctx context.Context, event models.VisitChangeEvent) error {
	return func(ctx context.Context, event models.VisitChangeEvent) error {
		if self != "" && event.Source == self {
			return nil
		}
		if err := cache.Invalidate(ctx); err != nil {
			return err
		}
		log.Debug("KAFKA", fmt.Sprintf("Invalidated reports after visit %d %s from %q", event.VisitID, event.Action, event.Source))
		return nil
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
