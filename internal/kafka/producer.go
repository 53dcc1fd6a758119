package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/segmentio/kafka-go"

	"museum-visits/internal/logger"
	"museum-visits/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Topic  string
	// Source is stamped on events that do not carry one
	Source string
	Logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Topic: topic, Logger: log}
}

// PublishVisitChange streams a visit change event to Kafka, keyed by visit
// id so changes to one visit stay ordered.
func (p *Producer) PublishVisitChange(ctx context.Context, event models.VisitChangeEvent) error {
	if event.Source == "" {
		event.Source = p.Source
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal visit change: %w", err)
	}

	err = p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.VisitID, 10)),
		Value: msgBytes,
	})
	if err != nil {
		return fmt.Errorf("publish visit change to %s: %w", p.Topic, err)
	}

	p.Logger.LogKafka("PUBLISH", p.Topic, fmt.Sprintf("visit %d %s", event.VisitID, event.Action))
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
