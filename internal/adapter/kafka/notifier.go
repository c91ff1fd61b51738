package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/auv-align/internal/config"
	"github.com/couchcryptid/auv-align/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// EventType is the event_type header of completion messages.
const EventType = "mission_aligned"

// Notifier publishes completion events to a Kafka topic.
type Notifier struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewNotifier creates a Kafka producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.NotifyBrokers...),
		Topic:                  cfg.NotifyTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.NotifyTimeout,
	}
	return &Notifier{writer: w, logger: logger}
}

// Notify publishes one completion event. Events for the same mission share
// a key and therefore a partition.
func (n *Notifier) Notify(ctx context.Context, event domain.AlignmentEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish alignment event: %w", err)
	}
	n.logger.Info("published alignment event", "topic", n.writer.Topic, "key", event.Key())
	return nil
}

func (n *Notifier) Close() error {
	return n.writer.Close()
}

// serializeToMessage marshals an AlignmentEvent into a Kafka message.
func serializeToMessage(event domain.AlignmentEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alignment event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(EventType)},
			{Key: "created_at", Value: []byte(event.CreatedAt.Format(time.RFC3339))},
		},
	}, nil
}
