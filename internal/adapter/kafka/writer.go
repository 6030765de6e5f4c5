// Package kafka publishes retained entities to a Kafka topic so downstream
// consumers can index the same set that was drawn on the map.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/poi-rating-map/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces entity messages to a Kafka topic.
// It implements pipeline.Loader.
type Writer struct {
	writer messageWriter
	source string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for topic. source is recorded in every
// message header (the map mode that produced the entity).
func NewWriter(brokers []string, topic, source string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, source: source, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *Writer) Name() string { return "kafka" }

// LoadBatch serializes and publishes all entities in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, entities []domain.Entity) error {
	if len(entities) == 0 {
		return nil
	}
	producedAt := domain.Now()
	msgs := make([]kafkago.Message, len(entities))
	for i := range entities {
		msg, err := serializeToMessage(entities[i], w.source, producedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish entities: %w", err)
	}
	w.logger.Debug("entities published", "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Entity into a Kafka message keyed by entity key.
func serializeToMessage(entity domain.Entity, source string, producedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(entity)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize entity: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "source", Value: []byte(source)},
		{Key: "produced_at", Value: []byte(producedAt.UTC().Format(time.RFC3339))},
	}
	if entity.Category != "" {
		headers = append(headers, kafkago.Header{Key: "category", Value: []byte(entity.Category)})
	}
	return kafkago.Message{
		Key:     []byte(entity.Key()),
		Value:   data,
		Headers: headers,
	}, nil
}
