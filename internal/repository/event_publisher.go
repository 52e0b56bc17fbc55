package repository

import (
	"context"

	"MarketWire/internal/domain/models"
	domrepo "MarketWire/internal/domain/repository"
	pkgkafka "MarketWire/pkg/kafka"
)

// KafkaEventSink publishes detected events to Kafka, keyed by symbol so
// all events of one instrument land on the same partition.
type KafkaEventSink struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.EventSink = (*KafkaEventSink)(nil)

func NewKafkaEventSink(producer *pkgkafka.Producer, topic string) *KafkaEventSink {
	return &KafkaEventSink{producer: producer, topic: topic}
}

func (p *KafkaEventSink) Publish(ctx context.Context, e *models.Event) error {
	return p.producer.Publish(ctx, p.topic, []byte(e.Symbol), eventPayload(e))
}

func (p *KafkaEventSink) PublishBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(e.Symbol),
			Value: eventPayload(e),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaEventSink) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func eventPayload(e *models.Event) map[string]interface{} {
	return map[string]interface{}{
		"symbol":         e.Symbol,
		"name":           e.Name,
		"type":           string(e.Type),
		"severity":       string(e.Severity),
		"conditions":     e.Conditions,
		"title":          e.Title,
		"description":    e.Description,
		"current_price":  e.CurrentPrice,
		"change_percent": e.ChangePercent,
		"volume":         e.Volume,
		"timestamp":      e.Timestamp.Unix(),
	}
}
