package usecase

import (
	"context"
	"encoding/json"
	"time"

	"MarketWire/internal/domain/models"
	domrepo "MarketWire/internal/domain/repository"
	pkgkafka "MarketWire/pkg/kafka"
)

// KafkaEventsHandler consumes detected events from the Kafka topic and
// hands them to the newsroom. This is the consumer half of the "kafka"
// backend; the producer half lives in the event processor.
type KafkaEventsHandler struct {
	topic   string
	handler EventHandler
	metrics domrepo.Metrics
}

func NewKafkaEventsHandler(topic string, handler EventHandler, metrics domrepo.Metrics) *KafkaEventsHandler {
	return &KafkaEventsHandler{topic: topic, handler: handler, metrics: metrics}
}

func (h *KafkaEventsHandler) Topic() string { return h.topic }

// Handle decodes one event message. Schema matches the sink payload.
func (h *KafkaEventsHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol        string   `json:"symbol"`
		Name          string   `json:"name"`
		Type          string   `json:"type"`
		Severity      string   `json:"severity"`
		Conditions    []string `json:"conditions"`
		Title         string   `json:"title"`
		Description   string   `json:"description"`
		CurrentPrice  float64  `json:"current_price"`
		ChangePercent float64  `json:"change_percent"`
		Volume        int64    `json:"volume"`
		Timestamp     int64    `json:"timestamp"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	e := &models.Event{
		Symbol:        m.Symbol,
		Name:          m.Name,
		Type:          models.EventType(m.Type),
		Severity:      models.Severity(m.Severity),
		Conditions:    m.Conditions,
		Title:         m.Title,
		Description:   m.Description,
		CurrentPrice:  m.CurrentPrice,
		ChangePercent: m.ChangePercent,
		Volume:        m.Volume,
		Timestamp:     time.Unix(m.Timestamp, 0).UTC(),
	}

	// End-to-end latency from detection to consumption.
	h.metrics.RecordLatency("event_e2e_seconds", time.Since(e.Timestamp).Seconds())

	start := time.Now()
	if err := h.handler.HandleEvent(ctx, e); err != nil {
		h.metrics.RecordError("consumer_handle")
		return err
	}
	h.metrics.RecordLatency("newsroom_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaEventsHandler)(nil)
