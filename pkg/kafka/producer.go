package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// Producer publishes messages through a shared kafka.Writer.
type Producer struct {
	writer      *kafka.Writer
	compression string
}

// NewProducer builds a producer from the given options. Brokers are
// mandatory; everything else has batching-friendly defaults.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchBytes:   1048576,
		BatchTimeout: 1 * time.Second,
		Async:        false,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}

	balancer := kafka.Balancer(&kafka.LeastBytes{})
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     balancer,
		RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  cfg.MaxAttempts,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		BatchSize:    cfg.BatchSize,
		BatchBytes:   int64(cfg.BatchBytes),
		BatchTimeout: cfg.BatchTimeout,
		Async:        cfg.Async,
	}

	registerProducerMetrics()
	return &Producer{writer: writer, compression: cfg.Compression}, nil
}

// Publish sends one message to the topic. Byte and string values go
// out as-is, anything else is JSON-encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	start := time.Now()
	payload, err := encodePayload(value)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: payload,
		Time:  time.Now(),
	})
	producerMetrics.observe(topic, p.compression, int64(len(payload)), 1, time.Since(start), err)
	return err
}

// PublishBatch sends multiple messages to the topic in one write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}

	start := time.Now()
	msgs := make([]kafka.Message, 0, len(messages))
	var totalBytes int64
	for _, m := range messages {
		payload, err := encodePayload(m.Value)
		if err != nil {
			return err
		}

		msgs = append(msgs, kafka.Message{
			Topic: topic,
			Key:   m.Key,
			Value: payload,
			Time:  time.Now(),
		})
		totalBytes += int64(len(payload))
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	producerMetrics.observe(topic, p.compression, totalBytes, len(messages), time.Since(start), err)
	return err
}

// Close closes the underlying writer.
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// Message is a key/value pair handed to PublishBatch.
type Message struct {
	Key   []byte
	Value interface{}
}

func encodePayload(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal value: %w", err)
		}
		return data, nil
	}
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "gzip":
		return kafka.Gzip
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}

var (
	producerMetrics     producerCollectors
	producerMetricsInit sync.Once
)

type producerCollectors struct {
	published *prometheus.CounterVec
	errors    *prometheus.CounterVec
	bytes     *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

func registerProducerMetrics() {
	producerMetricsInit.Do(func() {
		producerMetrics = producerCollectors{
			published: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "marketwire_kafka_producer_messages_total",
					Help: "Total messages published to Kafka",
				},
				[]string{"topic", "compression", "result"},
			),
			errors: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "marketwire_kafka_producer_errors_total",
					Help: "Total producer errors",
				},
				[]string{"topic"},
			),
			bytes: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "marketwire_kafka_producer_bytes_total",
					Help: "Total payload bytes published",
				},
				[]string{"topic", "compression"},
			),
			latency: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "marketwire_kafka_producer_publish_seconds",
					Help:    "Publish latency",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"topic"},
			),
		}
	})
}

func (c producerCollectors) observe(topic, compression string, bytes int64, count int, dur time.Duration, err error) {
	if c.published == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
		c.errors.WithLabelValues(topic).Inc()
	}
	c.published.WithLabelValues(topic, compression, result).Add(float64(count))
	c.bytes.WithLabelValues(topic, compression).Add(float64(bytes))
	c.latency.WithLabelValues(topic).Observe(dur.Seconds())
}
