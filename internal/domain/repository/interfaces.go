package repository

import (
	"context"
	"time"

	"MarketWire/internal/domain/models"
)

// QuoteSource fetches a snapshot plus recent daily bars for one symbol.
// A failed fetch is an error; snapshots are never fabricated.
type QuoteSource interface {
	Fetch(ctx context.Context, symbol string) (*models.MarketSnapshot, []models.Bar, error)
}

// EventSink publishes detected events to a transport (Kafka).
type EventSink interface {
	Publish(ctx context.Context, e *models.Event) error
	PublishBatch(ctx context.Context, events []*models.Event) error
	Close() error
}

// BarStore persists daily bars and serves history queries.
// Events themselves are never persisted.
type BarStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, bars []models.Bar) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordEventDetected(eventType, severity string)
	RecordEventSent(backend, symbol string)
	RecordQuoteFetched(symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
