package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketWire/internal/domain/models"
	drepo "MarketWire/internal/domain/repository"
)

// EventHandler consumes a detected event end to end (article, review,
// ads, delivery).
type EventHandler interface {
	HandleEvent(ctx context.Context, e *models.Event) error
}

// EventProcessor routes detected events to the configured backend:
// "kafka" publishes to the events topic for the consumer side to pick
// up, "inline" hands the event straight to the newsroom.
type EventProcessor struct {
	sink    drepo.EventSink
	handler EventHandler
	metrics drepo.Metrics
	backend string
}

func NewEventProcessor(sink drepo.EventSink, handler EventHandler, metrics drepo.Metrics, backend string) *EventProcessor {
	return &EventProcessor{
		sink:    sink,
		handler: handler,
		metrics: metrics,
		backend: backend,
	}
}

func (p *EventProcessor) Backend() string { return p.backend }

// Process routes a single event.
func (p *EventProcessor) Process(ctx context.Context, e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.sink.Publish(ctx, e)
	case "inline":
		err = p.handler.HandleEvent(ctx, e)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process event: %w", err)
	}

	p.metrics.RecordEventSent(p.backend, e.Symbol)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes a batch of events.
func (p *EventProcessor) ProcessBatch(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.sink.PublishBatch(ctx, events)
	case "inline":
		for _, e := range events {
			if herr := p.handler.HandleEvent(ctx, e); herr != nil {
				err = herr
				break
			}
		}
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	for _, e := range events {
		p.metrics.RecordEventSent(p.backend, e.Symbol)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close releases the underlying sink.
func (p *EventProcessor) Close() {
	if p.sink != nil {
		_ = p.sink.Close()
	}
}
