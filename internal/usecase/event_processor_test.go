package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketWire/internal/domain/models"
)

type stubSink struct {
	published []*models.Event
	err       error
}

func (s *stubSink) Publish(_ context.Context, e *models.Event) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, e)
	return nil
}

func (s *stubSink) PublishBatch(_ context.Context, events []*models.Event) error {
	if s.err != nil {
		return s.err
	}
	s.published = append(s.published, events...)
	return nil
}

func (s *stubSink) Close() error { return nil }

type stubHandler struct {
	handled []*models.Event
}

func (h *stubHandler) HandleEvent(_ context.Context, e *models.Event) error {
	h.handled = append(h.handled, e)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordEventDetected(string, string) {}
func (nopMetrics) RecordEventSent(string, string)     {}
func (nopMetrics) RecordQuoteFetched(string)          {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLastPrice(string, float64)    {}
func (nopMetrics) RecordLatency(string, float64)      {}

func procEvent(symbol string) *models.Event {
	return &models.Event{
		Symbol:    symbol,
		Type:      models.EventPriceSpike,
		Severity:  models.SeverityMedium,
		Timestamp: time.Now().UTC(),
	}
}

func TestProcessorRoutesToKafka(t *testing.T) {
	sink := &stubSink{}
	handler := &stubHandler{}
	p := NewEventProcessor(sink, handler, nopMetrics{}, "kafka")

	if err := p.Process(context.Background(), procEvent("AAPL")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(sink.published) != 1 || len(handler.handled) != 0 {
		t.Fatalf("kafka backend: sink=%d handler=%d", len(sink.published), len(handler.handled))
	}
}

func TestProcessorRoutesInline(t *testing.T) {
	sink := &stubSink{}
	handler := &stubHandler{}
	p := NewEventProcessor(sink, handler, nopMetrics{}, "inline")

	if err := p.Process(context.Background(), procEvent("AAPL")); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(handler.handled) != 1 || len(sink.published) != 0 {
		t.Fatalf("inline backend: sink=%d handler=%d", len(sink.published), len(handler.handled))
	}
}

func TestProcessorBatchAndErrors(t *testing.T) {
	sink := &stubSink{}
	p := NewEventProcessor(sink, &stubHandler{}, nopMetrics{}, "kafka")

	events := []*models.Event{procEvent("AAPL"), procEvent("TSLA")}
	if err := p.ProcessBatch(context.Background(), events); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(sink.published) != 2 {
		t.Fatalf("published = %d, want 2", len(sink.published))
	}

	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatal("nil event must error")
	}

	sink.err = errors.New("broker down")
	if err := p.Process(context.Background(), procEvent("AAPL")); err == nil {
		t.Fatal("expected sink error to propagate")
	}

	bad := NewEventProcessor(sink, &stubHandler{}, nopMetrics{}, "carrier-pigeon")
	if err := bad.Process(context.Background(), procEvent("AAPL")); err == nil {
		t.Fatal("unknown backend must error")
	}
}
