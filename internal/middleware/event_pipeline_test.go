package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"MarketWire/internal/domain/models"
)

type captureProc struct {
	mu     sync.Mutex
	events []*models.Event
	err    error
}

func (c *captureProc) Process(_ context.Context, e *models.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, e)
	return nil
}

func (c *captureProc) captured() []*models.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.Event, len(c.events))
	copy(out, c.events)
	return out
}

func (c *captureProc) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

type nopMetrics struct{}

func (nopMetrics) RecordEventDetected(string, string) {}
func (nopMetrics) RecordEventSent(string, string)     {}
func (nopMetrics) RecordQuoteFetched(string)          {}
func (nopMetrics) RecordError(string)                 {}
func (nopMetrics) RecordLastPrice(string, float64)    {}
func (nopMetrics) RecordLatency(string, float64)      {}

func testEvent(symbol string, sev models.Severity, ts time.Time) *models.Event {
	return &models.Event{
		Symbol:    symbol,
		Type:      models.EventPriceSpike,
		Severity:  sev,
		Timestamp: ts,
	}
}

func TestPipelineForwardsValidEvents(t *testing.T) {
	proc := &captureProc{}
	p := NewEventPipeline(proc, nopMetrics{})

	e := testEvent("AAPL", models.SeverityMedium, time.Now())
	if err := p.Process(context.Background(), e); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(proc.events) != 1 || proc.events[0].Symbol != "AAPL" {
		t.Fatalf("forwarded = %+v", proc.events)
	}
}

func TestPipelineRejectsInvalidEvents(t *testing.T) {
	proc := &captureProc{}
	p := NewEventPipeline(proc, nopMetrics{})

	cases := []*models.Event{
		nil,
		{Type: models.EventPriceSpike, Timestamp: time.Now()},
		{Symbol: "AAPL", Timestamp: time.Now()},
		{Symbol: "AAPL", Type: models.EventPriceSpike},
	}
	for i, e := range cases {
		if err := p.Process(context.Background(), e); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(proc.events) != 0 {
		t.Fatalf("invalid events reached downstream: %+v", proc.events)
	}
}

func TestPipelineCooldownSuppressesRepeats(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	proc := &captureProc{}
	p := NewEventPipeline(proc, nopMetrics{}, WithCooldown(5*time.Minute), withClock(clock))

	ctx := context.Background()
	if err := p.Process(ctx, testEvent("AAPL", models.SeverityMedium, now)); err != nil {
		t.Fatalf("first event: %v", err)
	}

	// Same symbol inside the window is suppressed without error.
	now = now.Add(time.Minute)
	if err := p.Process(ctx, testEvent("AAPL", models.SeverityHigh, now)); err != nil {
		t.Fatalf("suppressed event returned error: %v", err)
	}
	if len(proc.events) != 1 {
		t.Fatalf("expected suppression, downstream got %d events", len(proc.events))
	}

	// A different symbol is unaffected.
	if err := p.Process(ctx, testEvent("TSLA", models.SeverityLow, now)); err != nil {
		t.Fatalf("other symbol: %v", err)
	}
	if len(proc.events) != 2 {
		t.Fatalf("expected 2 downstream events, got %d", len(proc.events))
	}

	// After the window expires the symbol passes again.
	now = now.Add(5 * time.Minute)
	if err := p.Process(ctx, testEvent("AAPL", models.SeverityMedium, now)); err != nil {
		t.Fatalf("post-cooldown event: %v", err)
	}
	if len(proc.events) != 3 {
		t.Fatalf("expected 3 downstream events, got %d", len(proc.events))
	}
}

func TestPipelineCriticalBypassesCooldown(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	proc := &captureProc{}
	p := NewEventPipeline(proc, nopMetrics{}, WithCooldown(time.Hour), withClock(clock))

	ctx := context.Background()
	if err := p.Process(ctx, testEvent("AAPL", models.SeverityMedium, now)); err != nil {
		t.Fatalf("first event: %v", err)
	}
	now = now.Add(time.Second)
	if err := p.Process(ctx, testEvent("AAPL", models.SeverityCritical, now)); err != nil {
		t.Fatalf("critical event: %v", err)
	}
	if len(proc.events) != 2 {
		t.Fatalf("critical event suppressed, downstream got %d", len(proc.events))
	}
}

func TestPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &captureProc{err: errors.New("broker down")}
	p := NewEventPipeline(proc, nopMetrics{}, WithBufferSize(4))

	e := testEvent("AAPL", models.SeverityMedium, time.Now())
	if err := p.Process(context.Background(), e); err == nil {
		t.Fatal("expected downstream error")
	}
	if len(p.bufCh) != 1 {
		t.Fatalf("buffer depth = %d, want 1", len(p.bufCh))
	}

	// Recovery: the flusher drains the buffer.
	proc.setErr(nil)
	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for len(proc.captured()) == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered event never flushed")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if got := proc.captured(); got[0].Symbol != "AAPL" {
		t.Fatalf("flushed event = %+v", got[0])
	}
}
