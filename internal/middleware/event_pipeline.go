package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"MarketWire/internal/domain/models"
	domrepo "MarketWire/internal/domain/repository"
)

// Proc is the minimal downstream interface the pipeline forwards to.
type Proc interface {
	Process(ctx context.Context, e *models.Event) error
}

// EventPipeline sits between the detector and the event processor. It
// validates events, suppresses repeats per symbol within a cooldown
// window (critical events bypass the cooldown), and buffers with retry
// when downstream is unavailable.
type EventPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	cooldown time.Duration
	bufSize  int
	bufCh    chan *models.Event
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

type PipelineOption func(*EventPipeline)

// WithCooldown sets the per-symbol suppression window.
func WithCooldown(d time.Duration) PipelineOption {
	return func(p *EventPipeline) {
		if d > 0 {
			p.cooldown = d
		}
	}
}

// WithBufferSize sets the retry buffer size for downstream outages.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

func withClock(now func() time.Time) PipelineOption {
	return func(p *EventPipeline) { p.now = now }
}

func NewEventPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		proc:     proc,
		metrics:  metrics,
		cooldown: 5 * time.Minute,
		bufSize:  1000,
		stopCh:   make(chan struct{}),
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.Event, p.bufSize)
	return p
}

// Start launches background flushing of buffered events.
func (p *EventPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case e := <-p.bufCh:
				if e == nil {
					continue
				}
				if err := p.proc.Process(ctx, e); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- e:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop halts the background flusher.
func (p *EventPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards one event, buffering on downstream
// failure. Suppressed events return nil.
func (p *EventPipeline) Process(ctx context.Context, e *models.Event) error {
	start := p.now()
	if err := validateEvent(e); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(e, start) {
		p.metrics.RecordError("pipeline_cooldown")
		return nil
	}

	if err := p.proc.Process(ctx, e); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- e:
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validateEvent(e *models.Event) error {
	if e == nil {
		return fmt.Errorf("event nil")
	}
	if e.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if e.Type == "" {
		return fmt.Errorf("event type empty")
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	return nil
}

// allow applies the per-symbol cooldown. Critical events always pass
// and refresh the window.
func (p *EventPipeline) allow(e *models.Event, now time.Time) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	last, seen := p.lastSent[e.Symbol]
	if e.Severity == models.SeverityCritical || !seen || now.Sub(last) >= p.cooldown {
		p.lastSent[e.Symbol] = now
		return true
	}
	return false
}
