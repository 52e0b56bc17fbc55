package notify

import (
	"context"
	"sync"
	"time"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
	applogger "MarketWire/pkg/logger"
	"MarketWire/pkg/queue"
)

// DeliveryJob consumes queued bundles and fans them out to every
// configured channel. Channels are throttled to maxPerHour deliveries
// each; critical events bypass the cap.
type DeliveryJob struct {
	jobType   string
	notifiers []domsvc.Notifier
	l         *applogger.Logger

	maxPerHour int
	mu         sync.Mutex
	sent       map[string][]time.Time // channel -> delivery times in window
	now        func() time.Time
}

var _ queue.Job = (*DeliveryJob)(nil)

type JobOption func(*DeliveryJob)

// WithHourlyCap limits deliveries per channel per hour.
func WithHourlyCap(n int) JobOption {
	return func(j *DeliveryJob) {
		if n > 0 {
			j.maxPerHour = n
		}
	}
}

func withClock(now func() time.Time) JobOption {
	return func(j *DeliveryJob) { j.now = now }
}

func NewDeliveryJob(jobType string, notifiers []domsvc.Notifier, l *applogger.Logger, opts ...JobOption) *DeliveryJob {
	j := &DeliveryJob{
		jobType:    jobType,
		notifiers:  notifiers,
		l:          l,
		maxPerHour: 20,
		sent:       make(map[string][]time.Time),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

func (j *DeliveryJob) Name() string { return "notify-delivery" }
func (j *DeliveryJob) Type() string { return j.jobType }

// Handle delivers one bundle. A failing channel does not block the
// others; the job itself never errors so the queue does not retry a
// bundle that partially went out.
func (j *DeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	bundle, err := queue.ParsePayload[models.NewsBundle](payload)
	if err != nil {
		if j.l != nil {
			j.l.Error("notify: bad payload", applogger.Error(err))
		}
		return nil
	}

	for _, n := range j.notifiers {
		if !j.allow(n.Name(), bundle.Event.Severity) {
			if j.l != nil {
				j.l.Warn("notify: hourly cap reached",
					applogger.String("channel", n.Name()),
					applogger.String("symbol", bundle.Event.Symbol),
				)
			}
			continue
		}
		if err := n.Send(ctx, bundle); err != nil {
			if j.l != nil {
				j.l.Error("notify: delivery failed",
					applogger.String("channel", n.Name()),
					applogger.String("symbol", bundle.Event.Symbol),
					applogger.Error(err),
				)
			}
			continue
		}
		if j.l != nil {
			j.l.Info("notify: delivered",
				applogger.String("channel", n.Name()),
				applogger.String("symbol", bundle.Event.Symbol),
			)
		}
	}
	return nil
}

// allow checks and records one delivery slot for the channel.
func (j *DeliveryJob) allow(channel string, sev models.Severity) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	cutoff := now.Add(-time.Hour)
	recent := j.sent[channel][:0]
	for _, t := range j.sent[channel] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if sev != models.SeverityCritical && len(recent) >= j.maxPerHour {
		j.sent[channel] = recent
		return false
	}
	j.sent[channel] = append(recent, now)
	return true
}
