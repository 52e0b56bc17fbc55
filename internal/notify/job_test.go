package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
)

type fakeNotifier struct {
	name string
	err  error
	sent []*models.NewsBundle
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(_ context.Context, b *models.NewsBundle) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, b)
	return nil
}

func bundleWithSeverity(sev models.Severity) models.NewsBundle {
	return models.NewsBundle{
		Event:   models.Event{Symbol: "AAPL", Type: models.EventPriceSpike, Severity: sev},
		Article: models.Article{Title: "AAPL: 5.2% surge"},
	}
}

func TestDeliveryJobFansOut(t *testing.T) {
	slack := &fakeNotifier{name: "slack"}
	tg := &fakeNotifier{name: "telegram"}
	job := NewDeliveryJob("news.notify", []domsvc.Notifier{slack, tg}, nil)

	b := bundleWithSeverity(models.SeverityMedium)
	if err := job.Handle(context.Background(), b); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(slack.sent) != 1 || len(tg.sent) != 1 {
		t.Fatalf("deliveries: slack=%d telegram=%d", len(slack.sent), len(tg.sent))
	}
}

func TestDeliveryJobFailureDoesNotBlockOthers(t *testing.T) {
	slack := &fakeNotifier{name: "slack", err: errors.New("webhook 500")}
	tg := &fakeNotifier{name: "telegram"}
	job := NewDeliveryJob("news.notify", []domsvc.Notifier{slack, tg}, nil)

	if err := job.Handle(context.Background(), bundleWithSeverity(models.SeverityMedium)); err != nil {
		t.Fatalf("Handle must not propagate channel errors: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("telegram deliveries = %d, want 1", len(tg.sent))
	}
}

func TestDeliveryJobHourlyCap(t *testing.T) {
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	slack := &fakeNotifier{name: "slack"}
	job := NewDeliveryJob("news.notify", []domsvc.Notifier{slack}, nil,
		WithHourlyCap(2), withClock(clock))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := job.Handle(ctx, bundleWithSeverity(models.SeverityMedium)); err != nil {
			t.Fatalf("Handle %d: %v", i, err)
		}
		now = now.Add(time.Minute)
	}
	if len(slack.sent) != 2 {
		t.Fatalf("capped deliveries = %d, want 2", len(slack.sent))
	}

	// Critical bypasses the cap.
	if err := job.Handle(ctx, bundleWithSeverity(models.SeverityCritical)); err != nil {
		t.Fatalf("critical Handle: %v", err)
	}
	if len(slack.sent) != 3 {
		t.Fatalf("deliveries after critical = %d, want 3", len(slack.sent))
	}

	// The window slides: an hour later normal delivery resumes.
	now = now.Add(time.Hour + time.Minute)
	if err := job.Handle(ctx, bundleWithSeverity(models.SeverityLow)); err != nil {
		t.Fatalf("post-window Handle: %v", err)
	}
	if len(slack.sent) != 4 {
		t.Fatalf("deliveries after window = %d, want 4", len(slack.sent))
	}
}

func TestDeliveryJobBadPayloadIsDropped(t *testing.T) {
	slack := &fakeNotifier{name: "slack"}
	job := NewDeliveryJob("news.notify", []domsvc.Notifier{slack}, nil)

	if err := job.Handle(context.Background(), 42); err != nil {
		t.Fatalf("bad payload must not error (no retry): %v", err)
	}
	if len(slack.sent) != 0 {
		t.Fatalf("bad payload reached a channel")
	}
}
