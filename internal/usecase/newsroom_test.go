package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"MarketWire/internal/domain/models"
)

type stubWriter struct {
	by    string
	err   error
	calls int
}

func (w *stubWriter) Write(_ context.Context, e models.Event, _ *models.MarketSnapshot) (models.Article, error) {
	w.calls++
	if w.err != nil {
		return models.Article{}, w.err
	}
	return models.Article{
		ID:        "a1",
		Symbol:    e.Symbol,
		Title:     e.Title,
		Body:      e.Description,
		WrittenBy: w.by,
	}, nil
}

type stubReviewer struct {
	status map[string]string // WrittenBy -> status
}

func (r *stubReviewer) Review(a models.Article, _ models.Event) models.Review {
	status := models.ReviewApproved
	if r.status != nil {
		if s, ok := r.status[a.WrittenBy]; ok {
			status = s
		}
	}
	return models.Review{Total: 8.0, Status: status}
}

type stubRecommender struct{}

func (stubRecommender) Recommend(models.Article, models.Event) []models.EnrichedAd {
	return []models.EnrichedAd{{Rank: 1, Ad: models.AdCandidate{Title: "InvestSmart"}}}
}

type stubBroadcaster struct {
	got []*models.NewsBundle
}

func (b *stubBroadcaster) Broadcast(bundle *models.NewsBundle) {
	b.got = append(b.got, bundle)
}

type stubQueue struct {
	types    []string
	payloads []interface{}
}

func (q *stubQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	q.types = append(q.types, msgType)
	q.payloads = append(q.payloads, payload)
	return nil
}

func sampleEvent() *models.Event {
	return &models.Event{
		Symbol:      "AAPL",
		Name:        "Apple Inc.",
		Type:        models.EventPriceSpike,
		Severity:    models.SeverityHigh,
		Title:       "AAPL: 5.2% surge",
		Description: "Apple Inc. moved +5.2%",
		Timestamp:   time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC),
	}
}

func TestNewsroomPublishesBundle(t *testing.T) {
	primary := &stubWriter{by: models.WriterClaude}
	fallback := &stubWriter{by: models.WriterTemplate}
	bc := &stubBroadcaster{}
	q := &stubQueue{}

	nr := NewNewsroom(primary, fallback, &stubReviewer{}, stubRecommender{}, nil,
		WithBroadcaster(bc), WithNotifyQueue(q))

	if err := nr.HandleEvent(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if fallback.calls != 0 {
		t.Fatalf("fallback used despite healthy primary writer")
	}

	recent := nr.Recent(10)
	if len(recent) != 1 {
		t.Fatalf("recent = %d bundles, want 1", len(recent))
	}
	b := recent[0]
	if b.Article.WrittenBy != models.WriterClaude {
		t.Fatalf("WrittenBy = %q", b.Article.WrittenBy)
	}
	if b.Review.Status != models.ReviewApproved {
		t.Fatalf("review status = %q", b.Review.Status)
	}
	if len(b.Ads) != 1 || b.Ads[0].Ad.Title != "InvestSmart" {
		t.Fatalf("ads = %+v", b.Ads)
	}

	if len(bc.got) != 1 {
		t.Fatalf("broadcasts = %d, want 1", len(bc.got))
	}
	if len(q.types) != 1 || q.types[0] != NotifyJobType {
		t.Fatalf("queue types = %v", q.types)
	}
}

func TestNewsroomFallsBackOnWriterError(t *testing.T) {
	primary := &stubWriter{by: models.WriterClaude, err: errors.New("api down")}
	fallback := &stubWriter{by: models.WriterTemplate}

	nr := NewNewsroom(primary, fallback, &stubReviewer{}, stubRecommender{}, nil)

	if err := nr.HandleEvent(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
	recent := nr.Recent(1)
	if len(recent) != 1 || recent[0].Article.WrittenBy != models.WriterTemplate {
		t.Fatalf("published article = %+v", recent)
	}
}

func TestNewsroomReplacesRejectedModelDraft(t *testing.T) {
	primary := &stubWriter{by: models.WriterClaude}
	fallback := &stubWriter{by: models.WriterTemplate}
	reviewer := &stubReviewer{status: map[string]string{
		models.WriterClaude: models.ReviewNeedsRevision,
	}}

	nr := NewNewsroom(primary, fallback, reviewer, stubRecommender{}, nil)

	if err := nr.HandleEvent(context.Background(), sampleEvent()); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	recent := nr.Recent(1)
	if recent[0].Article.WrittenBy != models.WriterTemplate {
		t.Fatalf("rejected model draft was published: %+v", recent[0].Article)
	}
	if recent[0].Review.Status != models.ReviewApproved {
		t.Fatalf("review status = %q after template rewrite", recent[0].Review.Status)
	}
}

func TestNewsroomHistoryBounded(t *testing.T) {
	nr := NewNewsroom(&stubWriter{by: models.WriterTemplate}, &stubWriter{by: models.WriterTemplate},
		&stubReviewer{}, stubRecommender{}, nil, WithHistorySize(3))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e := sampleEvent()
		e.Title = string(rune('A' + i))
		if err := nr.HandleEvent(ctx, e); err != nil {
			t.Fatalf("HandleEvent %d: %v", i, err)
		}
	}

	recent := nr.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("history = %d bundles, want 3", len(recent))
	}
	// Newest first.
	if recent[0].Event.Title != "E" || recent[2].Event.Title != "C" {
		t.Fatalf("history order = [%s %s %s]", recent[0].Event.Title, recent[1].Event.Title, recent[2].Event.Title)
	}
}
