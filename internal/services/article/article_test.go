package article

import (
	"context"
	"strings"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"

	"MarketWire/internal/domain/models"
)

func sampleEvent() models.Event {
	return models.Event{
		Symbol:        "AAPL",
		Name:          "Apple Inc.",
		Type:          models.EventPriceSpike,
		Severity:      models.SeverityHigh,
		Conditions:    []string{"5.2% surge", "volume spike"},
		CurrentPrice:  231.50,
		ChangePercent: 5.2,
		Volume:        980000,
	}
}

func TestTemplateWriterNeverFails(t *testing.T) {
	w := NewTemplateWriter()
	a, err := w.Write(context.Background(), sampleEvent(), &models.MarketSnapshot{AverageVolume: 400000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("expected generated article id")
	}
	if !strings.Contains(a.Title, "Apple Inc.") {
		t.Fatalf("title should name the mover: %q", a.Title)
	}
	if !strings.Contains(a.Body, "231.50") {
		t.Fatalf("body should carry the price: %q", a.Body)
	}
	if a.WrittenBy != "template" {
		t.Fatalf("expected template writer attribution, got %q", a.WrittenBy)
	}
}

func TestTemplateWriterPerEventType(t *testing.T) {
	w := NewTemplateWriter()
	cases := map[models.EventType]string{
		models.EventPriceSpike:     "Jumps",
		models.EventPriceDrop:      "Slides",
		models.EventVolumeSpike:    "Volume",
		models.EventHighVolatility: "Volatile",
		models.EventDailyUpdate:    "Daily Market Update",
	}
	for etype, want := range cases {
		e := sampleEvent()
		e.Type = etype
		a, err := w.Write(context.Background(), e, nil)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", etype, err)
		}
		if !strings.Contains(a.Title, want) {
			t.Fatalf("%s: expected %q in title %q", etype, want, a.Title)
		}
	}
}

func TestParseSections(t *testing.T) {
	text := `TITLE: Apple Jumps 5.2%
LEAD: Apple rose sharply today.
It was quite a session.
BODY: The stock closed at 231.50.

Volume was heavy.
CONCLUSION: Conditions remain uncertain.
TAGS: AAPL, markets, tech`

	a := parseSections(text)
	if a.Title != "Apple Jumps 5.2%" {
		t.Fatalf("unexpected title %q", a.Title)
	}
	if !strings.Contains(a.Lead, "quite a session") {
		t.Fatalf("lead should span multiple lines: %q", a.Lead)
	}
	if !strings.Contains(a.Body, "Volume was heavy") {
		t.Fatalf("body should keep paragraphs: %q", a.Body)
	}
	if len(a.Tags) != 3 || a.Tags[0] != "AAPL" {
		t.Fatalf("unexpected tags %v", a.Tags)
	}
}

func TestCollectTextSkipsNonTextBlocks(t *testing.T) {
	blocks := []anthropic.ContentBlockUnion{
		{Type: "thinking", Thinking: "internal reasoning"},
		{Type: "text", Text: "TITLE: Apple Jumps"},
		{Type: "tool_use"},
		{Type: "text", Text: "\nLEAD: Up 5.2%."},
	}
	got := collectText(blocks)
	want := "TITLE: Apple Jumps\nLEAD: Up 5.2%."
	if got != want {
		t.Fatalf("collectText = %q, want %q", got, want)
	}
	if collectText(nil) != "" {
		t.Fatalf("expected empty string for no blocks")
	}
}

func TestReviewerApprovesCompleteArticle(t *testing.T) {
	w := NewTemplateWriter()
	e := sampleEvent()
	a, _ := w.Write(context.Background(), e, nil)

	rev := NewReviewer().Review(a, e)
	if rev.Status != "approved" {
		t.Fatalf("expected approved, got %s (total %.1f, notes %v)", rev.Status, rev.Total, rev.Notes)
	}
	if rev.Total < approvalThreshold || rev.Total > 10 {
		t.Fatalf("total out of range: %.1f", rev.Total)
	}
}

func TestReviewerFlagsAdvisoryLanguage(t *testing.T) {
	e := sampleEvent()
	a := models.Article{
		Title:      "AAPL moves",
		Lead:       "Apple at 231.50, up 5.2%.",
		Body:       "This is investment advice: you should buy now for a guaranteed return.",
		Conclusion: "Done.",
		Tags:       []string{"AAPL"},
	}
	rev := NewReviewer().Review(a, e)
	if rev.Compliance >= 9.0 {
		t.Fatalf("expected compliance deduction, got %.1f", rev.Compliance)
	}
	found := false
	for _, n := range rev.Notes {
		if strings.Contains(n, "advisory language") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected advisory note, got %v", rev.Notes)
	}
}

func TestReviewerNeedsRevisionForEmptyArticle(t *testing.T) {
	rev := NewReviewer().Review(models.Article{}, sampleEvent())
	if rev.Status != "needs_revision" {
		t.Fatalf("expected needs_revision, got %s (%.1f)", rev.Status, rev.Total)
	}
}
