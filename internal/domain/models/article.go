package models

import "time"

const (
	WriterClaude   = "claude"
	WriterTemplate = "template"

	ReviewApproved      = "approved"
	ReviewNeedsRevision = "needs_revision"
)

// Article is the drafted news text for one event.
type Article struct {
	ID         string // uuid
	Symbol     string
	Title      string
	Lead       string
	Body       string
	Conclusion string
	Tags       []string
	WrittenBy  string // "claude" or "template"
	CreatedAt  time.Time
}

// Review is the rubric score attached to an article. Review never
// blocks publication; status rides along in the bundle.
type Review struct {
	Accuracy     float64
	Readability  float64
	Completeness float64
	Compliance   float64
	Engagement   float64
	Total        float64 // weighted, one decimal
	Status       string  // "approved" or "needs_revision"
	Notes        []string
}

// NewsBundle is one published unit: event, article, review, ads.
type NewsBundle struct {
	Event       Event
	Article     Article
	Review      Review
	Ads         []EnrichedAd
	PublishedAt time.Time
}
