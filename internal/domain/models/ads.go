package models

// AdCandidate is one static catalog entry. The catalog is loaded once
// and read-only at request time.
type AdCandidate struct {
	ID                string
	Title             string
	Description       string
	Category          string // fine-grained slug, e.g. "trading_platform"
	TargetAudience    string
	RelevanceKeywords []string
	CTA               string
	Advertiser        string
}

// ArticleContext is what the scorer consumes: derived upstream from the
// article text plus the originating event.
type ArticleContext struct {
	Symbol        string
	Keywords      []string // lower-cased
	InvestorType  string
	InterestAreas []string
	Severity      Severity
}

// ScoredAd wraps a candidate with its weighted sub-scores. Ephemeral,
// produced per scoring request.
type ScoredAd struct {
	Ad            AdCandidate
	Group         string // catalog taxonomy key the ad belongs to
	Score         float64
	KeywordScore  float64
	TargetScore   float64
	InterestScore float64
	SeverityBonus float64
}

// EnrichedAd is the display-ready form of a selected ad.
type EnrichedAd struct {
	Ad                  AdCandidate
	Rank                int     // 1-based, assigned after diversity selection
	RelevanceScore      float64 // raw score / 10, not clamped
	PersonalizedMessage string
	TrackingURL         string
	KeywordRelevance    float64
	AudienceMatch       float64
	InterestAlignment   float64
}
