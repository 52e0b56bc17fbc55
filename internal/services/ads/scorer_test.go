package ads

import (
	"testing"

	"MarketWire/internal/domain/models"
)

func testCatalog() *Catalog {
	return NewCatalog([]Group{
		{Key: GroupTradingTools, Ads: []models.AdCandidate{
			{ID: "t1", Title: "Alpha Desk", Category: "trading_platform", TargetAudience: "professional trader",
				RelevanceKeywords: []string{"trading", "charts"}},
			{ID: "t2", Title: "Beta Desk", Category: "trading_platform", TargetAudience: "professional trader",
				RelevanceKeywords: []string{"trading", "alerts"}},
			{ID: "t3", Title: "Gamma Desk", Category: "trading_platform", TargetAudience: "professional trader",
				RelevanceKeywords: []string{"trading", "orders"}},
			{ID: "t4", Title: "Delta Desk", Category: "trading_platform", TargetAudience: "professional trader",
				RelevanceKeywords: []string{"trading", "scanner"}},
		}},
		{Key: GroupInvestmentPlatforms, Ads: []models.AdCandidate{
			{ID: "i1", Title: "Long Haul", Category: "investment_platform", TargetAudience: "individual investor",
				RelevanceKeywords: []string{"investing", "portfolio"}},
		}},
	})
}

func TestScoreAllKeywordMatching(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	scored, err := s.ScoreAll(models.ArticleContext{
		Keywords: []string{"trading", "chart"}, // "chart" is a substring of "charts"
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// t1 matches both keywords: 2/2 * 40 = 40.
	top := scored[0]
	if top.Ad.ID != "t1" || top.KeywordScore != 40 {
		t.Fatalf("expected t1 with keyword score 40, got %s %.1f", top.Ad.ID, top.KeywordScore)
	}
	// i1 matches nothing.
	last := scored[len(scored)-1]
	if last.Ad.ID != "i1" || last.Score != 0 {
		t.Fatalf("expected i1 with score 0 last, got %s %.1f", last.Ad.ID, last.Score)
	}
}

func TestScoreAllTargetAndSeverity(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	scored, err := s.ScoreAll(models.ArticleContext{
		InvestorType: "professional trader",
		Severity:     models.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, sa := range scored {
		if sa.Ad.Category != "trading_platform" {
			continue
		}
		if sa.TargetScore != 30 {
			t.Fatalf("%s: expected target score 30, got %.1f", sa.Ad.ID, sa.TargetScore)
		}
		if sa.SeverityBonus != 10 {
			t.Fatalf("%s: expected severity bonus 10, got %.1f", sa.Ad.ID, sa.SeverityBonus)
		}
	}
}

func TestScoreAllInterestScore(t *testing.T) {
	s := NewScorer(testCatalog(), nil)

	// Exact group-key match, underscores stripped: "tradingtools" != "trading",
	// so "trading_tools" area gives 20 while "trading" only substring-matches
	// the category for 15.
	scored, err := s.ScoreAll(models.ArticleContext{InterestAreas: []string{"trading_tools"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored[0].InterestScore != 20 {
		t.Fatalf("expected exact interest score 20, got %.1f", scored[0].InterestScore)
	}

	scored, err = s.ScoreAll(models.ArticleContext{InterestAreas: []string{"trading"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored[0].InterestScore != 15 {
		t.Fatalf("expected substring interest score 15, got %.1f", scored[0].InterestScore)
	}
}

func TestScoreAllStableTieOrder(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	scored, err := s.ScoreAll(models.ArticleContext{Keywords: []string{"trading"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// All four trading ads tie at 20; catalog order must hold.
	want := []string{"t1", "t2", "t3", "t4", "i1"}
	for i, sa := range scored {
		if sa.Ad.ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], sa.Ad.ID)
		}
	}
}

func TestScoreAllRejectsEmptyKeywordList(t *testing.T) {
	catalog := NewCatalog([]Group{
		{Key: GroupTradingTools, Ads: []models.AdCandidate{
			{ID: "bad", Title: "Broken", Category: "trading_platform"},
		}},
	})
	s := NewScorer(catalog, nil)
	if _, err := s.ScoreAll(models.ArticleContext{}); err == nil {
		t.Fatalf("expected error for ad without relevance keywords")
	}
}

func TestSelectTopDiversityCap(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	scored, err := s.ScoreAll(models.ArticleContext{
		InvestorType: "professional trader",
		Severity:     models.SeverityCritical,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	top := SelectTop(scored, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 ads, got %d", len(top))
	}
	count := map[string]int{}
	for _, sa := range top {
		count[sa.Ad.Category]++
	}
	if count["trading_platform"] != 2 {
		t.Fatalf("expected max 2 trading_platform ads, got %d", count["trading_platform"])
	}
	if count["investment_platform"] != 1 {
		t.Fatalf("expected investment_platform backfill, got %v", count)
	}
}

func TestSelectTopBackfillIgnoresCap(t *testing.T) {
	// Only one category exists: cap admits 2, backfill must still reach k.
	catalog := NewCatalog([]Group{
		{Key: GroupTradingTools, Ads: []models.AdCandidate{
			{ID: "t1", Title: "A", Category: "trading_platform", RelevanceKeywords: []string{"x"}},
			{ID: "t2", Title: "B", Category: "trading_platform", RelevanceKeywords: []string{"x"}},
			{ID: "t3", Title: "C", Category: "trading_platform", RelevanceKeywords: []string{"x"}},
		}},
	})
	s := NewScorer(catalog, nil)
	scored, err := s.ScoreAll(models.ArticleContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	top := SelectTop(scored, 3)
	if len(top) != 3 {
		t.Fatalf("expected backfill to 3, got %d", len(top))
	}
}

func TestSelectTopShortCatalog(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	scored, _ := s.ScoreAll(models.ArticleContext{})
	top := SelectTop(scored, 100)
	if len(top) != 5 {
		t.Fatalf("expected all 5 candidates, never padded, got %d", len(top))
	}
}

func TestEnrichRescaleAndRank(t *testing.T) {
	s := NewScorer(testCatalog(), nil)
	actx := models.ArticleContext{
		Symbol:       "AAPL",
		Keywords:     []string{"trading", "charts"},
		InvestorType: "professional trader",
		Severity:     models.SeverityHigh,
	}
	scored, err := s.ScoreAll(actx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	enriched := s.Enrich(SelectTop(scored, 3), actx)
	if len(enriched) != 3 {
		t.Fatalf("expected 3 enriched ads, got %d", len(enriched))
	}
	for i, ea := range enriched {
		if ea.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, ea.Rank)
		}
	}
	// t1: keyword 40 + target 30 + bonus 10 = 80 raw -> 8.0 display.
	if enriched[0].Ad.ID != "t1" || enriched[0].RelevanceScore != 8.0 {
		t.Fatalf("expected t1 at 8.0, got %s %.1f", enriched[0].Ad.ID, enriched[0].RelevanceScore)
	}
	if enriched[0].KeywordRelevance != 10.0 {
		t.Fatalf("expected keyword relevance 40/4=10.0, got %.1f", enriched[0].KeywordRelevance)
	}
	if enriched[0].AudienceMatch != 10.0 {
		t.Fatalf("expected audience match 30/3=10.0, got %.1f", enriched[0].AudienceMatch)
	}
	if enriched[0].TrackingURL != "https://ads.example.com/click?ad_id=Alpha_Desk&article_symbol=AAPL" {
		t.Fatalf("unexpected tracking url %q", enriched[0].TrackingURL)
	}
}
