package ads

import (
	"testing"

	"MarketWire/internal/domain/models"
)

func TestAnalyzeArticleKeywords(t *testing.T) {
	actx := AnalyzeArticle(
		models.Article{
			Title: "AAPL Trading Surge",
			Body:  "Heavy trading volume pushed the market higher. Portfolio managers took profit.",
			Tags:  []string{"Tech", "Earnings"},
		},
		models.Event{Symbol: "AAPL", Type: models.EventPriceSpike},
	)

	want := []string{"aapl", "price_spike", "tech", "earnings"}
	for i, k := range want {
		if actx.Keywords[i] != k {
			t.Fatalf("keyword %d: expected %q, got %q (all: %v)", i, k, actx.Keywords[i], actx.Keywords)
		}
	}
	// financial terms found in body follow the tags
	found := map[string]bool{}
	for _, k := range actx.Keywords {
		found[k] = true
	}
	for _, term := range []string{"trading", "portfolio", "profit", "market"} {
		if !found[term] {
			t.Fatalf("expected financial term %q in keywords %v", term, actx.Keywords)
		}
	}
}

func TestEstimateInvestorTypeBySeverity(t *testing.T) {
	technical := "rsi macd rsi support resistance"
	fundamental := "earnings revenue earnings eps growth rate"

	cases := []struct {
		content  string
		severity models.Severity
		want     string
	}{
		{technical, models.SeverityCritical, "professional trader"},
		{fundamental, models.SeverityHigh, "active investor"},
		{technical, models.SeverityLow, "technical analysis investor"},
		{fundamental, models.SeverityLow, "value investor"},
		{"nothing special here", models.SeverityLow, "general investor"},
	}
	for _, tc := range cases {
		got := estimateInvestorType(tc.content, tc.severity)
		if got != tc.want {
			t.Fatalf("severity=%s content=%q: expected %q, got %q", tc.severity, tc.content, tc.want, got)
		}
	}
}

func TestEstimateInterestAreasFromEventType(t *testing.T) {
	areas := estimateInterestAreas("", nil, models.EventHighVolatility)
	if len(areas) != 2 || areas[0] != "analysis" || areas[1] != "trading" {
		t.Fatalf("expected sorted [analysis trading], got %v", areas)
	}

	areas = estimateInterestAreas("long-term real estate and reit exposure", nil, models.EventDailyUpdate)
	found := map[string]bool{}
	for _, a := range areas {
		found[a] = true
	}
	if !found["investment"] || !found["real_estate"] {
		t.Fatalf("expected investment and real_estate areas, got %v", areas)
	}
}

func TestAnalyzeArticleDeterministic(t *testing.T) {
	a := models.Article{Title: "Volatility watch", Body: "trading analysis news tax"}
	e := models.Event{Symbol: "SPY", Type: models.EventHighVolatility, Severity: models.SeverityMedium}
	first := AnalyzeArticle(a, e)
	second := AnalyzeArticle(a, e)
	if len(first.Keywords) != len(second.Keywords) || len(first.InterestAreas) != len(second.InterestAreas) {
		t.Fatalf("analysis not deterministic: %+v vs %+v", first, second)
	}
	for i := range first.InterestAreas {
		if first.InterestAreas[i] != second.InterestAreas[i] {
			t.Fatalf("interest areas order differs: %v vs %v", first.InterestAreas, second.InterestAreas)
		}
	}
}
