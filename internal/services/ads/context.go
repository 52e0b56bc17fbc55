package ads

import (
	"sort"
	"strings"

	"MarketWire/internal/domain/models"
)

// Vocabulary used to derive an ArticleContext from article text.
var (
	financialTerms = []string{
		"investing", "stocks", "trading", "portfolio", "profit", "loss",
		"analysis", "chart", "technical", "fundamental", "market", "economy",
		"cryptocurrency", "bitcoin", "real estate", "bonds", "derivatives",
		"risk", "volatility", "returns", "dividend", "growth stock", "value stock",
	}

	technicalTerms   = []string{"rsi", "macd", "moving average", "bollinger", "support", "resistance"}
	fundamentalTerms = []string{"earnings", "revenue", "net income", "eps", "dividend", "growth rate"}

	areaKeywords = map[string][]string{
		"trading":     {"trade", "trading", "day trading", "swing"},
		"investment":  {"investing", "portfolio", "asset allocation", "long-term"},
		"analysis":    {"analysis", "chart", "indicator", "outlook", "forecast"},
		"education":   {"learning", "education", "basics", "strategy", "beginner"},
		"news":        {"news", "report", "insight", "outlook"},
		"crypto":      {"cryptocurrency", "bitcoin", "blockchain", "digital assets"},
		"real_estate": {"real estate", "reit"},
		"tax":         {"tax", "deduction", "optimization"},
	}
)

// AnalyzeArticle derives keywords, investor type and interest areas from
// an article plus its originating event. Output ordering is deterministic:
// keywords keep first-seen order, interest areas are sorted.
func AnalyzeArticle(a models.Article, e models.Event) models.ArticleContext {
	content := strings.ToLower(a.Body + " " + a.Lead + " " + a.Conclusion)
	title := strings.ToLower(a.Title)

	keywords := make([]string, 0, 8)
	seen := make(map[string]bool)
	add := func(k string) {
		if k == "" || seen[k] {
			return
		}
		seen[k] = true
		keywords = append(keywords, k)
	}

	add(strings.ToLower(e.Symbol))
	add(string(e.Type))
	for _, tag := range a.Tags {
		add(strings.ToLower(tag))
	}
	for _, term := range financialTerms {
		if strings.Contains(content, term) || strings.Contains(title, term) {
			add(term)
		}
	}

	return models.ArticleContext{
		Symbol:        e.Symbol,
		Keywords:      keywords,
		InvestorType:  estimateInvestorType(content, e.Severity),
		InterestAreas: estimateInterestAreas(content, keywords, e.Type),
		Severity:      e.Severity,
	}
}

// estimateInvestorType weighs technical against fundamental vocabulary,
// biased by event severity.
func estimateInvestorType(content string, severity models.Severity) string {
	technical := 0
	for _, t := range technicalTerms {
		technical += strings.Count(content, t)
	}
	fundamental := 0
	for _, t := range fundamentalTerms {
		fundamental += strings.Count(content, t)
	}

	if severity == models.SeverityHigh || severity == models.SeverityCritical {
		if technical > fundamental {
			return "professional trader"
		}
		return "active investor"
	}
	switch {
	case technical > 2:
		return "technical analysis investor"
	case fundamental > 2:
		return "value investor"
	default:
		return "general investor"
	}
}

func estimateInterestAreas(content string, keywords []string, etype models.EventType) []string {
	kwset := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kwset[k] = true
	}

	areas := make(map[string]bool)
	for area, terms := range areaKeywords {
		for _, t := range terms {
			if kwset[t] || strings.Contains(content, t) {
				areas[area] = true
				break
			}
		}
	}

	switch etype {
	case models.EventVolumeSpike:
		areas["trading"] = true
	case models.EventHighVolatility:
		areas["trading"] = true
		areas["analysis"] = true
	}

	out := make([]string, 0, len(areas))
	for a := range areas {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}
