package ads

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"MarketWire/internal/domain/models"
	applogger "MarketWire/pkg/logger"
)

// Scorer computes multi-factor relevance scores for every catalog ad.
// Stateless per call; the catalog is read-only after construction.
type Scorer struct {
	catalog *Catalog
	l       *applogger.Logger
}

func NewScorer(catalog *Catalog, l *applogger.Logger) *Scorer {
	return &Scorer{catalog: catalog, l: l}
}

// ScoreAll scores every candidate and returns them sorted descending by
// total score, stable (catalog order breaks ties). The total is the plain
// sum of the four weighted sub-scores; it is not capped at 100.
func (s *Scorer) ScoreAll(actx models.ArticleContext) ([]models.ScoredAd, error) {
	entries := s.catalog.All()
	scored := make([]models.ScoredAd, 0, len(entries))

	for _, entry := range entries {
		ad := entry.Ad
		if len(ad.RelevanceKeywords) == 0 {
			return nil, fmt.Errorf("ad %q has no relevance keywords", ad.Title)
		}

		// 1. keyword matching (weight 40): a catalog keyword matches when
		// any context keyword is a case-insensitive substring of it.
		matches := 0
		for _, adKw := range ad.RelevanceKeywords {
			lower := strings.ToLower(adKw)
			for _, ctxKw := range actx.Keywords {
				if ctxKw != "" && strings.Contains(lower, ctxKw) {
					matches++
					break
				}
			}
		}
		keywordScore := float64(matches) / float64(len(ad.RelevanceKeywords)) * 40

		// 2. investor type (weight 30): binary, no partial credit.
		targetScore := 0.0
		if actx.InvestorType != "" && strings.Contains(ad.TargetAudience, actx.InvestorType) {
			targetScore = 30
		}

		// 3. interest areas (weight 20 exact on group key, 15 substring on category).
		interestScore := 0.0
		groupFlat := strings.ReplaceAll(entry.Group, "_", "")
		for _, area := range actx.InterestAreas {
			if strings.ReplaceAll(area, "_", "") == groupFlat {
				interestScore = 20
				break
			}
		}
		if interestScore == 0 {
			for _, area := range actx.InterestAreas {
				if area != "" && strings.Contains(ad.Category, area) {
					interestScore = 15
					break
				}
			}
		}

		// 4. severity bonus (weight 10) for trading/platform ads on big moves.
		severityBonus := 0.0
		if actx.Severity == models.SeverityHigh || actx.Severity == models.SeverityCritical {
			if strings.Contains(ad.Category, "trading") || strings.Contains(ad.Category, "platform") {
				severityBonus = 10
			}
		}

		scored = append(scored, models.ScoredAd{
			Ad:            ad,
			Group:         entry.Group,
			Score:         keywordScore + targetScore + interestScore + severityBonus,
			KeywordScore:  keywordScore,
			TargetScore:   targetScore,
			InterestScore: interestScore,
			SeverityBonus: severityBonus,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored, nil
}

// SelectTop walks the scored list greedily, admitting at most two ads per
// category, then backfills from the remainder in score order ignoring the
// cap. Never pads beyond the catalog.
func SelectTop(scored []models.ScoredAd, k int) []models.ScoredAd {
	if k <= 0 {
		return nil
	}

	selected := make([]models.ScoredAd, 0, k)
	taken := make([]bool, len(scored))
	perCategory := make(map[string]int)

	for i, sa := range scored {
		if len(selected) >= k {
			break
		}
		if perCategory[sa.Ad.Category] < 2 {
			selected = append(selected, sa)
			perCategory[sa.Ad.Category]++
			taken[i] = true
		}
	}

	for i, sa := range scored {
		if len(selected) >= k {
			break
		}
		if !taken[i] {
			selected = append(selected, sa)
			taken[i] = true
		}
	}

	return selected
}

// Enrich turns selected ads into display-ready records: 1-based rank,
// scores rescaled to a 0-10 display scale (not clamped), a personalized
// message and a deterministic tracking URL.
func (s *Scorer) Enrich(selected []models.ScoredAd, actx models.ArticleContext) []models.EnrichedAd {
	out := make([]models.EnrichedAd, 0, len(selected))
	for i, sa := range selected {
		out = append(out, models.EnrichedAd{
			Ad:                  sa.Ad,
			Rank:                i + 1,
			RelevanceScore:      round1(sa.Score / 10),
			PersonalizedMessage: personalizedMessage(actx.InvestorType, actx.Symbol),
			TrackingURL:         trackingURL(sa.Ad.Title, actx.Symbol),
			KeywordRelevance:    round1(sa.KeywordScore / 4),
			AudienceMatch:       round1(sa.TargetScore / 3),
			InterestAlignment:   round1(sa.InterestScore / 2),
		})
	}
	return out
}

func personalizedMessage(investorType, symbol string) string {
	switch investorType {
	case "professional trader":
		return fmt.Sprintf("Interested in %s analysis? Check out these advanced tools built for professional traders.", symbol)
	case "technical analysis investor":
		return fmt.Sprintf("Don't miss %s's technical patterns. Need sharper analysis tools?", symbol)
	case "value investor":
		return fmt.Sprintf("Expert information to support your fundamental analysis of %s.", symbol)
	default:
		return fmt.Sprintf("Interested in %s? This service is easy to start with, even for beginners.", symbol)
	}
}

func trackingURL(title, symbol string) string {
	return "https://ads.example.com/click?ad_id=" +
		strings.ReplaceAll(title, " ", "_") + "&article_symbol=" + symbol
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
