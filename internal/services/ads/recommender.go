package ads

import (
	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
	applogger "MarketWire/pkg/logger"
)

// defaultGroups feed the degraded-mode list, one ad per group, in order.
var defaultGroups = []string{GroupInvestmentPlatforms, GroupTradingTools, GroupFinancialEducation}

// Recommender is the full analyze -> score -> select -> enrich pipeline.
// Any failure along the way degrades to a fixed default list instead of
// surfacing an error; the output is always deterministic.
type Recommender struct {
	catalog *Catalog
	scorer  *Scorer
	l       *applogger.Logger
	k       int
}

type RecommenderOption func(*Recommender)

// WithTopK overrides how many ads Recommend returns.
func WithTopK(k int) RecommenderOption {
	return func(r *Recommender) {
		if k > 0 {
			r.k = k
		}
	}
}

func NewRecommender(catalog *Catalog, l *applogger.Logger, opts ...RecommenderOption) *Recommender {
	r := &Recommender{
		catalog: catalog,
		scorer:  NewScorer(catalog, l),
		l:       l,
		k:       3,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend returns the top-k enriched ads for an article.
func (r *Recommender) Recommend(a models.Article, e models.Event) []models.EnrichedAd {
	return r.RecommendK(a, e, r.k)
}

// RecommendK is Recommend with an explicit result size.
func (r *Recommender) RecommendK(a models.Article, e models.Event, k int) (result []models.EnrichedAd) {
	if k <= 0 {
		k = r.k
	}
	defer func() {
		if rec := recover(); rec != nil {
			if r.l != nil {
				r.l.Error("ads: scoring panic, serving defaults", applogger.Any("panic", rec))
			}
			result = r.DefaultAds()
		}
	}()

	actx := AnalyzeArticle(a, e)
	scored, err := r.scorer.ScoreAll(actx)
	if err != nil {
		if r.l != nil {
			r.l.Error("ads: scoring failed, serving defaults", applogger.Error(err))
		}
		return r.DefaultAds()
	}
	return r.scorer.Enrich(SelectTop(scored, k), actx)
}

// DefaultAds is the degraded-mode output: the first ad of each of three
// fixed groups, relevance 5.0, ranks 1..3.
func (r *Recommender) DefaultAds() []models.EnrichedAd {
	out := make([]models.EnrichedAd, 0, len(defaultGroups))
	for _, group := range defaultGroups {
		ad, ok := r.catalog.FirstOf(group)
		if !ok {
			continue
		}
		out = append(out, models.EnrichedAd{
			Ad:                  ad,
			Rank:                len(out) + 1,
			RelevanceScore:      5.0,
			PersonalizedMessage: "Interested in investing? Take a look at this service.",
		})
	}
	return out
}

var _ domsvc.AdRecommender = (*Recommender)(nil)
