package service

import (
	"context"

	"MarketWire/internal/domain/models"
)

// ArticleWriter drafts a short news article from an event and its snapshot.
type ArticleWriter interface {
	Write(ctx context.Context, e models.Event, snap *models.MarketSnapshot) (models.Article, error)
}

// ArticleReviewer scores a draft against a fixed rubric.
type ArticleReviewer interface {
	Review(a models.Article, e models.Event) models.Review
}

// AdRecommender ranks catalog ads against an article. Always returns a
// deterministic result; degraded-mode fallback instead of errors.
type AdRecommender interface {
	Recommend(a models.Article, e models.Event) []models.EnrichedAd
}

// Notifier delivers a published bundle to one external channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, b *models.NewsBundle) error
}
