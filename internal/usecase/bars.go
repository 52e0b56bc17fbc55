package usecase

import (
	"context"
	"fmt"
	"time"

	"MarketWire/internal/domain/models"
	domrepo "MarketWire/internal/domain/repository"
	xhttp "MarketWire/pkg/http"
)

// BarsUseCase serves historical bar queries from the store.
type BarsUseCase struct {
	store domrepo.BarStore
}

func NewBarsUseCase(store domrepo.BarStore) *BarsUseCase {
	return &BarsUseCase{store: store}
}

type GetBarsParams struct {
	Symbol string
	From   time.Time
	To     time.Time
	Limit  int
}

type GetBarsResult struct {
	Symbol string
	From   time.Time
	To     time.Time
	Count  int
	Bars   []models.Bar
}

func (uc *BarsUseCase) GetBars(ctx context.Context, p GetBarsParams) (*GetBarsResult, error) {
	if uc.store == nil {
		return nil, xhttp.NotFoundError("bar history is not enabled")
	}
	if p.Symbol == "" {
		return nil, xhttp.BadRequestError("symbol is required")
	}
	if p.To.IsZero() {
		p.To = time.Now().UTC()
	}
	if p.From.IsZero() {
		p.From = p.To.AddDate(0, -3, 0)
	}
	if p.From.After(p.To) {
		return nil, xhttp.BadRequestError("from must not be after to")
	}
	if p.Limit <= 0 {
		p.Limit = 500
	}
	if p.Limit > 10000 {
		p.Limit = 10000
	}

	bars, err := uc.store.Query(ctx, p.Symbol, p.From, p.To, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("get bars: %w", err)
	}

	return &GetBarsResult{
		Symbol: p.Symbol,
		From:   p.From,
		To:     p.To,
		Count:  len(bars),
		Bars:   bars,
	}, nil
}
