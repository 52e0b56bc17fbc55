package article

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
)

// TemplateWriter drafts deterministic articles from fixed templates, one
// per event type. Used when no LLM key is configured and as the error
// fallback for the Claude writer. Never fails.
type TemplateWriter struct{}

func NewTemplateWriter() *TemplateWriter { return &TemplateWriter{} }

func (w *TemplateWriter) Write(_ context.Context, e models.Event, snap *models.MarketSnapshot) (models.Article, error) {
	name := e.Name
	if name == "" {
		name = e.Symbol
	}

	a := models.Article{
		ID:         uuid.NewString(),
		Symbol:     e.Symbol,
		Title:      templateTitle(e, name),
		Lead:       fmt.Sprintf("%s (%s) moved %+.1f%% to %.2f in the latest session.", name, e.Symbol, e.ChangePercent, e.CurrentPrice),
		Body:       templateBody(e, snap, name),
		Conclusion: "Market conditions can change quickly; investors should weigh these figures against their own research and risk tolerance.",
		Tags:       []string{e.Symbol, string(e.Type), "markets"},
		WrittenBy:  models.WriterTemplate,
		CreatedAt:  time.Now(),
	}
	return a, nil
}

func templateTitle(e models.Event, name string) string {
	switch e.Type {
	case models.EventPriceSpike:
		return fmt.Sprintf("%s Jumps %.1f%% as Buyers Step In", name, abs(e.ChangePercent))
	case models.EventPriceDrop:
		return fmt.Sprintf("%s Slides %.1f%% Under Selling Pressure", name, abs(e.ChangePercent))
	case models.EventVolumeSpike:
		return fmt.Sprintf("%s Sees Unusual Trading Volume", name)
	case models.EventHighVolatility:
		return fmt.Sprintf("%s Swings Through a Volatile Session", name)
	default:
		return fmt.Sprintf("%s Daily Market Update", name)
	}
}

func templateBody(e models.Event, snap *models.MarketSnapshot, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s closed at %.2f, a change of %+.1f%% from the previous session.", name, e.CurrentPrice, e.ChangePercent)
	if e.Volume > 0 {
		fmt.Fprintf(&b, " Trading volume reached %d shares.", e.Volume)
	}
	if snap != nil && snap.AverageVolume > 0 {
		fmt.Fprintf(&b, " That compares with an average of %d over recent sessions.", snap.AverageVolume)
	}
	if len(e.Conditions) > 0 {
		fmt.Fprintf(&b, " Triggers behind the move: %s.", strings.Join(e.Conditions, ", "))
	}
	if snap != nil && snap.High52W > 0 && snap.Low52W > 0 {
		fmt.Fprintf(&b, " The stock has traded between %.2f and %.2f over the past 52 weeks.", snap.Low52W, snap.High52W)
	}
	return b.String()
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

var _ domsvc.ArticleWriter = (*TemplateWriter)(nil)
