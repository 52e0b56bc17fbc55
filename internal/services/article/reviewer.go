package article

import (
	"fmt"
	"math"
	"strings"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
)

// Review weights. Accuracy dominates, engagement matters least.
const (
	weightAccuracy     = 0.30
	weightReadability  = 0.25
	weightCompleteness = 0.20
	weightCompliance   = 0.15
	weightEngagement   = 0.10

	approvalThreshold = 7.0
)

// forbiddenPhrases fail compliance hard: the writer must never advise.
var forbiddenPhrases = []string{
	"investment advice", "buy recommendation", "sell recommendation",
	"you should buy", "you should sell", "guaranteed return",
}

// Reviewer scores a draft against a fixed heuristic rubric. Review never
// blocks publication; the status rides along in the bundle.
type Reviewer struct{}

func NewReviewer() *Reviewer { return &Reviewer{} }

func (r *Reviewer) Review(a models.Article, e models.Event) models.Review {
	var notes []string
	content := a.Lead + " " + a.Body + " " + a.Conclusion
	lower := strings.ToLower(content)
	words := len(strings.Fields(content))

	// Accuracy: the article must carry the event's numbers.
	accuracy := 8.0
	if !strings.Contains(content, fmt.Sprintf("%.2f", e.CurrentPrice)) {
		accuracy -= 1.5
		notes = append(notes, "current price not mentioned")
	}
	if !strings.Contains(content, fmt.Sprintf("%.1f", abs(e.ChangePercent))) {
		accuracy -= 1.5
		notes = append(notes, "change percent not mentioned")
	}
	if !strings.Contains(lower, strings.ToLower(e.Symbol)) && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(e.Symbol)) {
		accuracy -= 2.0
		notes = append(notes, "symbol not mentioned")
	}

	// Readability: length band.
	readability := 8.0
	switch {
	case words < 50:
		readability -= 2.0
		notes = append(notes, fmt.Sprintf("article too short (%d words)", words))
	case words > 1500:
		readability -= 1.0
		notes = append(notes, fmt.Sprintf("article too long (%d words)", words))
	}

	// Completeness: structural sections present.
	completeness := 8.0
	if a.Title == "" {
		completeness -= 2.0
		notes = append(notes, "missing title")
	}
	if a.Lead == "" {
		completeness -= 1.5
		notes = append(notes, "missing lead")
	}
	if a.Conclusion == "" {
		completeness -= 1.5
		notes = append(notes, "missing conclusion")
	}

	// Compliance: advice language is a hard deduction.
	compliance := 9.0
	for _, phrase := range forbiddenPhrases {
		if strings.Contains(lower, phrase) {
			compliance -= 3.0
			notes = append(notes, "advisory language: "+phrase)
		}
	}

	// Engagement: tags and a headline that names the mover.
	engagement := 7.0
	if len(a.Tags) == 0 {
		engagement -= 1.0
		notes = append(notes, "no tags")
	}
	if a.Title != "" && !strings.Contains(strings.ToLower(a.Title), strings.ToLower(e.Symbol)) &&
		(e.Name == "" || !strings.Contains(strings.ToLower(a.Title), strings.ToLower(e.Name))) {
		engagement -= 1.0
		notes = append(notes, "headline does not name the mover")
	}

	accuracy = clamp10(accuracy)
	readability = clamp10(readability)
	completeness = clamp10(completeness)
	compliance = clamp10(compliance)
	engagement = clamp10(engagement)

	total := math.Round((accuracy*weightAccuracy+
		readability*weightReadability+
		completeness*weightCompleteness+
		compliance*weightCompliance+
		engagement*weightEngagement)*10) / 10

	status := models.ReviewApproved
	if total < approvalThreshold {
		status = models.ReviewNeedsRevision
	}

	return models.Review{
		Accuracy:     accuracy,
		Readability:  readability,
		Completeness: completeness,
		Compliance:   compliance,
		Engagement:   engagement,
		Total:        total,
		Status:       status,
		Notes:        notes,
	}
}

func clamp10(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 10 {
		return 10
	}
	return x
}

var _ domsvc.ArticleReviewer = (*Reviewer)(nil)
