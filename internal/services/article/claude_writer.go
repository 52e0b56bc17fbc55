package article

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
	applogger "MarketWire/pkg/logger"
)

const systemPrompt = `You are an objective financial journalist. Write short, factual market
news in neutral language. Report only the numbers you are given; never
give investment advice, buy recommendations or sell recommendations.`

// ClaudeWriter drafts articles through the Anthropic API. Errors are
// returned to the caller, which falls back to the template writer.
type ClaudeWriter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	l         *applogger.Logger
}

func NewClaudeWriter(apiKey, model string, maxTokens int, timeout time.Duration, l *applogger.Logger) *ClaudeWriter {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClaudeWriter{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: int64(maxTokens),
		timeout:   timeout,
		l:         l,
	}
}

func (w *ClaudeWriter) Write(ctx context.Context, e models.Event, snap *models.MarketSnapshot) (models.Article, error) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	resp, err := w.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(w.model),
		MaxTokens: w.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt(e, snap))),
		},
	})
	if err != nil {
		return models.Article{}, fmt.Errorf("claude message: %w", err)
	}

	text := collectText(resp.Content)
	if text == "" {
		return models.Article{}, fmt.Errorf("claude returned no text content")
	}

	a := parseSections(text)
	a.ID = uuid.NewString()
	a.Symbol = e.Symbol
	a.WrittenBy = models.WriterClaude
	a.CreatedAt = time.Now()
	if a.Title == "" || a.Body == "" {
		return models.Article{}, fmt.Errorf("claude response missing title or body")
	}
	if len(a.Tags) == 0 {
		a.Tags = []string{e.Symbol, string(e.Type)}
	}
	if w.l != nil {
		w.l.Debug("claude article drafted",
			applogger.String("symbol", e.Symbol),
			applogger.Int("body_len", len(a.Body)),
		)
	}
	return a, nil
}

// collectText concatenates the text blocks of a response. Thinking and
// tool-use blocks are skipped.
func collectText(blocks []anthropic.ContentBlockUnion) string {
	var text strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return text.String()
}

func userPrompt(e models.Event, snap *models.MarketSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a short news article about this market event.\n\n")
	fmt.Fprintf(&b, "Symbol: %s (%s)\n", e.Symbol, e.Name)
	fmt.Fprintf(&b, "Event: %s, severity %s\n", e.Type, e.Severity)
	fmt.Fprintf(&b, "Price: %.2f, change %+.2f%%, volume %d\n", e.CurrentPrice, e.ChangePercent, e.Volume)
	if len(e.Conditions) > 0 {
		fmt.Fprintf(&b, "Triggers: %s\n", strings.Join(e.Conditions, ", "))
	}
	if snap != nil {
		if snap.AverageVolume > 0 {
			fmt.Fprintf(&b, "Average volume: %d\n", snap.AverageVolume)
		}
		if snap.High52W > 0 && snap.Low52W > 0 {
			fmt.Fprintf(&b, "52-week range: %.2f - %.2f\n", snap.Low52W, snap.High52W)
		}
	}
	b.WriteString(`
Respond in exactly this format:
TITLE: <headline>
LEAD: <2-3 sentence summary>
BODY: <main text, 2-3 paragraphs>
CONCLUSION: <takeaway without investment advice>
TAGS: <comma-separated tags>`)
	return b.String()
}

// parseSections splits a TITLE:/LEAD:/BODY:/CONCLUSION:/TAGS: response
// into article fields. Unknown leading text is ignored.
func parseSections(text string) models.Article {
	var a models.Article
	section := ""
	var buf []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		switch section {
		case "TITLE":
			a.Title = content
		case "LEAD":
			a.Lead = content
		case "BODY":
			a.Body = content
		case "CONCLUSION":
			a.Conclusion = content
		case "TAGS":
			for _, t := range strings.Split(content, ",") {
				if t = strings.TrimSpace(t); t != "" {
					a.Tags = append(a.Tags, t)
				}
			}
		}
		buf = buf[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		matched := false
		for _, name := range []string{"TITLE", "LEAD", "BODY", "CONCLUSION", "TAGS"} {
			if rest, ok := strings.CutPrefix(strings.TrimSpace(line), name+":"); ok {
				flush()
				section = name
				buf = append(buf, rest)
				matched = true
				break
			}
		}
		if !matched && section != "" {
			buf = append(buf, line)
		}
	}
	flush()
	return a
}

var _ domsvc.ArticleWriter = (*ClaudeWriter)(nil)
