package notify

import (
	"context"
	"fmt"
	"strings"

	"MarketWire/internal/domain/models"
	domsvc "MarketWire/internal/domain/service"
	apphttp "MarketWire/pkg/http"
)

// SlackNotifier posts published bundles to a Slack incoming webhook.
type SlackNotifier struct {
	http       *apphttp.Client
	webhookURL string
}

var _ domsvc.Notifier = (*SlackNotifier)(nil)

func NewSlackNotifier(httpClient *apphttp.Client, webhookURL string) *SlackNotifier {
	return &SlackNotifier{http: httpClient, webhookURL: webhookURL}
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Send(ctx context.Context, b *models.NewsBundle) error {
	if s.webhookURL == "" {
		return fmt.Errorf("slack: webhook url not configured")
	}

	payload := map[string]interface{}{
		"text": formatSlackText(b),
	}
	err := s.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodPost,
		URL:    s.webhookURL,
		Body:   payload,
	}, nil)
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

func severityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "\U0001F534"
	case models.SeverityHigh:
		return "\U0001F7E0"
	case models.SeverityMedium:
		return "\U0001F7E1"
	case models.SeverityLow:
		return "\U0001F7E2"
	}
	return "⚪"
}

func formatSlackText(b *models.NewsBundle) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s *%s* [%s/%s]\n", severityEmoji(b.Event.Severity), b.Article.Title, b.Event.Type, b.Event.Severity)
	if b.Article.Lead != "" {
		sb.WriteString(b.Article.Lead)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Price: %.2f (%+.1f%%)", b.Event.CurrentPrice, b.Event.ChangePercent)
	if len(b.Event.Conditions) > 0 {
		fmt.Fprintf(&sb, " | %s", strings.Join(b.Event.Conditions, ", "))
	}
	return sb.String()
}
