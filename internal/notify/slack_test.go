package notify

import (
	"strings"
	"testing"

	"MarketWire/internal/domain/models"
)

func TestFormatSlackTextCarriesSeverityEmoji(t *testing.T) {
	cases := []struct {
		sev  models.Severity
		want string
	}{
		{models.SeverityLow, "\U0001F7E2"},
		{models.SeverityMedium, "\U0001F7E1"},
		{models.SeverityHigh, "\U0001F7E0"},
		{models.SeverityCritical, "\U0001F534"},
		{models.Severity("unknown"), "⚪"},
	}
	for _, tc := range cases {
		b := bundleWithSeverity(tc.sev)
		text := formatSlackText(&b)
		if !strings.HasPrefix(text, tc.want+" ") {
			t.Fatalf("severity %q: text %q does not start with %q", tc.sev, text, tc.want)
		}
	}
}

func TestFormatSlackTextIncludesLeadAndConditions(t *testing.T) {
	b := bundleWithSeverity(models.SeverityHigh)
	b.Article.Lead = "Shares rallied after earnings."
	b.Event.CurrentPrice = 231.50
	b.Event.ChangePercent = 5.2
	b.Event.Conditions = []string{"price_change_5.2%", "volume_3.1x"}

	text := formatSlackText(&b)
	for _, want := range []string{
		"*AAPL: 5.2% surge*",
		"Shares rallied after earnings.",
		"Price: 231.50 (+5.2%)",
		"price_change_5.2%, volume_3.1x",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("text %q missing %q", text, want)
		}
	}
}
