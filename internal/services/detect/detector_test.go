package detect

import (
	"reflect"
	"testing"
	"time"

	"MarketWire/internal/domain/models"
)

func fixedTime() time.Time {
	return time.Date(2026, 8, 28, 15, 30, 0, 0, time.UTC)
}

func TestDetectEmptyBatch(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{})
	if len(got) != 0 {
		t.Fatalf("expected no events, got %d", len(got))
	}
}

func TestDetectPriceAndVolumeSpike(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"AAPL": {CurrentPrice: 103, PreviousPrice: 100, Volume: 500000, AverageVolume: 200000},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	ev := got[0]
	if ev.Type != models.EventPriceSpike {
		t.Fatalf("expected price_spike, got %s", ev.Type)
	}
	if ev.Severity != models.SeverityMedium {
		t.Fatalf("expected medium severity at exactly 3.0%%, got %s", ev.Severity)
	}
	if len(ev.Conditions) != 2 {
		t.Fatalf("expected price + volume conditions, got %v", ev.Conditions)
	}
	if ev.Conditions[0] != "3.0% surge" {
		t.Fatalf("unexpected price condition %q", ev.Conditions[0])
	}
	if ev.Conditions[1] != "volume spike" {
		t.Fatalf("unexpected second condition %q", ev.Conditions[1])
	}
}

func TestDetectSeverityBreakpoints(t *testing.T) {
	d := NewDetector(nil)
	cases := []struct {
		price float64
		want  models.Severity
	}{
		{104.9, models.SeverityMedium},
		{105, models.SeverityHigh},
		{93, models.SeverityCritical}, // -7.0%
	}
	for _, tc := range cases {
		got := d.Detect(map[string]models.MarketSnapshot{
			"X": {CurrentPrice: tc.price, PreviousPrice: 100},
		})
		if len(got) != 1 {
			t.Fatalf("price %.1f: expected 1 event, got %d", tc.price, len(got))
		}
		if got[0].Severity != tc.want {
			t.Fatalf("price %.1f: expected %s, got %s", tc.price, tc.want, got[0].Severity)
		}
	}
}

func TestDetectPriceDropType(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"TSLA": {CurrentPrice: 94, PreviousPrice: 100},
	})
	if got[0].Type != models.EventPriceDrop {
		t.Fatalf("expected price_drop, got %s", got[0].Type)
	}
	if got[0].Conditions[0] != "6.0% drop" {
		t.Fatalf("unexpected condition %q", got[0].Conditions[0])
	}
}

func TestDetectVolumeSpikeAloneStaysLow(t *testing.T) {
	// A 3x volume spike with a 1% move still classifies low; severity
	// derives from price change alone.
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"NVDA": {CurrentPrice: 101, PreviousPrice: 100, Volume: 600000, AverageVolume: 200000},
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Type != models.EventVolumeSpike {
		t.Fatalf("expected volume_spike, got %s", got[0].Type)
	}
	if got[0].Severity != models.SeverityLow {
		t.Fatalf("expected low severity, got %s", got[0].Severity)
	}
}

func TestDetectTrendConditions(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"UP":   {CurrentPrice: 103, PreviousPrice: 102, SMAShort: 100},
		"DOWN": {CurrentPrice: 97, PreviousPrice: 98, SMAShort: 100},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	for _, ev := range got {
		switch ev.Symbol {
		case "UP":
			if ev.Conditions[0] != "short-term uptrend" {
				t.Fatalf("UP: unexpected conditions %v", ev.Conditions)
			}
		case "DOWN":
			if ev.Conditions[0] != "short-term downtrend" {
				t.Fatalf("DOWN: unexpected conditions %v", ev.Conditions)
			}
		}
	}
}

func TestDetect52WeekProximity(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"HI": {CurrentPrice: 98, PreviousPrice: 97.5, High52W: 100},
		"LO": {CurrentPrice: 52, PreviousPrice: 52.2, Low52W: 50},
	})
	want := map[string]string{"HI": "near 52-week high", "LO": "near 52-week low"}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	for _, ev := range got {
		if ev.Conditions[0] != want[ev.Symbol] {
			t.Fatalf("%s: unexpected conditions %v", ev.Symbol, ev.Conditions)
		}
	}
}

func TestDetectIntradayVolatility(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"V": {CurrentPrice: 100, PreviousPrice: 99, High24H: 104, Low24H: 98},
	})
	if len(got) != 1 || got[0].Type != models.EventHighVolatility {
		t.Fatalf("expected one high_volatility event, got %+v", got)
	}
	if got[0].Conditions[0] != "high intraday volatility" {
		t.Fatalf("unexpected conditions %v", got[0].Conditions)
	}
}

func TestDetectSeverityOrdering(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"A": {CurrentPrice: 103.5, PreviousPrice: 100}, // medium
		"B": {CurrentPrice: 108, PreviousPrice: 100},   // critical
		"C": {CurrentPrice: 105.5, PreviousPrice: 100}, // high
		"D": {CurrentPrice: 103.2, PreviousPrice: 100}, // medium
	})
	if len(got) != 4 {
		t.Fatalf("expected 4 events, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Severity.Rank() > got[i-1].Severity.Rank() {
			t.Fatalf("events out of order at %d: %s after %s", i, got[i].Severity, got[i-1].Severity)
		}
	}
	// ties keep lexical order
	if got[2].Symbol != "A" || got[3].Symbol != "D" {
		t.Fatalf("unstable tie order: %s, %s", got[2].Symbol, got[3].Symbol)
	}
}

func TestDetectIdempotent(t *testing.T) {
	d := NewDetector(nil)
	in := map[string]models.MarketSnapshot{
		"AAPL": {CurrentPrice: 103, PreviousPrice: 100, Volume: 500000, AverageVolume: 200000, ObservedAt: fixedTime()},
		"TSLA": {CurrentPrice: 92, PreviousPrice: 100, ObservedAt: fixedTime()},
	}
	first := d.Detect(in)
	second := d.Detect(in)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("detect is not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestDetectFallbackDailyUpdate(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"TSLA": {CurrentPrice: 100.2, PreviousPrice: 100, Volume: 1000, AverageVolume: 5000},
		"MSFT": {CurrentPrice: 101, PreviousPrice: 100},
	})
	if len(got) != 1 {
		t.Fatalf("expected exactly one fallback event, got %d", len(got))
	}
	ev := got[0]
	if ev.Type != models.EventDailyUpdate {
		t.Fatalf("expected daily_update, got %s", ev.Type)
	}
	if ev.Symbol != "MSFT" {
		t.Fatalf("expected largest mover MSFT, got %s", ev.Symbol)
	}
	if ev.Severity != models.SeverityLow {
		t.Fatalf("expected low severity, got %s", ev.Severity)
	}
	if ev.Conditions[0] != "1.0% rise" {
		t.Fatalf("unexpected condition %q", ev.Conditions[0])
	}
}

func TestDetectNoFallbackWhenAnyEventFired(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"QUIET": {CurrentPrice: 100.1, PreviousPrice: 100},
		"LOUD":  {CurrentPrice: 104, PreviousPrice: 100},
	})
	if len(got) != 1 || got[0].Symbol != "LOUD" {
		t.Fatalf("expected only LOUD event, got %+v", got)
	}
	if got[0].Type == models.EventDailyUpdate {
		t.Fatalf("fallback must not fire when another event exists")
	}
}

func TestDetectSkipsMalformedSnapshot(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"BAD":  {CurrentPrice: 100, PreviousPrice: 0}, // division guard
		"GOOD": {CurrentPrice: 106, PreviousPrice: 100},
	})
	if len(got) != 1 || got[0].Symbol != "GOOD" {
		t.Fatalf("expected only GOOD event, got %+v", got)
	}
}

func TestDetectMalformedExcludedFromFallback(t *testing.T) {
	d := NewDetector(nil)
	got := d.Detect(map[string]models.MarketSnapshot{
		"BAD": {CurrentPrice: 100, PreviousPrice: 0},
	})
	if len(got) != 0 {
		t.Fatalf("expected no events for all-malformed batch, got %+v", got)
	}
}
