package yahoo

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

const chartFixture = `{
  "chart": {
    "result": [{
      "meta": {
        "symbol": "AAPL",
        "shortName": "Apple Inc.",
        "regularMarketPrice": 110.0,
        "previousClose": 100.0,
        "regularMarketVolume": 9000,
        "regularMarketDayHigh": 112.0,
        "regularMarketDayLow": 105.0,
        "fiftyTwoWeekHigh": 120.0,
        "fiftyTwoWeekLow": 80.0
      },
      "timestamp": [1756166400, 1756252800, 1756339200, 1756425600],
      "indicators": {
        "quote": [{
          "open":   [100.0, 101.0, 102.0, 106.0],
          "high":   [101.0, 102.0, 103.0, 112.0],
          "low":    [99.0, 100.0, 101.0, 105.0],
          "close":  [100.0, 101.0, 102.0, 110.0],
          "volume": [1000, 1200, 800, 9000]
        }]
      }
    }],
    "error": null
  }
}`

func decodeFixture(t *testing.T, raw string) *chartResult {
	t.Helper()
	var resp chartResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	if len(resp.Chart.Result) != 1 {
		t.Fatalf("expected 1 chart result, got %d", len(resp.Chart.Result))
	}
	return &resp.Chart.Result[0]
}

func TestBuildSnapshotDerivesIndicators(t *testing.T) {
	res := decodeFixture(t, chartFixture)
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	snap, bars, err := buildSnapshot(res, "AAPL", 2, 4, now)
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}

	if snap.Symbol != "AAPL" || snap.Name != "Apple Inc." {
		t.Fatalf("identity fields = %q / %q", snap.Symbol, snap.Name)
	}
	if snap.CurrentPrice != 110.0 || snap.PreviousPrice != 100.0 {
		t.Fatalf("prices = %v / %v", snap.CurrentPrice, snap.PreviousPrice)
	}
	if math.Abs(snap.ChangePercent-10.0) > 1e-9 {
		t.Fatalf("ChangePercent = %v, want 10", snap.ChangePercent)
	}
	if snap.Volume != 9000 {
		t.Fatalf("Volume = %d, want 9000", snap.Volume)
	}
	// Trailing average excludes the final (current) bar.
	if snap.AverageVolume != 1000 {
		t.Fatalf("AverageVolume = %d, want 1000", snap.AverageVolume)
	}
	if math.Abs(snap.SMAShort-106.0) > 1e-9 {
		t.Fatalf("SMAShort = %v, want 106", snap.SMAShort)
	}
	if math.Abs(snap.SMALong-103.25) > 1e-9 {
		t.Fatalf("SMALong = %v, want 103.25", snap.SMALong)
	}
	if snap.High52W != 120.0 || snap.Low52W != 80.0 {
		t.Fatalf("52w range = %v / %v", snap.High52W, snap.Low52W)
	}
	if snap.High24H != 112.0 || snap.Low24H != 105.0 {
		t.Fatalf("day range = %v / %v", snap.High24H, snap.Low24H)
	}
	if !snap.ObservedAt.Equal(now) {
		t.Fatalf("ObservedAt = %v", snap.ObservedAt)
	}

	if len(bars) != 4 {
		t.Fatalf("bars = %d, want 4", len(bars))
	}
	first := bars[0]
	if first.Symbol != "AAPL" || first.Close != 100.0 || first.Volume != 1000 {
		t.Fatalf("first bar = %+v", first)
	}
	if !first.TS.Equal(time.Unix(1756166400, 0).UTC()) {
		t.Fatalf("first bar timestamp = %v", first.TS)
	}
}

func TestBuildSnapshotSkipsNullCloses(t *testing.T) {
	res := decodeFixture(t, chartFixture)
	// Yahoo reports holiday slots as zero closes; they must be dropped.
	res.Indicators.Quote[0].Close[1] = 0

	_, bars, err := buildSnapshot(res, "AAPL", 2, 4, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("bars = %d, want 3", len(bars))
	}
}

func TestBuildSnapshotFallbacks(t *testing.T) {
	res := decodeFixture(t, chartFixture)
	res.Meta.ShortName = ""
	res.Meta.PreviousClose = 0
	res.Meta.ChartPreviousClose = 0
	res.Meta.RegularMarketVolume = 0
	res.Meta.RegularMarketDayHigh = 0
	res.Meta.RegularMarketDayLow = 0

	snap, _, err := buildSnapshot(res, "AAPL", 2, 4, time.Now().UTC())
	if err != nil {
		t.Fatalf("buildSnapshot: %v", err)
	}
	if snap.Name != "AAPL" {
		t.Fatalf("Name = %q, want symbol fallback", snap.Name)
	}
	// Previous close falls back to the second-to-last bar.
	if snap.PreviousPrice != 102.0 {
		t.Fatalf("PreviousPrice = %v, want 102", snap.PreviousPrice)
	}
	if snap.Volume != 9000 {
		t.Fatalf("Volume = %d, want last bar volume", snap.Volume)
	}
	if snap.High24H != 112.0 || snap.Low24H != 105.0 {
		t.Fatalf("day range fallback = %v / %v", snap.High24H, snap.Low24H)
	}
}

func TestBuildSnapshotRejectsEmptySeries(t *testing.T) {
	res := decodeFixture(t, chartFixture)
	res.Meta.RegularMarketPrice = 0
	if _, _, err := buildSnapshot(res, "AAPL", 2, 4, time.Now().UTC()); err == nil {
		t.Fatal("expected error without market price")
	}

	res = decodeFixture(t, chartFixture)
	res.Timestamp = nil
	if _, _, err := buildSnapshot(res, "AAPL", 2, 4, time.Now().UTC()); err == nil {
		t.Fatal("expected error without bars")
	}
}
