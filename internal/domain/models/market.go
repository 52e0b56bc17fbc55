package models

import "time"

// MarketSnapshot is one observation of a symbol's market state.
// Optional fields (AverageVolume, SMAs, 52-week range, intraday range)
// are zero when the upstream source could not provide them; checks that
// depend on them are simply skipped.
type MarketSnapshot struct {
	Symbol        string
	Name          string  // display name, falls back to Symbol
	CurrentPrice  float64 // last traded price
	PreviousPrice float64 // previous session close
	ChangePercent float64 // (current-previous)/previous * 100
	Volume        int64
	AverageVolume int64 // trailing mean over recent sessions, 0 = unknown
	SMAShort      float64
	SMALong       float64
	High52W       float64
	Low52W        float64
	High24H       float64
	Low24H        float64
	ObservedAt    time.Time
}

// Bar is a daily OHLCV record stored for history queries.
type Bar struct {
	Symbol string
	TS     time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}
