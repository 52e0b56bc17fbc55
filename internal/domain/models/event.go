package models

import "time"

type EventType string

const (
	EventPriceSpike     EventType = "price_spike"
	EventPriceDrop      EventType = "price_drop"
	EventVolumeSpike    EventType = "volume_spike"
	EventHighVolatility EventType = "high_volatility"
	EventDailyUpdate    EventType = "daily_update" // fallback when nothing else fired
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities for sorting. Unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Event is a discrete, explainable trigger derived from a snapshot.
// Created once per detection pass, never mutated afterwards.
type Event struct {
	Symbol        string
	Name          string
	Type          EventType
	Severity      Severity
	Conditions    []string // detection order: price, volume, trend, 52-week, volatility
	Title         string
	Description   string
	CurrentPrice  float64
	ChangePercent float64
	Volume        int64
	Timestamp     time.Time
}
