package detect

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"MarketWire/internal/domain/models"
	applogger "MarketWire/pkg/logger"
)

// Detector turns a batch of market snapshots into ranked events.
// Pure computation over the input map; no I/O, no state between calls.
type Detector struct {
	l *applogger.Logger

	priceThreshold    float64 // abs change percent that fires the price check
	highThreshold     float64
	criticalThreshold float64
	volumeMultiple    float64 // volume > multiple * average fires the volume check
	trendBand         float64 // fraction around the short SMA
	rangeThreshold    float64 // intraday (high-low)/price percent
}

type Option func(*Detector)

// WithPriceThresholds overrides the medium/high/critical breakpoints.
func WithPriceThresholds(medium, high, critical float64) Option {
	return func(d *Detector) {
		if medium > 0 {
			d.priceThreshold = medium
		}
		if high > 0 {
			d.highThreshold = high
		}
		if critical > 0 {
			d.criticalThreshold = critical
		}
	}
}

// WithVolumeMultiple overrides the volume spike multiple.
func WithVolumeMultiple(m float64) Option {
	return func(d *Detector) {
		if m > 0 {
			d.volumeMultiple = m
		}
	}
}

func NewDetector(l *applogger.Logger, opts ...Option) *Detector {
	d := &Detector{
		l:                 l,
		priceThreshold:    3.0,
		highThreshold:     5.0,
		criticalThreshold: 7.0,
		volumeMultiple:    2.0,
		trendBand:         0.02,
		rangeThreshold:    5.0,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect evaluates every snapshot and returns events sorted by severity,
// descending, stable. Symbols are visited in lexical order so ties keep a
// deterministic order between identical calls.
//
// A symbol with no fired condition produces no event. If the entire batch
// is quiet, a single daily_update fallback is emitted for the largest
// absolute mover, so the detector is never silent on non-empty input.
func (d *Detector) Detect(snapshots map[string]models.MarketSnapshot) []models.Event {
	symbols := make([]string, 0, len(snapshots))
	for sym := range snapshots {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	events := make([]models.Event, 0, len(symbols))
	valid := make([]string, 0, len(symbols))

	for _, sym := range symbols {
		snap := snapshots[sym]
		if snap.CurrentPrice <= 0 || snap.PreviousPrice <= 0 {
			if d.l != nil {
				d.l.Warn("detect: malformed snapshot skipped",
					applogger.String("symbol", sym),
					applogger.Any("current_price", snap.CurrentPrice),
					applogger.Any("previous_price", snap.PreviousPrice),
				)
			}
			continue
		}
		valid = append(valid, sym)
		if ev, ok := d.evaluate(sym, snap); ok {
			events = append(events, ev)
		}
	}

	if len(events) == 0 && len(valid) > 0 {
		events = append(events, d.fallback(valid, snapshots))
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Severity.Rank() > events[j].Severity.Rank()
	})
	return events
}

// evaluate runs the condition checks in fixed order: price, volume, trend,
// 52-week proximity, intraday volatility.
func (d *Detector) evaluate(sym string, snap models.MarketSnapshot) (models.Event, bool) {
	change := changePercent(snap)
	abs := change
	if abs < 0 {
		abs = -abs
	}

	var conditions []string
	severity := models.SeverityLow
	priceFired := false
	volumeFired := false
	rangeFired := false

	if abs >= d.priceThreshold {
		priceFired = true
		direction := "surge"
		if change < 0 {
			direction = "drop"
		}
		conditions = append(conditions, fmt.Sprintf("%.1f%% %s", abs, direction))
		switch {
		case abs >= d.criticalThreshold:
			severity = models.SeverityCritical
		case abs >= d.highThreshold:
			severity = models.SeverityHigh
		default:
			severity = models.SeverityMedium
		}
	}

	// Volume only adds an explanation; severity stays price-derived.
	if snap.Volume > 0 && snap.AverageVolume > 0 &&
		float64(snap.Volume) > d.volumeMultiple*float64(snap.AverageVolume) {
		volumeFired = true
		conditions = append(conditions, "volume spike")
	}

	if snap.SMAShort > 0 {
		switch {
		case snap.CurrentPrice > snap.SMAShort*(1+d.trendBand):
			conditions = append(conditions, "short-term uptrend")
		case snap.CurrentPrice < snap.SMAShort*(1-d.trendBand):
			conditions = append(conditions, "short-term downtrend")
		}
	}

	if snap.High52W > 0 && snap.CurrentPrice > 0.95*snap.High52W {
		conditions = append(conditions, "near 52-week high")
	}
	if snap.Low52W > 0 && snap.CurrentPrice < 1.05*snap.Low52W {
		conditions = append(conditions, "near 52-week low")
	}

	if snap.High24H > 0 && snap.Low24H > 0 {
		rangePct := (snap.High24H - snap.Low24H) / snap.CurrentPrice * 100
		if rangePct >= d.rangeThreshold {
			rangeFired = true
			conditions = append(conditions, "high intraday volatility")
		}
	}

	if len(conditions) == 0 {
		return models.Event{}, false
	}

	var etype models.EventType
	switch {
	case priceFired && change >= 0:
		etype = models.EventPriceSpike
	case priceFired:
		etype = models.EventPriceDrop
	case volumeFired:
		etype = models.EventVolumeSpike
	case rangeFired:
		etype = models.EventHighVolatility
	case change < 0:
		etype = models.EventPriceDrop
	default:
		etype = models.EventPriceSpike
	}

	ev := models.Event{
		Symbol:        sym,
		Name:          displayName(sym, snap),
		Type:          etype,
		Severity:      severity,
		Conditions:    conditions,
		CurrentPrice:  snap.CurrentPrice,
		ChangePercent: change,
		Volume:        snap.Volume,
		Timestamp:     observedAt(snap),
	}
	ev.Title = fmt.Sprintf("%s: %s", sym, strings.Join(headConditions(conditions, 2), ", "))
	ev.Description = fmt.Sprintf("%s moved %+.1f%% (%s)",
		ev.Name, change, strings.Join(headConditions(conditions, 3), ", "))
	return ev, true
}

// fallback picks the largest absolute mover among valid symbols and emits
// one low-severity daily_update for it.
func (d *Detector) fallback(valid []string, snapshots map[string]models.MarketSnapshot) models.Event {
	top := valid[0]
	topAbs := -1.0
	for _, sym := range valid {
		abs := changePercent(snapshots[sym])
		if abs < 0 {
			abs = -abs
		}
		if abs > topAbs {
			topAbs = abs
			top = sym
		}
	}

	snap := snapshots[top]
	change := changePercent(snap)
	direction := "rise"
	if change < 0 {
		direction = "fall"
	}
	ev := models.Event{
		Symbol:        top,
		Name:          displayName(top, snap),
		Type:          models.EventDailyUpdate,
		Severity:      models.SeverityLow,
		Conditions:    []string{fmt.Sprintf("%.1f%% %s", topAbs, direction)},
		CurrentPrice:  snap.CurrentPrice,
		ChangePercent: change,
		Volume:        snap.Volume,
		Timestamp:     observedAt(snap),
	}
	ev.Title = fmt.Sprintf("%s daily market update", top)
	ev.Description = fmt.Sprintf("%s moved %+.1f%% (%s)", ev.Name, change, ev.Conditions[0])
	return ev
}

// changePercent prefers the snapshot's derived field and recomputes it
// when absent. Callers guarantee PreviousPrice > 0 here.
func changePercent(snap models.MarketSnapshot) float64 {
	if snap.ChangePercent != 0 {
		return snap.ChangePercent
	}
	return (snap.CurrentPrice - snap.PreviousPrice) / snap.PreviousPrice * 100
}

func displayName(sym string, snap models.MarketSnapshot) string {
	if snap.Name != "" {
		return snap.Name
	}
	return sym
}

func observedAt(snap models.MarketSnapshot) time.Time {
	if !snap.ObservedAt.IsZero() {
		return snap.ObservedAt
	}
	return time.Now()
}

func headConditions(conditions []string, n int) []string {
	if len(conditions) < n {
		return conditions
	}
	return conditions[:n]
}
