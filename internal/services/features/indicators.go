package features

// SMA returns the simple moving average of the last window values.
// When fewer values than window are available it averages what exists;
// an empty input yields 0.
func SMA(values []float64, window int) float64 {
	if len(values) == 0 || window <= 0 {
		return 0
	}
	if window > len(values) {
		window = len(values)
	}
	var sum float64
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// TrailingAverageVolume averages all volumes except the most recent one,
// so a spike in the current session does not inflate its own baseline.
func TrailingAverageVolume(volumes []int64) int64 {
	if len(volumes) < 2 {
		if len(volumes) == 1 {
			return volumes[0]
		}
		return 0
	}
	trailing := volumes[:len(volumes)-1]
	var sum int64
	for _, v := range trailing {
		sum += v
	}
	return sum / int64(len(trailing))
}

// ChangePercent returns the percentage move from previous to current.
// A non-positive previous value yields 0 to avoid division blowups.
func ChangePercent(current, previous float64) float64 {
	if previous <= 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

// IntradayRangePercent expresses the session high-low span relative to
// the current price.
func IntradayRangePercent(high, low, price float64) float64 {
	if price <= 0 || high <= low {
		return 0
	}
	return (high - low) / price * 100
}
