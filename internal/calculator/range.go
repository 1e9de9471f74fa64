package calculator

import (
	"math"

	"FXSentinel/internal/model"
)

// HighLow scans the most recent lookback bars and returns the highest high
// and the lowest low. lookback <= 0 scans every bar. Empty input gives 0, 0.
func HighLow(bars []model.OHLCV, lookback int) (high, low float64) {
	n := len(bars)
	if n == 0 {
		return 0, 0
	}
	start := 0
	if lookback > 0 && n > lookback {
		start = n - lookback
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for i := start; i < n; i++ {
		if bars[i].High > high {
			high = bars[i].High
		}
		if bars[i].Low < low {
			low = bars[i].Low
		}
	}
	return high, low
}

// Position returns where price sits within [low, high] as 0.0~1.0.
// A zero-width range is reported as the midpoint, which StochasticK maps
// to NeutralStochastic.
func Position(price, high, low float64) float64 {
	if high <= low {
		return 0.5
	}
	pos := (price - low) / (high - low)
	return math.Max(0, math.Min(1, pos))
}

// Momentum returns the fractional change between the price lookback points
// ago and the latest price. Short input or a zero base gives 0.
func Momentum(prices []float64, lookback int) float64 {
	n := len(prices)
	if lookback <= 0 || n < lookback+1 {
		return 0
	}
	base := prices[n-1-lookback]
	if base == 0 {
		return 0
	}
	return (prices[n-1] - base) / base
}
