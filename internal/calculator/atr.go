package calculator

import (
	"math"

	"FXSentinel/internal/model"
)

// TrueRange of bar given the previous close.
func TrueRange(bar model.OHLCV, prevClose float64) float64 {
	return math.Max(bar.High-bar.Low, math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}

// ATR returns the mean of the last period true ranges. The first bar has
// no previous close, so its range is high - low. Empty input gives 0.
func ATR(bars []model.OHLCV, period int) float64 {
	n := len(bars)
	if n == 0 {
		return 0
	}
	if period <= 0 || period > n {
		period = n
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		if i == 0 {
			sum += bars[0].High - bars[0].Low
			continue
		}
		sum += TrueRange(bars[i], bars[i-1].Close)
	}
	return sum / float64(period)
}
