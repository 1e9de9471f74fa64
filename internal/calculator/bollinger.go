package calculator

import (
	"math"

	"FXSentinel/internal/model"
)

// Bollinger computes SMA(period) ± k population standard deviations of the
// last period prices. With fewer than period prices the bands collapse onto
// the SMA fallback.
func Bollinger(prices []float64, period int, k float64) model.BollingerBands {
	middle := SMA(prices, period)
	if period <= 0 || len(prices) < period {
		return model.BollingerBands{Upper: middle, Middle: middle, Lower: middle}
	}
	std := StdDev(prices[len(prices)-period:], middle)
	return model.BollingerBands{
		Upper:  middle + k*std,
		Middle: middle,
		Lower:  middle - k*std,
	}
}

// StdDev returns the population standard deviation of window around mean.
func StdDev(window []float64, mean float64) float64 {
	if len(window) == 0 {
		return 0
	}
	variance := 0.0
	for _, p := range window {
		d := p - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(window)))
}
