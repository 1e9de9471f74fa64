package calculator

import "FXSentinel/internal/model"

// NeutralStochastic is %K for empty input or a flat range.
const NeutralStochastic = 50.0

// StochasticK returns 100·(close - lowestLow)/(highestHigh - lowestLow) over
// the last period bars. A flat range gives NeutralStochastic.
func StochasticK(bars []model.OHLCV, period int) float64 {
	if len(bars) == 0 {
		return NeutralStochastic
	}
	high, low := HighLow(bars, period)
	return 100 * Position(bars[len(bars)-1].Close, high, low)
}

// StochasticD is the simple average of the last dPeriod %K values.
func StochasticD(ks []float64, dPeriod int) float64 {
	if len(ks) == 0 {
		return NeutralStochastic
	}
	if dPeriod <= 0 || len(ks) < dPeriod {
		dPeriod = len(ks)
	}
	sum := 0.0
	for _, k := range ks[len(ks)-dPeriod:] {
		sum += k
	}
	return sum / float64(dPeriod)
}
