package calculator

import "FXSentinel/internal/model"

// MACDLine returns EMA(fast) - EMA(slow). Fewer than slow prices gives 0.
func MACDLine(prices []float64, fast, slow int) float64 {
	if slow <= 0 || len(prices) < slow {
		return 0
	}
	return EMA(prices, fast) - EMA(prices, slow)
}

// MACDFromLines derives signal and histogram from the retained series of
// MACD line values (oldest first, newest is the current line). The signal
// line is the EMA of that series, so it only becomes meaningful once the
// series holds signalPeriod values.
func MACDFromLines(lines []float64, signalPeriod int) model.MACDValue {
	n := len(lines)
	if n == 0 {
		return model.MACDValue{}
	}
	line := lines[n-1]
	signal := EMA(lines, signalPeriod)
	v := model.MACDValue{
		Line:      line,
		Signal:    signal,
		Histogram: line - signal,
	}
	if n > 1 {
		prev := lines[:n-1]
		v.PrevHistogram = prev[len(prev)-1] - EMA(prev, signalPeriod)
	}
	return v
}
