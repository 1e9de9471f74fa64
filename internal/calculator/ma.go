// Package calculator computes technical indicators over price windows.
//
// Every function is total: short or empty input yields a documented neutral
// value instead of an error, so one thin history never stalls the loop.
package calculator

// SMA returns the simple moving average of the last period prices.
// With fewer than period prices it falls back to the latest price, and to 0
// for an empty slice.
func SMA(prices []float64, period int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if period <= 0 || n < period {
		return prices[n-1]
	}
	sum := 0.0
	for i := n - period; i < n; i++ {
		sum += prices[i]
	}
	return sum / float64(period)
}

// EMA returns the exponential moving average seeded with the SMA of the
// first period prices and smoothed with 2/(period+1) over the rest.
// Short input follows the SMA fallback.
func EMA(prices []float64, period int) float64 {
	n := len(prices)
	if n == 0 {
		return 0
	}
	if period <= 0 || n < period {
		return prices[n-1]
	}
	ema := 0.0
	for i := 0; i < period; i++ {
		ema += prices[i]
	}
	ema /= float64(period)

	k := 2.0 / float64(period+1)
	for i := period; i < n; i++ {
		ema = prices[i]*k + ema*(1-k)
	}
	return ema
}
