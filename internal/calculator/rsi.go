package calculator

// NeutralRSI is returned when there is not enough history.
const NeutralRSI = 50.0

// RSI computes the relative strength index from the simple mean of gains
// and losses over the most recent period price changes.
// Requires period+1 prices; otherwise returns NeutralRSI.
func RSI(prices []float64, period int) float64 {
	n := len(prices)
	if period <= 0 || n < period+1 {
		return NeutralRSI
	}

	var gains, losses float64
	for i := n - period; i < n; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change // make positive
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)

	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
