package model

// MACDValue holds the three MACD outputs.
type MACDValue struct {
	Line      float64
	Signal    float64
	Histogram float64
	// PrevHistogram is the histogram of the previous analysis cycle, used to detect crossovers.
	PrevHistogram float64
}

// BollingerBands is the SMA ± k·σ envelope.
type BollingerBands struct {
	Upper  float64
	Middle float64
	Lower  float64
}

// StochasticValue holds %K and its %D smoothing.
type StochasticValue struct {
	K float64
	D float64
}

// Readiness flags which indicators had enough history to be meaningful.
type Readiness struct {
	RSI        bool
	FastMA     bool
	SlowMA     bool
	MACD       bool
	Bollinger  bool
	Stochastic bool
	ATR        bool
	Momentum   bool
}

// Snapshot holds all indicators computed for one instrument in one cycle.
// Values of indicators that are not ready carry their neutral fallback.
type Snapshot struct {
	Price      float64
	Points     int
	RSI        float64
	SMA        map[int]float64
	EMA        map[int]float64
	MACD       MACDValue
	Bollinger  BollingerBands
	Stochastic StochasticValue
	ATR        float64
	Momentum   float64
	Ready      Readiness
}
