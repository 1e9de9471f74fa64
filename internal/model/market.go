package model

import "time"

// PricePoint is a single observed quote. High and Low are set when the
// point came from a historical bar and are zero for plain quotes.
type PricePoint struct {
	Price float64
	High  float64
	Low   float64
	Time  time.Time
}

// Range returns the high and low of the point, falling back to Price for
// plain quotes.
func (p PricePoint) Range() (high, low float64) {
	if p.High == 0 && p.Low == 0 {
		return p.Price, p.Price
	}
	return p.High, p.Low
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Closes extracts the close prices of bars.
func Closes(bars []OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
