package history

import "FXSentinel/internal/model"

// Aggregate groups consecutive points into OHLC bars of size points each.
// A trailing partial group still forms a bar. size <= 1 yields one bar per point.
// Points that carry a bar range keep it.
func Aggregate(points []model.PricePoint, size int) []model.OHLCV {
	if len(points) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	bars := make([]model.OHLCV, 0, (len(points)+size-1)/size)
	var bar model.OHLCV
	for i, p := range points {
		high, low := p.Range()
		if i%size == 0 {
			if i > 0 {
				bars = append(bars, bar)
			}
			bar = model.OHLCV{Time: p.Time, Open: p.Price, High: high, Low: low, Close: p.Price}
			continue
		}
		if high > bar.High {
			bar.High = high
		}
		if low < bar.Low {
			bar.Low = low
		}
		bar.Close = p.Price
	}
	return append(bars, bar)
}
