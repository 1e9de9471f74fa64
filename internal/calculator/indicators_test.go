package calculator

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"FXSentinel/internal/model"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func flatBars(prices ...float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(prices))
	for i, p := range prices {
		bars[i] = model.OHLCV{Open: p, High: p, Low: p, Close: p}
	}
	return bars
}

func randomWalk(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	prices := make([]float64, n)
	p := 1.0850
	for i := range prices {
		p += (r.Float64() - 0.5) * 0.002
		prices[i] = p
	}
	return prices
}

func TestSMA(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		period int
		want   float64
	}{
		{"full window", []float64{100, 102, 104, 103, 105}, 3, 104},
		{"exact length", []float64{10, 11, 12, 13, 14}, 5, 12},
		{"short falls back to latest", []float64{1, 2}, 5, 2},
		{"empty", nil, 5, 0},
		{"zero period", []float64{3, 4}, 0, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertClose(t, "SMA", SMA(tt.prices, tt.period), tt.want, 1e-9)
		})
	}
}

func TestSMA_MatchesReferenceLibrary(t *testing.T) {
	prices := randomWalk(7, 120)
	for _, period := range []int{5, 10, 20, 50} {
		ref := helper.ChanToSlice(trend.NewSmaWithPeriod[float64](period).Compute(helper.SliceToChan(prices)))
		if len(ref) == 0 {
			t.Fatalf("reference SMA(%d) produced no values", period)
		}
		assertClose(t, "SMA vs reference", SMA(prices, period), ref[len(ref)-1], 1e-9)
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	// multiplier 0.5; seed (100+102+104)/3 = 102; then 102.5; then 103.75
	assertClose(t, "EMA(3)", EMA([]float64{100, 102, 104, 103, 105}, 3), 103.75, 1e-9)
	assertClose(t, "EMA seed only", EMA([]float64{100, 102, 104}, 3), 102, 1e-9)
	assertClose(t, "EMA short", EMA([]float64{100, 101}, 3), 101, 1e-9)
	if EMA(nil, 3) != 0 {
		t.Error("EMA of empty input should be 0")
	}
}

func TestRSI_HandCalculated(t *testing.T) {
	// changes +1 +1 -1 +1 → avgGain 0.75, avgLoss 0.25 → RS 3 → 75
	assertClose(t, "RSI(4)", RSI([]float64{1, 2, 3, 2, 3}, 4), 75, 1e-9)
}

func TestRSI_InsufficientDataIsNeutral(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != NeutralRSI {
		t.Errorf("expected neutral RSI, got %.2f", got)
	}
	if got := RSI(nil, 14); got != NeutralRSI {
		t.Errorf("expected neutral RSI for empty input, got %.2f", got)
	}
}

func TestRSI_NoLossesIs100(t *testing.T) {
	prices := []float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1.1}
	if got := RSI(prices, 14); got != 100 {
		t.Errorf("expected 100 when avgLoss == 0, got %.2f", got)
	}
	flat := make([]float64, 20)
	if got := RSI(flat, 14); got != 100 {
		t.Errorf("flat window has avgLoss == 0, expected 100, got %.2f", got)
	}
}

func TestRSI_Direction(t *testing.T) {
	rising := []float64{1.0850, 1.0855, 1.0860, 1.0858, 1.0862, 1.0866, 1.0870, 1.0874,
		1.0878, 1.0880, 1.0880, 1.0880, 1.0880, 1.0880, 1.0880, 1.0880}
	if got := RSI(rising, 14); got <= 50 {
		t.Errorf("net gains should give RSI > 50, got %.2f", got)
	}

	falling := make([]float64, len(rising))
	for i := range falling {
		falling[i] = 1.0900 - float64(i)*0.0005
	}
	if got := RSI(falling, 14); got >= 50 {
		t.Errorf("strictly decreasing window should give RSI < 50, got %.2f", got)
	}
}

func TestRSI_AlwaysInRange(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		prices := randomWalk(seed, 60)
		for n := 0; n <= len(prices); n += 7 {
			got := RSI(prices[:n], 14)
			if got < 0 || got > 100 || math.IsNaN(got) {
				t.Fatalf("seed %d n %d: RSI out of range: %f", seed, n, got)
			}
		}
	}
}

func TestMACDLine(t *testing.T) {
	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 1.1
	}
	assertClose(t, "flat MACD", MACDLine(flat, 12, 26), 0, 1e-12)
	if MACDLine(flat[:10], 12, 26) != 0 {
		t.Error("short input should give 0")
	}
	rising := make([]float64, 40)
	for i := range rising {
		rising[i] = 1 + float64(i)*0.01
	}
	if MACDLine(rising, 12, 26) <= 0 {
		t.Error("rising prices should give a positive MACD line")
	}
}

func TestMACDFromLines(t *testing.T) {
	v := MACDFromLines([]float64{1, 2, 3}, 3)
	assertClose(t, "line", v.Line, 3, 1e-12)
	assertClose(t, "signal", v.Signal, 2, 1e-12)
	assertClose(t, "histogram", v.Histogram, 1, 1e-12)
	assertClose(t, "prev histogram", v.PrevHistogram, 0, 1e-12)

	if (MACDFromLines(nil, 9) != model.MACDValue{}) {
		t.Error("empty series should give zero MACD")
	}
}

func TestBollinger(t *testing.T) {
	// mean 5, population σ 2
	b := Bollinger([]float64{2, 4, 4, 4, 5, 5, 7, 9}, 8, 2)
	assertClose(t, "middle", b.Middle, 5, 1e-9)
	assertClose(t, "upper", b.Upper, 9, 1e-9)
	assertClose(t, "lower", b.Lower, 1, 1e-9)

	short := Bollinger([]float64{1.1, 1.2}, 20, 2)
	if short.Upper != 1.2 || short.Lower != 1.2 {
		t.Errorf("short window should collapse onto latest price, got %+v", short)
	}
	if (Bollinger(nil, 20, 2) != model.BollingerBands{}) {
		t.Error("empty window should give zero bands")
	}
}

func TestStochasticK(t *testing.T) {
	if got := StochasticK(flatBars(1.1, 1.1, 1.1, 1.1), 14); got != NeutralStochastic {
		t.Errorf("flat window should give %%K = 50, got %f", got)
	}
	assertClose(t, "top of range", StochasticK(flatBars(1, 2, 3, 4, 5), 5), 100, 1e-9)
	assertClose(t, "bottom of range", StochasticK(flatBars(5, 4, 3, 2, 1), 5), 0, 1e-9)
	assertClose(t, "middle", StochasticK(flatBars(1, 3, 2), 3), 50, 1e-9)
	if StochasticK(nil, 14) != NeutralStochastic {
		t.Error("empty input should be neutral")
	}
}

func TestStochasticD(t *testing.T) {
	assertClose(t, "D", StochasticD([]float64{10, 20, 30, 40}, 3), 30, 1e-9)
	assertClose(t, "D short", StochasticD([]float64{10, 20}, 3), 15, 1e-9)
	if StochasticD(nil, 3) != NeutralStochastic {
		t.Error("empty %K history should be neutral")
	}
}

func TestATR(t *testing.T) {
	// TRs: bar1 |2-1| = 1, bar2 |4-2| = 2
	assertClose(t, "ATR(2)", ATR(flatBars(1, 2, 4), 2), 1.5, 1e-9)
	// first bar contributes high-low = 0
	assertClose(t, "ATR over all", ATR(flatBars(1, 2, 4), 5), 1, 1e-9)

	bars := []model.OHLCV{
		{High: 10, Low: 8, Close: 9},
		{High: 12, Low: 9.5, Close: 11}, // max(2.5, 3, 0.5) = 3
		{High: 11.5, Low: 7, Close: 8},  // max(4.5, 0.5, 4) = 4.5
	}
	assertClose(t, "ATR gaps", ATR(bars, 2), 3.75, 1e-9)
	if ATR(nil, 14) != 0 {
		t.Error("empty input should give 0")
	}
}

func TestHighLowAndPosition(t *testing.T) {
	bars := []model.OHLCV{{High: 5, Low: 1}, {High: 9, Low: 4}, {High: 7, Low: 3}}
	h, l := HighLow(bars, 2)
	if h != 9 || l != 3 {
		t.Errorf("HighLow(2) = %v,%v, want 9,3", h, l)
	}
	h, l = HighLow(bars, 0)
	if h != 9 || l != 1 {
		t.Errorf("HighLow(all) = %v,%v, want 9,1", h, l)
	}
	if Position(5, 5, 5) != 0.5 {
		t.Error("flat range should be midpoint")
	}
	assertClose(t, "position", Position(7.5, 10, 5), 0.5, 1e-9)
	if Position(20, 10, 5) != 1 {
		t.Error("position should clamp to 1")
	}
}

func TestMomentum(t *testing.T) {
	assertClose(t, "momentum", Momentum([]float64{100, 1, 2, 3, 110}, 4), 0.1, 1e-9)
	if Momentum([]float64{1, 2}, 4) != 0 {
		t.Error("short input should give 0")
	}
}
