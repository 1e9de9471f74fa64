package backtest

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/model"
	"FXSentinel/internal/risk"
	"FXSentinel/internal/strategy"
)

// washout closes with a BUY at its last close (1.09775).
var washout = []float64{
	1.1, 1.1002, 1.10035, 1.1006, 1.10065, 1.10045, 1.10045, 1.1002, 1.10045, 1.10045, 1.1007,
	1.10095, 1.10115, 1.1009, 1.1009, 1.1007, 1.1002, 1.1006, 1.1007, 1.1008, 1.1012, 1.1008,
	1.101, 1.1009, 1.10085, 1.1013, 1.10105, 1.10085, 1.1004, 1.10055, 1.1003, 1.09995,
	1.09965, 1.0992, 1.0995, 1.09955, 1.09985, 1.0998, 1.1001, 1.1001, 1.0996, 1.0998, 1.0993,
	1.09895, 1.099, 1.09865, 1.09855, 1.09805, 1.09785, 1.09775,
}

var overlapStart = time.Date(2026, 10, 14, 14, 0, 0, 0, time.UTC)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func closesToBars(closes []float64) []model.OHLCV {
	bars := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		bars[i] = model.OHLCV{Time: overlapStart.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func newBacktester(t *testing.T, cfg Config) *Backtester {
	t.Helper()
	bt, err := New(cfg, calculator.DefaultConfig(), strategy.DefaultConfig(), risk.DefaultConfig(), quietLogger())
	require.NoError(t, err)
	return bt
}

func TestRun_TooFewBars(t *testing.T) {
	bt := newBacktester(t, DefaultConfig())
	_, err := bt.Run("EURUSD", closesToBars(washout))
	assert.Error(t, err)
}

func TestRun_TakeProfitThenEnd(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = len(washout) - 1

	bars := closesToBars(washout)
	// Next bar spans the target (1.0985) without touching the stop (1.09725).
	bars = append(bars, model.OHLCV{
		Time: overlapStart.Add(time.Duration(len(washout)) * time.Minute),
		Open: 1.0978, High: 1.0986, Low: 1.0980, Close: 1.0984,
	})

	res, err := newBacktester(t, cfg).Run("EURUSD", bars)
	require.NoError(t, err)
	require.Len(t, res.Trades, 2)

	first := res.Trades[0]
	assert.Equal(t, model.SideBuy, first.Side)
	assert.Equal(t, model.CloseTakeProfit, first.CloseReason)
	assert.InDelta(t, 1.0985, first.Exit, 1e-9, "filled at the target, not the close")
	assert.InDelta(t, 0.75, first.PnL, 1e-6)

	last := res.Trades[1]
	assert.Equal(t, model.CloseBacktestEnd, last.CloseReason)
	assert.InDelta(t, 0, last.PnL, 1e-9)

	assert.Equal(t, 2, res.TotalTrades)
	assert.Equal(t, 1, res.Winning)
	assert.InDelta(t, 50.0, res.WinRate, 1e-9)
	assert.InDelta(t, 10000.75, res.FinalBalance, 1e-6)
	assert.InDelta(t, 0.0075, res.ReturnPct, 1e-6)
	assert.Zero(t, res.MaxDrawdown)
	assert.Equal(t, len(bars), res.Bars)
}

func TestRun_StopsFollowBarRanges(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = len(washout) - 1

	bars := closesToBars(washout)
	for i := range bars {
		bars[i].High += 0.0005
		bars[i].Low -= 0.0005
	}

	res, err := newBacktester(t, cfg).Run("EURUSD", bars)
	require.NoError(t, err)
	require.Len(t, res.Trades, 1)

	// Wider bars widen ATR fourfold; closes alone would give 0.00025.
	atr := calculator.ATR(bars, calculator.DefaultConfig().ATRPeriod)
	require.InDelta(t, 0.001, atr, 1e-9)

	tr := res.Trades[0]
	assert.Equal(t, model.SideBuy, tr.Side)
	assert.InDelta(t, atr, (tr.Entry-tr.StopLoss)/2, 1e-9)
	assert.InDelta(t, 1.09575, tr.StopLoss, 1e-9)
	assert.InDelta(t, 1.10075, tr.TakeProfit, 1e-9)
	assert.Equal(t, model.CloseBacktestEnd, tr.CloseReason)
}

func TestRun_StopWinsInsideOneBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = len(washout) - 1

	bars := closesToBars(washout)
	bars = append(bars, model.OHLCV{
		Time: overlapStart.Add(time.Duration(len(washout)) * time.Minute),
		Open: 1.0978, High: 1.0990, Low: 1.0970, Close: 1.0972,
	})

	res, err := newBacktester(t, cfg).Run("EURUSD", bars)
	require.NoError(t, err)
	require.NotEmpty(t, res.Trades)
	assert.Equal(t, model.CloseStopLoss, res.Trades[0].CloseReason)
	assert.InDelta(t, 1.09725, res.Trades[0].Exit, 1e-9)
	assert.Greater(t, res.MaxDrawdown, 0.0)
}

func TestRun_ClosedSessionNeverTrades(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = 30
	cfg.Session = strategy.SessionClosed

	res, err := newBacktester(t, cfg).Run("EURUSD", closesToBars(washout))
	require.NoError(t, err)
	assert.Empty(t, res.Trades)
	assert.Equal(t, cfg.InitialBalance, res.FinalBalance)
	assert.Zero(t, res.ReturnPct)
}

func TestRun_Deterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Warmup = 30
	bt := newBacktester(t, cfg)

	a, err := bt.Run("EURUSD", closesToBars(washout))
	require.NoError(t, err)
	b, err := bt.Run("EURUSD", closesToBars(washout))
	require.NoError(t, err)

	assert.Equal(t, a.Performance, b.Performance)
	require.Len(t, b.Trades, len(a.Trades))
	for i := range a.Trades {
		assert.Equal(t, a.Trades[i].Entry, b.Trades[i].Entry)
		assert.Equal(t, a.Trades[i].CloseReason, b.Trades[i].CloseReason)
	}
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Warmup = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.InitialBalance = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Session = "TOKYO"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Session = strategy.SessionLondon
	assert.NoError(t, cfg.Validate())
}
