package calculator

import (
	"fmt"
	"sync"

	"FXSentinel/internal/history"
	"FXSentinel/internal/model"
)

// Config holds indicator periods.
type Config struct {
	RSIPeriod        int     `yaml:"rsi_period"`
	FastMA           int     `yaml:"fast_ma"`
	SlowMA           int     `yaml:"slow_ma"`
	MACDFast         int     `yaml:"macd_fast"`
	MACDSlow         int     `yaml:"macd_slow"`
	MACDSignal       int     `yaml:"macd_signal"`
	BollingerPeriod  int     `yaml:"bollinger_period"`
	BollingerK       float64 `yaml:"bollinger_k"`
	StochK           int     `yaml:"stoch_k"`
	StochD           int     `yaml:"stoch_d"`
	ATRPeriod        int     `yaml:"atr_period"`
	MomentumLookback int     `yaml:"momentum_lookback"`
	BarSize          int     `yaml:"bar_size"` // quotes per OHLC bar
}

// DefaultConfig returns the conventional periods.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:        14,
		FastMA:           10,
		SlowMA:           20,
		MACDFast:         12,
		MACDSlow:         26,
		MACDSignal:       9,
		BollingerPeriod:  20,
		BollingerK:       2,
		StochK:           14,
		StochD:           3,
		ATRPeriod:        14,
		MomentumLookback: 4,
		BarSize:          1,
	}
}

// Validate checks that all periods are usable.
func (c Config) Validate() error {
	periods := map[string]int{
		"rsi_period": c.RSIPeriod, "fast_ma": c.FastMA, "slow_ma": c.SlowMA,
		"macd_fast": c.MACDFast, "macd_slow": c.MACDSlow, "macd_signal": c.MACDSignal,
		"bollinger_period": c.BollingerPeriod, "stoch_k": c.StochK, "stoch_d": c.StochD,
		"atr_period": c.ATRPeriod, "momentum_lookback": c.MomentumLookback, "bar_size": c.BarSize,
	}
	for name, p := range periods {
		if p <= 0 {
			return fmt.Errorf("indicators.%s must be positive", name)
		}
	}
	if c.FastMA >= c.SlowMA {
		return fmt.Errorf("indicators.fast_ma must be below slow_ma")
	}
	if c.MACDFast >= c.MACDSlow {
		return fmt.Errorf("indicators.macd_fast must be below macd_slow")
	}
	if c.BollingerK <= 0 {
		return fmt.Errorf("indicators.bollinger_k must be positive")
	}
	return nil
}

// tracker keeps the per-instrument series that indicators smooth over
// successive cycles.
type tracker struct {
	macdLines *history.Ring[float64]
	stochK    *history.Ring[float64]
}

// Engine computes snapshots and owns the per-instrument MACD-line and %K
// series. Compute must be called once per analysis cycle per symbol.
type Engine struct {
	cfg Config

	mu       sync.Mutex
	trackers map[string]*tracker
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg, trackers: make(map[string]*tracker)}
}

// Config returns the engine's periods.
func (e *Engine) Config() Config { return e.cfg }

// MinPoints is the history length at which every indicator is ready.
func (e *Engine) MinPoints() int {
	c := e.cfg
	need := c.MACDSlow
	for _, p := range []int{c.RSIPeriod + 1, c.SlowMA, c.BollingerPeriod, (c.ATRPeriod + 1) * c.BarSize, c.StochK * c.BarSize, c.MomentumLookback + 1} {
		if p > need {
			need = p
		}
	}
	return need
}

func (e *Engine) tracker(symbol string) *tracker {
	t, ok := e.trackers[symbol]
	if !ok {
		// The signal line is re-seeded over whatever the ring holds, so the
		// ring keeps several signal periods for the seed to wash out.
		capacity := e.cfg.MACDSignal * 4
		if capacity < 32 {
			capacity = 32
		}
		t = &tracker{
			macdLines: history.NewRing[float64](capacity),
			stochK:    history.NewRing[float64](e.cfg.StochD),
		}
		e.trackers[symbol] = t
	}
	return t
}

// Compute derives a snapshot from a price window (oldest first).
func (e *Engine) Compute(symbol string, points []model.PricePoint) model.Snapshot {
	c := e.cfg
	prices := history.PricesOf(points)
	bars := history.Aggregate(points, c.BarSize)

	snap := model.Snapshot{
		Points:    len(prices),
		RSI:       RSI(prices, c.RSIPeriod),
		SMA:       map[int]float64{c.FastMA: SMA(prices, c.FastMA), c.SlowMA: SMA(prices, c.SlowMA)},
		EMA:       map[int]float64{c.MACDFast: EMA(prices, c.MACDFast), c.MACDSlow: EMA(prices, c.MACDSlow)},
		Bollinger: Bollinger(prices, c.BollingerPeriod, c.BollingerK),
		ATR:       ATR(bars, c.ATRPeriod),
		Momentum:  Momentum(prices, c.MomentumLookback),
		Ready: model.Readiness{
			RSI:       len(prices) >= c.RSIPeriod+1,
			FastMA:    len(prices) >= c.FastMA,
			SlowMA:    len(prices) >= c.SlowMA,
			Bollinger: len(prices) >= c.BollingerPeriod,
			ATR:       len(bars) >= c.ATRPeriod+1,
			Momentum:  len(prices) >= c.MomentumLookback+1,
		},
		Stochastic: model.StochasticValue{K: NeutralStochastic, D: NeutralStochastic},
	}
	if len(prices) == 0 {
		return snap
	}
	snap.Price = prices[len(prices)-1]

	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.tracker(symbol)

	if len(prices) >= c.MACDSlow {
		t.macdLines.Push(MACDLine(prices, c.MACDFast, c.MACDSlow))
	}
	lines := t.macdLines.Values()
	snap.MACD = MACDFromLines(lines, c.MACDSignal)
	snap.Ready.MACD = len(prices) >= c.MACDSlow && len(lines) >= c.MACDSignal

	k := StochasticK(bars, c.StochK)
	if len(bars) >= c.StochK {
		t.stochK.Push(k)
	}
	ks := t.stochK.Values()
	snap.Stochastic = model.StochasticValue{K: k, D: StochasticD(ks, c.StochD)}
	snap.Ready.Stochastic = len(ks) >= c.StochD

	return snap
}
