// Package backtest replays historical bars through the live pipeline:
// history, indicators, scoring and sizing, with stops and targets checked
// against each bar's range.
package backtest

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/history"
	"FXSentinel/internal/model"
	"FXSentinel/internal/risk"
	"FXSentinel/internal/strategy"
)

// Config controls a replay.
type Config struct {
	Warmup         int     `yaml:"warmup"`          // bars fed before trading starts
	InitialBalance float64 `yaml:"initial_balance"`
	HistorySize    int     `yaml:"history_size"`    // same window as the live loop

	// Session pins the trading session instead of classifying bar times;
	// useful for daily bars whose timestamps carry no session.
	Session strategy.Session `yaml:"session"`
}

// DefaultConfig returns the default replay settings.
func DefaultConfig() Config {
	return Config{Warmup: 100, InitialBalance: 10000, HistorySize: 200}
}

// Validate checks the replay settings.
func (c Config) Validate() error {
	if c.Warmup < 1 {
		return fmt.Errorf("backtest.warmup must be positive")
	}
	if c.HistorySize < 2 {
		return fmt.Errorf("backtest.history_size must be at least 2")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("backtest.initial_balance must be positive")
	}
	switch c.Session {
	case "", strategy.SessionAsian, strategy.SessionLondon, strategy.SessionOverlap, strategy.SessionNewYork, strategy.SessionClosed:
	default:
		return fmt.Errorf("backtest.session %q is unknown", c.Session)
	}
	return nil
}

// Result summarises a replay.
type Result struct {
	model.Performance
	Symbol string
	Bars   int
	Trades []model.Position
}

// Backtester replays bars with fresh pipeline state on every Run.
type Backtester struct {
	cfg   Config
	ind   calculator.Config
	strat strategy.Config
	risk  risk.Config
	log   logrus.FieldLogger
}

// New creates a Backtester. The risk state file is never touched by a replay.
func New(cfg Config, ind calculator.Config, strat strategy.Config, riskCfg risk.Config, log logrus.FieldLogger) (*Backtester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	riskCfg.StateFile = ""
	return &Backtester{cfg: cfg, ind: ind, strat: strat, risk: riskCfg, log: log.WithField("component", "backtest")}, nil
}

// Run replays bars (oldest first) for symbol.
func (b *Backtester) Run(symbol string, bars []model.OHLCV) (*Result, error) {
	if len(bars) <= b.cfg.Warmup {
		return nil, fmt.Errorf("backtest needs more than %d bars, got %d", b.cfg.Warmup, len(bars))
	}
	sizer, err := risk.NewSizer(b.risk, b.log)
	if err != nil {
		return nil, err
	}
	engine := calculator.NewEngine(b.ind)
	scorer := strategy.NewScorer(b.strat, b.ind)
	store := history.NewStore(b.cfg.HistorySize)

	res := &Result{Symbol: symbol, Bars: len(bars)}
	balance := b.cfg.InitialBalance
	peak := balance
	var open *model.Position

	book := func(p *model.Position, price float64, bar model.OHLCV, reason model.CloseReason) {
		pnl := p.Close(price, bar.Time, reason)
		balance += pnl
		res.Record(pnl)
		res.Trades = append(res.Trades, *p)
		sizer.RecordOutcome(pnl, bar.Time)

		peak = math.Max(peak, balance)
		if dd := (peak - balance) / peak * 100; dd > res.MaxDrawdown {
			res.MaxDrawdown = dd
		}
	}

	for i, bar := range bars {
		store.AppendBar(symbol, bar)
		snap := engine.Compute(symbol, store.Window(symbol, store.Capacity()))
		if i < b.cfg.Warmup {
			continue
		}

		if open != nil {
			if level, reason, hit := open.CheckExit(bar.High, bar.Low); hit {
				book(open, level, bar, reason)
				open = nil
			}
		}

		session := b.cfg.Session
		if session == "" {
			session = strategy.ClassifySession(bar.Time)
		}
		sig := scorer.Score(symbol, snap, session, bar.Time)
		if !sig.Actionable() || open != nil || !sizer.CanOpen(0, sig.Confidence) {
			continue
		}
		side, _ := model.SideFor(sig.Action)
		plan := sizer.Plan(symbol, side, balance, bar.Close, snap.ATR, sig.Confidence)
		if plan.Volume <= 0 {
			continue
		}
		open = &model.Position{
			ID:         uuid.NewString(),
			Symbol:     symbol,
			Side:       side,
			Volume:     plan.Volume,
			Entry:      plan.Entry,
			StopLoss:   plan.StopLoss,
			TakeProfit: plan.TakeProfit,
			Confidence: sig.Confidence,
			OpenedAt:   bar.Time,
		}
	}

	last := bars[len(bars)-1]
	if open != nil {
		book(open, last.Close, last, model.CloseBacktestEnd)
	}

	res.FinalBalance = balance
	res.ReturnPct = (balance - b.cfg.InitialBalance) / b.cfg.InitialBalance * 100
	b.log.WithFields(logrus.Fields{
		"symbol":   symbol,
		"bars":     len(bars),
		"trades":   res.TotalTrades,
		"win_rate": fmt.Sprintf("%.2f%%", res.WinRate),
		"pnl":      fmt.Sprintf("%.2f", res.TotalPnL),
		"return":   fmt.Sprintf("%.2f%%", res.ReturnPct),
	}).Info("backtest finished")
	return res, nil
}
