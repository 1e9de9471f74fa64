// Package risk turns signal confidence and account state into bounded
// position sizes.
package risk

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"FXSentinel/internal/model"
)

const recentOutcomes = 20

// Config holds sizing limits.
type Config struct {
	RiskFraction         float64 `yaml:"risk_fraction"`
	StopMultiplier       float64 `yaml:"stop_multiplier"`
	TakeProfitMultiplier float64 `yaml:"take_profit_multiplier"`
	MinSize              float64 `yaml:"min_size"`
	MaxExposure          float64 `yaml:"max_exposure"` // fraction of balance
	LotStep              float64 `yaml:"lot_step"`
	LossStreakLimit      int     `yaml:"loss_streak_limit"`
	BrakeFactor          float64 `yaml:"brake_factor"`
	MaxOpenPositions     int     `yaml:"max_open_positions"`
	MinConfidence        float64 `yaml:"min_confidence"`
	StateFile            string  `yaml:"state_file"`
}

// DefaultConfig returns the default limits.
func DefaultConfig() Config {
	return Config{
		RiskFraction:         0.02,
		StopMultiplier:       2,
		TakeProfitMultiplier: 3,
		MinSize:              0.01,
		MaxExposure:          0.10,
		LotStep:              0.01,
		LossStreakLimit:      3,
		BrakeFactor:          0.5,
		MaxOpenPositions:     5,
		MinConfidence:        0.6,
	}
}

// Validate checks the limits.
func (c Config) Validate() error {
	switch {
	case c.RiskFraction <= 0 || c.RiskFraction > 1:
		return fmt.Errorf("risk.risk_fraction must be in (0, 1]")
	case c.StopMultiplier <= 0:
		return fmt.Errorf("risk.stop_multiplier must be positive")
	case c.TakeProfitMultiplier <= 0:
		return fmt.Errorf("risk.take_profit_multiplier must be positive")
	case c.MinSize < 0:
		return fmt.Errorf("risk.min_size must not be negative")
	case c.MaxExposure <= 0 || c.MaxExposure > 1:
		return fmt.Errorf("risk.max_exposure must be in (0, 1]")
	case c.LotStep < 0:
		return fmt.Errorf("risk.lot_step must not be negative")
	case c.LossStreakLimit < 1:
		return fmt.Errorf("risk.loss_streak_limit must be at least 1")
	case c.BrakeFactor <= 0 || c.BrakeFactor > 1:
		return fmt.Errorf("risk.brake_factor must be in (0, 1]")
	case c.MaxOpenPositions < 1:
		return fmt.Errorf("risk.max_open_positions must be at least 1")
	}
	return nil
}

// Sizer computes position sizes and tracks the consecutive-loss brake.
type Sizer struct {
	cfg Config
	log logrus.FieldLogger

	mu    sync.Mutex
	state *model.BrakeState
}

// NewSizer creates a Sizer, loading brake state from cfg.StateFile when set.
func NewSizer(cfg Config, log logrus.FieldLogger) (*Sizer, error) {
	state := &model.BrakeState{}
	if cfg.StateFile != "" {
		var err error
		if state, err = LoadState(cfg.StateFile); err != nil {
			return nil, err
		}
	}
	return &Sizer{cfg: cfg, log: log, state: state}, nil
}

// Config returns the sizing limits.
func (s *Sizer) Config() Config { return s.cfg }

// State returns a copy of the brake state.
func (s *Sizer) State() model.BrakeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := *s.state
	st.RecentPnL = append([]float64(nil), s.state.RecentPnL...)
	return st
}

// BrakeMultiplier is the factor applied to risk after the loss streak
// reaches the limit; 1 otherwise.
func (s *Sizer) BrakeMultiplier() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.brake()
}

func (s *Sizer) brake() float64 {
	over := s.state.ConsecutiveLosses - s.cfg.LossStreakLimit + 1
	if over <= 0 {
		return 1
	}
	return math.Pow(s.cfg.BrakeFactor, float64(over))
}

// StopDistance converts volatility into a stop distance.
func (s *Sizer) StopDistance(atr float64) float64 {
	if !usable(atr) {
		return 0
	}
	return atr * s.cfg.StopMultiplier
}

// usable reports whether v is positive and finite.
func usable(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Size returns the volume to trade. It is 0 whenever any input is
// non-positive or not finite, never exceeds balance·MaxExposure, and is
// rounded down to the lot step.
func (s *Sizer) Size(balance, price, stopDistance, confidence float64) float64 {
	if !usable(balance) || !usable(price) || !usable(stopDistance) || !usable(confidence) {
		return 0
	}
	confidence = math.Min(confidence, 1)

	s.mu.Lock()
	brake := s.brake()
	s.mu.Unlock()

	riskAmount := balance * s.cfg.RiskFraction * brake
	size := riskAmount / stopDistance * confidence

	maxSize := balance * s.cfg.MaxExposure
	size = math.Max(size, s.cfg.MinSize)
	size = math.Min(size, maxSize)
	if math.IsNaN(size) || math.IsInf(size, 0) {
		return 0
	}
	return s.roundLot(size)
}

// roundLot truncates size down to a multiple of LotStep.
func (s *Sizer) roundLot(size float64) float64 {
	if s.cfg.LotStep <= 0 {
		return size
	}
	step := decimal.NewFromFloat(s.cfg.LotStep)
	lots := decimal.NewFromFloat(size).Div(step).Floor()
	v, _ := lots.Mul(step).Float64()
	return v
}

// Plan sizes an order and sets protective levels around price. A zero
// Volume means no trade.
func (s *Sizer) Plan(symbol string, side model.Side, balance, price, atr, confidence float64) model.TradePlan {
	stop := s.StopDistance(atr)
	plan := model.TradePlan{
		Symbol:       symbol,
		Side:         side,
		Entry:        price,
		StopDistance: stop,
		Confidence:   confidence,
		Volume:       s.Size(balance, price, stop, confidence),
	}
	target := atr * s.cfg.TakeProfitMultiplier
	if side == model.SideBuy {
		plan.StopLoss = price - stop
		plan.TakeProfit = price + target
	} else {
		plan.StopLoss = price + stop
		plan.TakeProfit = price - target
	}
	return plan
}

// CanOpen reports whether another position may be opened.
func (s *Sizer) CanOpen(openPositions int, confidence float64) bool {
	return openPositions < s.cfg.MaxOpenPositions && confidence >= s.cfg.MinConfidence
}

// RecordOutcome feeds a closed trade's P&L into the loss brake. A new UTC
// day clears the streak before the outcome is counted.
func (s *Sizer) RecordOutcome(pnl float64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := at.UTC().Format(time.DateOnly)
	if s.state.Day != day {
		s.state.Day = day
		s.state.ConsecutiveLosses = 0
	}

	switch {
	case pnl < 0:
		s.state.ConsecutiveLosses++
	case pnl > 0:
		s.state.ConsecutiveLosses = 0
	}

	s.state.RecentPnL = append(s.state.RecentPnL, pnl)
	if len(s.state.RecentPnL) > recentOutcomes {
		s.state.RecentPnL = s.state.RecentPnL[len(s.state.RecentPnL)-recentOutcomes:]
	}

	if s.state.ConsecutiveLosses >= s.cfg.LossStreakLimit {
		s.log.WithFields(logrus.Fields{
			"streak": s.state.ConsecutiveLosses,
			"brake":  s.brake(),
		}).Warn("loss brake engaged")
	}
	s.save()
}

// ResetDaily clears the loss streak for a new trading day.
func (s *Sizer) ResetDaily(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Day = at.UTC().Format(time.DateOnly)
	s.state.ConsecutiveLosses = 0
	s.save()
}

func (s *Sizer) save() {
	if s.cfg.StateFile == "" {
		return
	}
	if err := SaveState(s.cfg.StateFile, s.state); err != nil {
		s.log.WithError(err).Error("failed to save brake state")
	}
}
