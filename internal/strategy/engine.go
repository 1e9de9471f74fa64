package strategy

import (
	"fmt"
	"math"
	"time"

	"FXSentinel/internal/calculator"
	"FXSentinel/internal/model"
)

// Config holds the voting thresholds.
type Config struct {
	ActionThreshold   float64             `yaml:"action_threshold"`
	HoldCeiling       float64             `yaml:"hold_ceiling"`
	MaxConfidence     float64             `yaml:"max_confidence"`
	MinVotes          int                 `yaml:"min_votes"`
	RSIOversold       float64             `yaml:"rsi_oversold"`
	RSIOverbought     float64             `yaml:"rsi_overbought"`
	RSIBuyZone        float64             `yaml:"rsi_buy_zone"`
	RSISellZone       float64             `yaml:"rsi_sell_zone"`
	StochOversold     float64             `yaml:"stoch_oversold"`
	StochOverbought   float64             `yaml:"stoch_overbought"`
	MomentumThreshold float64             `yaml:"momentum_threshold"`
	Sessions          map[Session]float64 `yaml:"session_multipliers"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ActionThreshold:   0.6,
		HoldCeiling:       0.45,
		MaxConfidence:     0.95,
		MinVotes:          2,
		RSIOversold:       30,
		RSIOverbought:     70,
		RSIBuyZone:        40,
		RSISellZone:       60,
		StochOversold:     20,
		StochOverbought:   80,
		MomentumThreshold: 0.001,
	}
}

// Validate checks threshold ordering.
func (c Config) Validate() error {
	if c.MaxConfidence <= 0 || c.MaxConfidence >= 1 {
		return fmt.Errorf("strategy.max_confidence must be in (0, 1)")
	}
	if c.ActionThreshold <= 0 || c.ActionThreshold > c.MaxConfidence {
		return fmt.Errorf("strategy.action_threshold must be in (0, max_confidence]")
	}
	if c.HoldCeiling < 0 || c.HoldCeiling >= c.ActionThreshold {
		return fmt.Errorf("strategy.hold_ceiling must be below action_threshold")
	}
	if c.MinVotes < 1 {
		return fmt.Errorf("strategy.min_votes must be at least 1")
	}
	if !(c.RSIOversold < c.RSIBuyZone && c.RSIBuyZone <= c.RSISellZone && c.RSISellZone < c.RSIOverbought) {
		return fmt.Errorf("strategy RSI levels must satisfy oversold < buy_zone <= sell_zone < overbought")
	}
	if c.StochOversold >= c.StochOverbought {
		return fmt.Errorf("strategy.stoch_oversold must be below stoch_overbought")
	}
	for s, m := range c.Sessions {
		if m < 0 {
			return fmt.Errorf("strategy.session_multipliers[%s] must not be negative", s)
		}
	}
	return nil
}

// Scorer turns indicator snapshots into signals. It is stateless and safe
// for concurrent use.
type Scorer struct {
	cfg    Config
	fastMA int
	slowMA int
}

// NewScorer creates a Scorer reading moving averages at the periods the
// indicator engine computes.
func NewScorer(cfg Config, ind calculator.Config) *Scorer {
	return &Scorer{cfg: cfg, fastMA: ind.FastMA, slowMA: ind.SlowMA}
}

// Multiplier returns the confidence multiplier for session, preferring a
// configured override.
func (s *Scorer) Multiplier(session Session) float64 {
	if m, ok := s.cfg.Sessions[session]; ok {
		return m
	}
	return SessionMultipliers[session]
}

// Score runs every rule against snap and resolves the votes into one signal.
func (s *Scorer) Score(symbol string, snap model.Snapshot, session Session, at time.Time) model.Signal {
	mult := s.Multiplier(session)
	sig := model.Signal{
		Symbol:     symbol,
		Action:     model.ActionHold,
		Price:      snap.Price,
		Session:    string(session),
		Multiplier: mult,
		Snapshot:   snap,
		Time:       at,
	}

	var buyScore, sellScore float64
	for _, r := range rules {
		v, ok := r(s, &snap)
		if !ok {
			continue
		}
		sig.Votes = append(sig.Votes, v)
		sig.Reasons = append(sig.Reasons, v.Reason)
		if v.Action == model.ActionBuy {
			sig.BuyVotes++
			buyScore += v.Weight
		} else {
			sig.SellVotes++
			sellScore += v.Weight
		}
	}

	switch {
	case sig.BuyVotes > sig.SellVotes && sig.BuyVotes >= s.cfg.MinVotes:
		sig.Action = model.ActionBuy
		sig.Confidence = s.clamp(buyScore * mult)
	case sig.SellVotes > sig.BuyVotes && sig.SellVotes >= s.cfg.MinVotes:
		sig.Action = model.ActionSell
		sig.Confidence = s.clamp(sellScore * mult)
	}

	if sig.Action != model.ActionHold && sig.Confidence < s.cfg.ActionThreshold {
		if !session.Open() {
			sig.Reasons = append(sig.Reasons, fmt.Sprintf("market closed, %s suppressed", sig.Action))
		} else {
			sig.Reasons = append(sig.Reasons, fmt.Sprintf("%s confidence %.2f below %.2f in %s session (x%.2f)",
				sig.Action, sig.Confidence, s.cfg.ActionThreshold, session, mult))
		}
		sig.Action = model.ActionHold
	}

	if sig.Action == model.ActionHold {
		sig.Confidence = math.Min(s.clamp(math.Max(buyScore, sellScore)*mult), s.cfg.HoldCeiling)
	}
	return sig
}

func (s *Scorer) clamp(c float64) float64 {
	return math.Max(0, math.Min(c, s.cfg.MaxConfidence))
}
