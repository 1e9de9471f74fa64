package strategy

import (
	"fmt"

	"FXSentinel/internal/model"
)

// Rule weights. They are not normalised; confidence is additive and clamped.
const (
	weightRSIExtreme = 0.4
	weightRSIZone    = 0.2
	weightMAOrder    = 0.3
	weightMACD       = 0.2
	weightMACDCross  = 0.3
	weightBollinger  = 0.25
	weightStochastic = 0.2
	weightMomentum   = 0.1
)

// rule inspects a snapshot and either votes or abstains.
type rule func(s *Scorer, snap *model.Snapshot) (model.Vote, bool)

// rules in evaluation order; reasons are emitted in this order.
var rules = []rule{
	voteRSI,
	voteMAOrder,
	voteMACD,
	voteBollinger,
	voteStochastic,
	voteMomentum,
}

func buy(name string, weight float64, reason string) (model.Vote, bool) {
	return model.Vote{Rule: name, Action: model.ActionBuy, Weight: weight, Reason: reason}, true
}

func sell(name string, weight float64, reason string) (model.Vote, bool) {
	return model.Vote{Rule: name, Action: model.ActionSell, Weight: weight, Reason: reason}, true
}

// voteRSI scores RSI extremity; the outer bands outweigh the inner zones.
func voteRSI(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	if !snap.Ready.RSI {
		return model.Vote{}, false
	}
	rsi := snap.RSI
	c := s.cfg
	switch {
	case rsi < c.RSIOversold:
		return buy("RSI", weightRSIExtreme, fmt.Sprintf("RSI oversold (%.1f)", rsi))
	case rsi > c.RSIOverbought:
		return sell("RSI", weightRSIExtreme, fmt.Sprintf("RSI overbought (%.1f)", rsi))
	case rsi < c.RSIBuyZone:
		return buy("RSI", weightRSIZone, fmt.Sprintf("RSI weak (%.1f)", rsi))
	case rsi > c.RSISellZone:
		return sell("RSI", weightRSIZone, fmt.Sprintf("RSI strong (%.1f)", rsi))
	}
	return model.Vote{}, false
}

func voteMAOrder(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	if !snap.Ready.FastMA || !snap.Ready.SlowMA {
		return model.Vote{}, false
	}
	fast, slow := snap.SMA[s.fastMA], snap.SMA[s.slowMA]
	switch {
	case fast > slow:
		return buy("MA", weightMAOrder, fmt.Sprintf("SMA%d above SMA%d", s.fastMA, s.slowMA))
	case fast < slow:
		return sell("MA", weightMAOrder, fmt.Sprintf("SMA%d below SMA%d", s.fastMA, s.slowMA))
	}
	return model.Vote{}, false
}

// voteMACD follows the histogram sign and weighs a fresh crossover higher.
func voteMACD(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	if !snap.Ready.MACD {
		return model.Vote{}, false
	}
	m := snap.MACD
	switch {
	case m.Histogram > 0 && m.PrevHistogram < 0:
		return buy("MACD", weightMACDCross, "MACD bullish crossover")
	case m.Histogram < 0 && m.PrevHistogram > 0:
		return sell("MACD", weightMACDCross, "MACD bearish crossover")
	case m.Histogram > 0:
		return buy("MACD", weightMACD, "MACD above signal")
	case m.Histogram < 0:
		return sell("MACD", weightMACD, "MACD below signal")
	}
	return model.Vote{}, false
}

func voteBollinger(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	b := snap.Bollinger
	if !snap.Ready.Bollinger || b.Upper <= b.Lower {
		return model.Vote{}, false
	}
	switch {
	case snap.Price <= b.Lower:
		return buy("BOLLINGER", weightBollinger, fmt.Sprintf("price at lower band (%.5f)", b.Lower))
	case snap.Price >= b.Upper:
		return sell("BOLLINGER", weightBollinger, fmt.Sprintf("price at upper band (%.5f)", b.Upper))
	}
	return model.Vote{}, false
}

func voteStochastic(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	if !snap.Ready.Stochastic {
		return model.Vote{}, false
	}
	k, d := snap.Stochastic.K, snap.Stochastic.D
	switch {
	case k < s.cfg.StochOversold && d < s.cfg.StochOversold:
		return buy("STOCH", weightStochastic, fmt.Sprintf("stochastic oversold (%%K %.1f, %%D %.1f)", k, d))
	case k > s.cfg.StochOverbought && d > s.cfg.StochOverbought:
		return sell("STOCH", weightStochastic, fmt.Sprintf("stochastic overbought (%%K %.1f, %%D %.1f)", k, d))
	}
	return model.Vote{}, false
}

func voteMomentum(s *Scorer, snap *model.Snapshot) (model.Vote, bool) {
	if !snap.Ready.Momentum {
		return model.Vote{}, false
	}
	m := snap.Momentum
	switch {
	case m > s.cfg.MomentumThreshold:
		return buy("MOMENTUM", weightMomentum, fmt.Sprintf("momentum %+.3f%%", m*100))
	case m < -s.cfg.MomentumThreshold:
		return sell("MOMENTUM", weightMomentum, fmt.Sprintf("momentum %+.3f%%", m*100))
	}
	return model.Vote{}, false
}
