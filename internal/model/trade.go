package model

import "time"

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// SideFor maps an actionable signal action to an order side.
func SideFor(a Action) (Side, bool) {
	switch a {
	case ActionBuy:
		return SideBuy, true
	case ActionSell:
		return SideSell, true
	}
	return "", false
}

// CloseReason explains why a position was closed.
type CloseReason string

const (
	CloseStopLoss    CloseReason = "STOP_LOSS"
	CloseTakeProfit  CloseReason = "TAKE_PROFIT"
	CloseTimeExit    CloseReason = "TIME_EXIT"
	CloseBacktestEnd CloseReason = "BACKTEST_END"
)

// OrderResult is the outcome reported by an order gateway.
type OrderResult struct {
	Success bool
	Message string
	OrderID string
	Price   float64
}

// TradePlan is a sized order with protective levels.
type TradePlan struct {
	Symbol       string
	Side         Side
	Volume       float64
	Entry        float64
	StopLoss     float64
	TakeProfit   float64
	StopDistance float64
	Confidence   float64
}

// Position is an open or closed trade tracked by the session.
type Position struct {
	ID          string
	Symbol      string
	Side        Side
	Volume      float64
	Entry       float64
	StopLoss    float64
	TakeProfit  float64
	Confidence  float64
	OpenedAt    time.Time
	Exit        float64
	ClosedAt    time.Time
	CloseReason CloseReason
	PnL         float64
}

// Open reports whether the position has not been closed yet.
func (p *Position) Open() bool { return p.ClosedAt.IsZero() }

// UnrealizedPnL marks the position to the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	if p.Side == SideBuy {
		return (price - p.Entry) * p.Volume
	}
	return (p.Entry - price) * p.Volume
}

// Close books the exit and returns realized P&L.
func (p *Position) Close(price float64, at time.Time, reason CloseReason) float64 {
	p.Exit = price
	p.ClosedAt = at
	p.CloseReason = reason
	p.PnL = p.UnrealizedPnL(price)
	return p.PnL
}

// BrakeState tracks the consecutive-loss brake of the risk sizer.
type BrakeState struct {
	ConsecutiveLosses int       `json:"consecutive_losses"`
	Day               string    `json:"day"`
	RecentPnL         []float64 `json:"recent_pnl"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CheckExit reports whether a bar spanning [low, high] reaches the stop or
// the target, and at which level. The stop wins when both are inside the bar.
func (p *Position) CheckExit(high, low float64) (float64, CloseReason, bool) {
	if p.Side == SideBuy {
		if low <= p.StopLoss {
			return p.StopLoss, CloseStopLoss, true
		}
		if high >= p.TakeProfit {
			return p.TakeProfit, CloseTakeProfit, true
		}
		return 0, "", false
	}
	if high >= p.StopLoss {
		return p.StopLoss, CloseStopLoss, true
	}
	if low <= p.TakeProfit {
		return p.TakeProfit, CloseTakeProfit, true
	}
	return 0, "", false
}

// Opposite returns the side that closes a position opened on s.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}
