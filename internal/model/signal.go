package model

import "time"

// Action is the discrete trading decision.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Vote is one rule's contribution to a signal.
type Vote struct {
	Rule   string
	Action Action // BUY or SELL; rules that abstain produce no Vote
	Weight float64
	Reason string
}

// Signal is the scorer's output for one instrument in one cycle.
type Signal struct {
	Symbol     string
	Action     Action
	Confidence float64
	Price      float64
	Session    string
	Multiplier float64
	BuyVotes   int
	SellVotes  int
	Votes      []Vote
	Reasons    []string
	Snapshot   Snapshot
	Time       time.Time
}

// Actionable reports whether the signal asks for an order.
func (s *Signal) Actionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}
