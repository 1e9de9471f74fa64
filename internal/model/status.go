package model

import "time"

// Performance summarises closed trades.
type Performance struct {
	TotalTrades  int
	Winning      int
	Losing       int
	WinRate      float64 // percent
	TotalPnL     float64
	FinalBalance float64
	ReturnPct    float64
	MaxDrawdown  float64 // percent of peak equity
}

// Record books one closed trade.
func (p *Performance) Record(pnl float64) {
	p.TotalTrades++
	p.TotalPnL += pnl
	if pnl > 0 {
		p.Winning++
	} else {
		p.Losing++
	}
	p.WinRate = float64(p.Winning) / float64(p.TotalTrades) * 100
}

// Status is a point-in-time view of a running session.
type Status struct {
	Mode        string
	Feed        string
	Symbols     []string
	Balance     float64
	Open        []Position
	LastSignals []Signal
	Cycles      int
	Brake       float64
	StartedAt   time.Time
	UpdatedAt   time.Time
	Performance
}
