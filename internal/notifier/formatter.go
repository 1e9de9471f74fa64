package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"FXSentinel/internal/model"
)

func actionIcon(a model.Action) string {
	switch a {
	case model.ActionBuy:
		return "🟢"
	case model.ActionSell:
		return "🔴"
	}
	return "⚪"
}

// FormatSignal formats an actionable signal with its reasons.
func FormatSignal(sig *model.Signal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s <b>%s %s</b> @ %.5f\n", actionIcon(sig.Action), sig.Action, sig.Symbol, sig.Price))
	b.WriteString(fmt.Sprintf("Confidence: %.0f%% | Session: %s (×%.2f)\n", sig.Confidence*100, sig.Session, sig.Multiplier))
	b.WriteString(fmt.Sprintf("Votes: %d buy / %d sell\n", sig.BuyVotes, sig.SellVotes))

	snap := sig.Snapshot
	b.WriteString(fmt.Sprintf("RSI %.1f | MACD hist %+.5f | ATR %.5f\n", snap.RSI, snap.MACD.Histogram, snap.ATR))

	if len(sig.Reasons) > 0 {
		b.WriteString("\n📈 <b>Reasons:</b>\n")
		for _, r := range sig.Reasons {
			b.WriteString("  • " + html.EscapeString(r) + "\n")
		}
	}
	b.WriteString(fmt.Sprintf("\n%s UTC", sig.Time.UTC().Format("2006-01-02 15:04")))
	return b.String()
}

// FormatOpened formats a newly opened position.
func FormatOpened(p *model.Position) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📥 <b>Opened %s %s</b>\n", p.Side, p.Symbol))
	b.WriteString(fmt.Sprintf("Volume: %.2f @ %.5f\n", p.Volume, p.Entry))
	b.WriteString(fmt.Sprintf("Stop: %.5f | Target: %.5f\n", p.StopLoss, p.TakeProfit))
	b.WriteString(fmt.Sprintf("Confidence: %.0f%%\n", p.Confidence*100))
	b.WriteString(fmt.Sprintf("ID: <code>%s</code>", p.ID))
	return b.String()
}

// FormatClosed formats a closed position with its result.
func FormatClosed(p *model.Position) string {
	icon := "✅"
	if p.PnL < 0 {
		icon = "❌"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>Closed %s %s</b> (%s)\n", icon, p.Side, p.Symbol, p.CloseReason))
	b.WriteString(fmt.Sprintf("Entry %.5f → Exit %.5f\n", p.Entry, p.Exit))
	b.WriteString(fmt.Sprintf("P&amp;L: %+.2f\n", p.PnL))
	b.WriteString(fmt.Sprintf("Held: %s", p.ClosedAt.Sub(p.OpenedAt).Round(time.Second)))
	return b.String()
}

// FormatRejected formats an order the gateway refused.
func FormatRejected(symbol string, side model.Side, volume float64, msg string) string {
	return fmt.Sprintf("⚠️ <b>Order rejected</b> %s %.2f %s\n%s", side, volume, symbol, html.EscapeString(msg))
}

// FormatBacktest formats backtest results.
func FormatBacktest(symbol string, bars int, perf model.Performance) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🧪 <b>Backtest %s</b> (%d bars)\n\n", symbol, bars))
	b.WriteString(fmt.Sprintf("Trades: %d (%d won / %d lost)\n", perf.TotalTrades, perf.Winning, perf.Losing))
	b.WriteString(fmt.Sprintf("Win rate: %.1f%%\n", perf.WinRate))
	b.WriteString(fmt.Sprintf("Total P&amp;L: %+.2f\n", perf.TotalPnL))
	b.WriteString(fmt.Sprintf("Final balance: %.2f (%+.2f%%)\n", perf.FinalBalance, perf.ReturnPct))
	b.WriteString(fmt.Sprintf("Max drawdown: %.2f%%", perf.MaxDrawdown))
	return b.String()
}

// FormatStatus formats the session status for /status.
func FormatStatus(st *model.Status) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📦 <b>FXSentinel</b> | %s via %s\n\n", st.Mode, st.Feed))
	b.WriteString(fmt.Sprintf("Balance: %.2f\n", st.Balance))
	b.WriteString(fmt.Sprintf("Open positions: %d\n", len(st.Open)))
	b.WriteString(fmt.Sprintf("Closed trades: %d (win rate %.1f%%)\n", st.TotalTrades, st.WinRate))
	b.WriteString(fmt.Sprintf("Realized P&amp;L: %+.2f\n", st.TotalPnL))
	if st.Brake < 1 {
		b.WriteString(fmt.Sprintf("Loss brake: risk ×%.2f\n", st.Brake))
	}
	b.WriteString(fmt.Sprintf("Cycles: %d since %s\n", st.Cycles, st.StartedAt.UTC().Format("2006-01-02 15:04")))

	if len(st.LastSignals) > 0 {
		b.WriteString("\n<b>Last signals:</b>\n")
		for _, s := range st.LastSignals {
			b.WriteString(fmt.Sprintf("  %s %s %s %.0f%% @ %.5f\n", actionIcon(s.Action), s.Symbol, s.Action, s.Confidence*100, s.Price))
		}
	}
	b.WriteString(fmt.Sprintf("\nUpdated: %s UTC", st.UpdatedAt.UTC().Format("2006-01-02 15:04:05")))
	return b.String()
}

// FormatPositions lists open positions for /positions.
func FormatPositions(open []model.Position, marks map[string]float64) string {
	if len(open) == 0 {
		return "No open positions."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 <b>Open positions (%d)</b>\n\n", len(open)))
	for i := range open {
		p := &open[i]
		b.WriteString(fmt.Sprintf("%s %s %.2f @ %.5f", p.Side, p.Symbol, p.Volume, p.Entry))
		if mark, ok := marks[p.Symbol]; ok {
			b.WriteString(fmt.Sprintf(" | now %.5f (%+.2f)", mark, p.UnrealizedPnL(mark)))
		}
		b.WriteString(fmt.Sprintf("\n  SL %.5f TP %.5f\n", p.StopLoss, p.TakeProfit))
	}
	return strings.TrimRight(b.String(), "\n")
}
