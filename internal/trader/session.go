// Package trader runs the trading loop: quotes in, signals scored, sized
// orders out, open positions managed.
package trader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"FXSentinel/internal/broker"
	"FXSentinel/internal/calculator"
	"FXSentinel/internal/history"
	"FXSentinel/internal/model"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/risk"
	"FXSentinel/internal/strategy"
)

// Deps are the collaborators a Session drives.
type Deps struct {
	Feed     broker.PriceFeed
	Gateway  broker.OrderGateway
	Account  broker.AccountInfo
	History  broker.HistorySource // optional, used for warmup
	Engine   *calculator.Engine
	Scorer   *strategy.Scorer
	Sizer    *risk.Sizer
	Recorder recorder.Recorder
	Notifier notifier.Notifier
	Log      logrus.FieldLogger
	Mode     string
	Clock    func() time.Time
}

// Session owns the price history and the open positions of one bot.
type Session struct {
	cfg Config
	d   Deps

	store *history.Store
	log   logrus.FieldLogger
	cron  *cron.Cron

	// cycleMu is held for the whole of RunCycle. The engine's MACD and %K
	// series advance once per Compute, so cycles must not interleave.
	cycleMu sync.Mutex

	mu          sync.Mutex
	open        []*model.Position
	lastSignal  map[string]model.Signal
	balance     float64
	cycles      int
	perf        model.Performance
	startedAt   time.Time
	lastCycleAt time.Time
}

// NewSession creates a Session. Recorder and Notifier default to no-ops.
func NewSession(cfg Config, d Deps) *Session {
	if d.Recorder == nil {
		d.Recorder = recorder.NewNoopRecorder()
	}
	if d.Notifier == nil {
		d.Notifier = notifier.Noop{}
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Session{
		cfg:        cfg,
		d:          d,
		store:      history.NewStore(cfg.HistorySize),
		log:        d.Log.WithField("component", "trader"),
		lastSignal: make(map[string]model.Signal),
		startedAt:  d.Clock(),
	}
}

// History exposes the price store for read-only use.
func (s *Session) History() *history.Store { return s.store }

// Warmup seeds the history from the history source and primes the
// indicator trackers so the first live cycle already has a MACD signal line.
func (s *Session) Warmup(ctx context.Context) {
	if s.d.History == nil || !s.cfg.Warmup {
		return
	}
	for _, sym := range s.cfg.Symbols {
		bars, err := s.d.History.Bars(ctx, sym, s.cfg.WarmupInterval, s.store.Capacity())
		if err != nil {
			s.log.WithError(err).WithField("symbol", sym).Warn("warmup failed")
			continue
		}
		for _, b := range bars {
			s.store.AppendBar(sym, b)
		}
		window := s.store.Window(sym, s.store.Capacity())
		for n := s.d.Engine.MinPoints(); n <= len(window); n++ {
			s.d.Engine.Compute(sym, window[:n])
		}
		s.log.WithFields(logrus.Fields{"symbol": sym, "bars": len(bars)}).Info("history warmed up")
	}
}

// RunCycle analyses every configured symbol once, sequentially, pausing
// SymbolDelay between symbols. A call made while another cycle is running
// is skipped. Only context cancellation is returned.
func (s *Session) RunCycle(ctx context.Context) error {
	if !s.cycleMu.TryLock() {
		s.log.Warn("previous cycle still running, skipping")
		return nil
	}
	defer s.cycleMu.Unlock()

	for i, sym := range s.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.processSymbol(ctx, sym)

		if i < len(s.cfg.Symbols)-1 && s.cfg.SymbolDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.cfg.SymbolDelay):
			}
		}
	}

	s.mu.Lock()
	s.cycles++
	s.lastCycleAt = s.d.Clock()
	s.mu.Unlock()
	return nil
}

func (s *Session) processSymbol(ctx context.Context, sym string) {
	log := s.log.WithField("symbol", sym)
	now := s.d.Clock()

	price, err := s.d.Feed.Price(ctx, sym)
	if err != nil {
		last, ok := s.store.Last(sym)
		if !ok {
			log.WithError(err).Warn("price unavailable, skipping")
			return
		}
		// A stale quote adds no information; only protect open positions.
		log.WithError(err).Warnf("price unavailable, managing positions at last price %.5f", last.Price)
		s.manageOpen(ctx, sym, last.Price, now)
		return
	}

	s.store.Append(sym, price, now)
	s.manageOpen(ctx, sym, price, now)

	snap := s.d.Engine.Compute(sym, s.store.Window(sym, s.store.Capacity()))
	sig := s.d.Scorer.Score(sym, snap, strategy.ClassifySession(now), now)

	s.mu.Lock()
	s.lastSignal[sym] = sig
	s.mu.Unlock()

	if err := s.d.Recorder.RecordSignal(&sig); err != nil {
		log.WithError(err).Error("record signal")
	}
	log.WithFields(logrus.Fields{
		"price":      price,
		"action":     sig.Action,
		"confidence": fmt.Sprintf("%.2f", sig.Confidence),
		"session":    sig.Session,
	}).Debug("scored")

	if sig.Actionable() {
		s.tryOpen(ctx, &sig, snap.ATR)
	}
}

// tryOpen sizes and submits an order for an actionable signal. One
// position per symbol is held at a time.
func (s *Session) tryOpen(ctx context.Context, sig *model.Signal, atr float64) {
	log := s.log.WithField("symbol", sig.Symbol)
	side, _ := model.SideFor(sig.Action)

	s.mu.Lock()
	openCount := len(s.open)
	holding := s.holding(sig.Symbol)
	s.mu.Unlock()

	if holding {
		log.Debug("position already open, skipping signal")
		return
	}
	if !s.d.Sizer.CanOpen(openCount, sig.Confidence) {
		log.WithField("open", openCount).Info("risk limits block new position")
		return
	}

	balance, err := s.d.Account.Balance(ctx)
	if err != nil {
		log.WithError(err).Warn("balance unavailable, skipping order")
		return
	}
	s.mu.Lock()
	s.balance = balance
	s.mu.Unlock()

	plan := s.d.Sizer.Plan(sig.Symbol, side, balance, sig.Price, atr, sig.Confidence)
	if plan.Volume <= 0 {
		log.WithField("atr", atr).Info("position size is zero, skipping order")
		return
	}

	s.notify(ctx, notifier.FormatSignal(sig))

	res := s.d.Gateway.Submit(ctx, sig.Symbol, side, plan.Volume)
	now := s.d.Clock()
	if !res.Success {
		log.WithField("message", res.Message).Warn("order rejected")
		pos := &model.Position{
			Symbol: sig.Symbol, Side: side, Volume: plan.Volume, Entry: plan.Entry,
			StopLoss: plan.StopLoss, TakeProfit: plan.TakeProfit, Confidence: sig.Confidence, OpenedAt: now,
		}
		s.journal(&recorder.TradeEvent{Kind: recorder.TradeRejected, Position: pos, Message: res.Message})
		s.notify(ctx, notifier.FormatRejected(sig.Symbol, side, plan.Volume, res.Message))
		return
	}

	// Protective levels keep their distance from the actual fill.
	entry := plan.Entry
	if res.Price > 0 {
		entry = res.Price
	}
	shift := entry - plan.Entry
	pos := &model.Position{
		ID:         uuid.NewString(),
		Symbol:     sig.Symbol,
		Side:       side,
		Volume:     plan.Volume,
		Entry:      entry,
		StopLoss:   plan.StopLoss + shift,
		TakeProfit: plan.TakeProfit + shift,
		Confidence: sig.Confidence,
		OpenedAt:   now,
	}

	s.mu.Lock()
	s.open = append(s.open, pos)
	s.mu.Unlock()

	log.WithFields(logrus.Fields{
		"side": side, "volume": pos.Volume, "entry": pos.Entry,
		"stop": pos.StopLoss, "target": pos.TakeProfit, "order": res.OrderID,
	}).Info("position opened")
	s.journal(&recorder.TradeEvent{Kind: recorder.TradeOpen, Position: pos, Message: res.Message})
	s.notify(ctx, notifier.FormatOpened(pos))
}

// manageOpen closes positions in sym whose stop, target or holding time
// is reached at price.
func (s *Session) manageOpen(ctx context.Context, sym string, price float64, now time.Time) {
	s.mu.Lock()
	var due []*model.Position
	var reasons []model.CloseReason
	for _, p := range s.open {
		if p.Symbol != sym {
			continue
		}
		if _, reason, hit := p.CheckExit(price, price); hit {
			due = append(due, p)
			reasons = append(reasons, reason)
		} else if s.cfg.MaxHold > 0 && now.Sub(p.OpenedAt) >= s.cfg.MaxHold {
			due = append(due, p)
			reasons = append(reasons, model.CloseTimeExit)
		}
	}
	s.mu.Unlock()

	for i, p := range due {
		s.closePosition(ctx, p, price, now, reasons[i])
	}
}

func (s *Session) closePosition(ctx context.Context, p *model.Position, price float64, now time.Time, reason model.CloseReason) {
	log := s.log.WithFields(logrus.Fields{"symbol": p.Symbol, "position": p.ID})

	res := s.d.Gateway.Submit(ctx, p.Symbol, p.Side.Opposite(), p.Volume)
	if !res.Success {
		log.WithField("message", res.Message).Warnf("close order rejected (%s), will retry next cycle", reason)
		s.journal(&recorder.TradeEvent{Kind: recorder.TradeRejected, Position: p, Message: res.Message})
		return
	}
	exit := price
	if res.Price > 0 {
		exit = res.Price
	}

	s.mu.Lock()
	pnl := p.Close(exit, now, reason)
	s.perf.Record(pnl)
	for i, q := range s.open {
		if q == p {
			s.open = append(s.open[:i], s.open[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.d.Sizer.RecordOutcome(pnl, now)
	if st, ok := s.d.Gateway.(broker.Settler); ok {
		st.Settle(pnl)
	}

	log.WithFields(logrus.Fields{"reason": reason, "exit": exit, "pnl": fmt.Sprintf("%+.2f", pnl)}).Info("position closed")
	s.journal(&recorder.TradeEvent{Kind: recorder.TradeClose, Position: p, Message: res.Message})
	s.notify(ctx, notifier.FormatClosed(p))
}

func (s *Session) holding(sym string) bool {
	for _, p := range s.open {
		if p.Symbol == sym {
			return true
		}
	}
	return false
}

func (s *Session) journal(evt *recorder.TradeEvent) {
	if err := s.d.Recorder.RecordTrade(evt); err != nil {
		s.log.WithError(err).Error("record trade")
	}
}

func (s *Session) notify(ctx context.Context, text string) {
	if err := s.d.Notifier.SendWithRetry(ctx, text, s.cfg.NotifyRetries); err != nil && ctx.Err() == nil {
		s.log.WithError(err).Error("send notification")
	}
}

// Start schedules RunCycle and the daily brake reset on cron. Runs until
// Stop; the cycle is skipped while a previous one is still running.
func (s *Session) Start(ctx context.Context) error {
	cronLog := cron.PrintfLogger(s.log)
	c := cron.New(
		cron.WithParser(specParser),
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
	)

	if _, err := c.AddFunc(s.cfg.Cycle, func() {
		if err := s.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			s.log.WithError(err).Error("cycle aborted")
		}
	}); err != nil {
		return fmt.Errorf("register cycle: %w", err)
	}
	if _, err := c.AddFunc(s.cfg.DailyReset, func() {
		s.d.Sizer.ResetDaily(s.d.Clock())
		s.log.Info("daily loss brake reset")
	}); err != nil {
		return fmt.Errorf("register daily reset: %w", err)
	}

	if balance, err := s.d.Account.Balance(ctx); err == nil {
		s.mu.Lock()
		s.balance = balance
		s.mu.Unlock()
	}

	s.cron = c
	c.Start()
	s.log.WithFields(logrus.Fields{"symbols": s.cfg.Symbols, "cycle": s.cfg.Cycle}).Info("trader started")
	return nil
}

// Stop stops the scheduler and waits for a running cycle to finish.
func (s *Session) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("trader stopped")
}

// Positions returns copies of the open positions.
func (s *Session) Positions() []model.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Position, len(s.open))
	for i, p := range s.open {
		out[i] = *p
	}
	return out
}

// Status returns a snapshot of the session. The balance is refreshed from
// the account when reachable.
func (s *Session) Status(ctx context.Context) model.Status {
	if balance, err := s.d.Account.Balance(ctx); err == nil {
		s.mu.Lock()
		s.balance = balance
		s.mu.Unlock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st := model.Status{
		Mode:        s.d.Mode,
		Feed:        s.d.Feed.Name(),
		Symbols:     append([]string(nil), s.cfg.Symbols...),
		Balance:     s.balance,
		Cycles:      s.cycles,
		Brake:       s.d.Sizer.BrakeMultiplier(),
		StartedAt:   s.startedAt,
		UpdatedAt:   s.lastCycleAt,
		Performance: s.perf,
	}
	st.FinalBalance = s.balance
	for _, p := range s.open {
		st.Open = append(st.Open, *p)
	}
	for _, sym := range s.cfg.Symbols {
		if sig, ok := s.lastSignal[sym]; ok {
			st.LastSignals = append(st.LastSignals, sig)
		}
	}
	return st
}

// HandleCommand processes a chat command and returns a reply.
func (s *Session) HandleCommand(command string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch command {
	case "/status":
		st := s.Status(ctx)
		return notifier.FormatStatus(&st)
	case "/positions":
		marks := make(map[string]float64)
		for _, sym := range s.cfg.Symbols {
			if last, ok := s.store.Last(sym); ok {
				marks[sym] = last.Price
			}
		}
		return notifier.FormatPositions(s.Positions(), marks)
	default:
		return "Available commands:\n• /status\n• /positions"
	}
}
