package recorder

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"FXSentinel/internal/model"
)

// SQLRecorder persists signals and trades through database/sql. The schema
// comes from the dialect; inserts are shared.
type SQLRecorder struct {
	db     *sql.DB
	mu     sync.Mutex
	driver string
	log    logrus.FieldLogger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log logrus.FieldLogger) (*SQLRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLRecorder{db: db, driver: DriverSQLite, log: log}
	if err := r.migrate(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.WithField("path", dbPath).Info("sqlite recorder opened")
	return r, nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp   INTEGER NOT NULL,
		symbol      TEXT NOT NULL,
		action      TEXT NOT NULL,
		confidence  REAL,
		price       REAL,
		session     TEXT,
		multiplier  REAL,
		buy_votes   INTEGER,
		sell_votes  INTEGER,
		rsi         REAL,
		macd_hist   REAL,
		atr         REAL,
		reasons     TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(timestamp)`,

	`CREATE TABLE IF NOT EXISTS trades (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp    INTEGER NOT NULL,
		kind         TEXT NOT NULL,
		position_id  TEXT,
		symbol       TEXT,
		side         TEXT,
		volume       REAL,
		entry        REAL,
		stop_loss    REAL,
		take_profit  REAL,
		exit_price   REAL,
		pnl          REAL,
		close_reason TEXT,
		message      TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(timestamp)`,
}

func (r *SQLRecorder) migrate(stmts []string) error {
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLRecorder) RecordSignal(sig *model.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := sig.Snapshot
	_, err := r.db.Exec(`INSERT INTO signals
		(timestamp, symbol, action, confidence, price, session, multiplier,
		 buy_votes, sell_votes, rsi, macd_hist, atr, reasons)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		sig.Time.Unix(), sig.Symbol, string(sig.Action), sig.Confidence, sig.Price,
		sig.Session, sig.Multiplier, sig.BuyVotes, sig.SellVotes,
		snap.RSI, snap.MACD.Histogram, snap.ATR, strings.Join(sig.Reasons, "; "),
	)
	return err
}

func (r *SQLRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := evt.Position
	ts := p.OpenedAt
	if evt.Kind == TradeClose {
		ts = p.ClosedAt
	}
	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, kind, position_id, symbol, side, volume, entry, stop_loss,
		 take_profit, exit_price, pnl, close_reason, message)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		ts.Unix(), string(evt.Kind), p.ID, p.Symbol, string(p.Side), p.Volume,
		p.Entry, p.StopLoss, p.TakeProfit, p.Exit, p.PnL, string(p.CloseReason), evt.Message,
	)
	return err
}

func (r *SQLRecorder) Close() error {
	r.log.WithField("driver", r.driver).Info("closing recorder")
	return r.db.Close()
}
