package recorder

import (
	"github.com/sirupsen/logrus"

	"FXSentinel/internal/model"
)

// TradeKind classifies a journaled trade event.
type TradeKind string

const (
	TradeOpen     TradeKind = "OPEN"
	TradeClose    TradeKind = "CLOSE"
	TradeRejected TradeKind = "REJECTED"
)

// TradeEvent is one lifecycle step of a position.
type TradeEvent struct {
	Kind     TradeKind
	Position *model.Position
	Message  string
}

// Recorder persists signals and trades for later analysis.
type Recorder interface {
	RecordSignal(sig *model.Signal) error
	RecordTrade(evt *TradeEvent) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config selects the journal database. An empty driver disables it.
type Config struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
	MySQLDSN   string `yaml:"mysql_dsn"`
}

// Open returns the configured recorder, or a NoopRecorder when none is
// configured or the database cannot be opened.
func Open(cfg Config, log logrus.FieldLogger) Recorder {
	log = log.WithField("component", "recorder")

	var (
		rec Recorder
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return NewNoopRecorder()
		}
		rec, err = NewSQLiteRecorder(cfg.SQLitePath, log)
	case DriverMySQL:
		if cfg.MySQLDSN == "" {
			return NewNoopRecorder()
		}
		rec, err = NewMySQLRecorder(cfg.MySQLDSN, log)
	default:
		return NewNoopRecorder()
	}
	if err != nil {
		log.WithError(err).Warn("journal disabled")
		return NewNoopRecorder()
	}
	return rec
}
