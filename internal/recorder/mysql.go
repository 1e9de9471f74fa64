package recorder

import (
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
)

// NewMySQLRecorder connects to MySQL and runs migrations. The DSN uses the
// go-sql-driver format, e.g. user:pass@tcp(host:3306)/fxsentinel.
func NewMySQLRecorder(dsn string, log logrus.FieldLogger) (*SQLRecorder, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	r := &SQLRecorder{db: db, driver: DriverMySQL, log: log}
	if err := r.migrate(mysqlSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("mysql recorder opened")
	return r, nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS signals (
		id          BIGINT AUTO_INCREMENT PRIMARY KEY,
		timestamp   BIGINT NOT NULL,
		symbol      VARCHAR(16) NOT NULL,
		action      VARCHAR(8) NOT NULL,
		confidence  DOUBLE,
		price       DOUBLE,
		session     VARCHAR(16),
		multiplier  DOUBLE,
		buy_votes   INT,
		sell_votes  INT,
		rsi         DOUBLE,
		macd_hist   DOUBLE,
		atr         DOUBLE,
		reasons     TEXT,
		INDEX idx_signals_ts (timestamp)
	)`,

	`CREATE TABLE IF NOT EXISTS trades (
		id           BIGINT AUTO_INCREMENT PRIMARY KEY,
		timestamp    BIGINT NOT NULL,
		kind         VARCHAR(16) NOT NULL,
		position_id  VARCHAR(64),
		symbol       VARCHAR(16),
		side         VARCHAR(8),
		volume       DOUBLE,
		entry        DOUBLE,
		stop_loss    DOUBLE,
		take_profit  DOUBLE,
		exit_price   DOUBLE,
		pnl          DOUBLE,
		close_reason VARCHAR(16),
		message      TEXT,
		INDEX idx_trades_ts (timestamp)
	)`,
}
