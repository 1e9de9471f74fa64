// Package broker defines the market-data and order-routing boundaries of
// the bot and their implementations.
package broker

import (
	"context"
	"fmt"
	"time"

	"FXSentinel/internal/model"
)

// PriceFeed returns the latest quote of an instrument. Callers treat any
// error as "skip or use the last known price", never as fatal.
type PriceFeed interface {
	Price(ctx context.Context, symbol string) (float64, error)
	Name() string
}

// OrderGateway places market orders. Failures are reported in the result.
type OrderGateway interface {
	Submit(ctx context.Context, symbol string, side model.Side, volume float64) model.OrderResult
}

// AccountInfo reports the account balance used for sizing.
type AccountInfo interface {
	Balance(ctx context.Context) (float64, error)
}

// HistorySource serves historical bars for warmup and backtests.
type HistorySource interface {
	Bars(ctx context.Context, symbol, interval string, count int) ([]model.OHLCV, error)
}

// Settler is implemented by gateways that book realized P&L locally.
type Settler interface {
	Settle(pnl float64)
}

const (
	ModeLive  = "live"
	ModePaper = "paper"

	FeedREST  = "rest"
	FeedYahoo = "yahoo"
	FeedCSV   = "csv"
)

// Config selects and configures the broker connection.
type Config struct {
	Mode         string        `yaml:"mode"`
	Feed         string        `yaml:"feed"`
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	AccountID    string        `yaml:"account_id"`
	ProxyURL     string        `yaml:"proxy_url"`
	CSVPath      string        `yaml:"csv_path"`
	CSVSymbol    string        `yaml:"csv_symbol"`
	PaperBalance float64       `yaml:"paper_balance"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
}

// DefaultConfig returns a paper-trading configuration on the Yahoo feed.
func DefaultConfig() Config {
	return Config{
		Mode:         ModePaper,
		Feed:         FeedYahoo,
		PaperBalance: 10000,
		Timeout:      15 * time.Second,
		MaxRetries:   3,
		RetryDelay:   5 * time.Second,
	}
}

// Validate rejects ambiguous setups. Live trading needs credentials; the
// bot never falls back to paper silently.
func (c Config) Validate() error {
	switch c.Mode {
	case ModeLive:
		if c.BaseURL == "" || c.APIKey == "" || c.AccountID == "" {
			return fmt.Errorf("broker: live mode requires base_url, api_key and account_id")
		}
	case ModePaper:
		if c.PaperBalance <= 0 {
			return fmt.Errorf("broker: paper_balance must be positive")
		}
	default:
		return fmt.Errorf("broker: mode must be %q or %q, got %q", ModeLive, ModePaper, c.Mode)
	}

	switch c.Feed {
	case FeedREST:
		if c.BaseURL == "" {
			return fmt.Errorf("broker: rest feed requires base_url")
		}
	case FeedYahoo:
	case FeedCSV:
		if c.CSVPath == "" {
			return fmt.Errorf("broker: csv feed requires csv_path")
		}
	default:
		return fmt.Errorf("broker: unknown feed %q", c.Feed)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("broker: max_retries must be at least 1")
	}
	return nil
}
