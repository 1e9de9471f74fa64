package trader

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Config controls the trading loop.
type Config struct {
	Symbols        []string      `yaml:"symbols"`
	Cycle          string        `yaml:"cycle"`       // cron spec with seconds
	DailyReset     string        `yaml:"daily_reset"` // cron spec with seconds, UTC
	SymbolDelay    time.Duration `yaml:"symbol_delay"`
	MaxHold        time.Duration `yaml:"max_hold"`
	HistorySize    int           `yaml:"history_size"`
	Warmup         bool          `yaml:"warmup"`
	WarmupInterval string        `yaml:"warmup_interval"`
	NotifyRetries  int           `yaml:"notify_retries"`
}

// DefaultConfig returns the default loop settings.
func DefaultConfig() Config {
	return Config{
		Symbols:        []string{"EURUSD", "GBPUSD", "USDJPY"},
		Cycle:          "@every 30s",
		DailyReset:     "0 0 0 * * *",
		SymbolDelay:    2 * time.Second,
		MaxHold:        4 * time.Hour,
		HistorySize:    200,
		Warmup:         true,
		WarmupInterval: "1m",
		NotifyRetries:  2,
	}
}

var specParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Validate checks the schedules and durations.
func (c Config) Validate() error {
	if _, err := specParser.Parse(c.Cycle); err != nil {
		return fmt.Errorf("trader.cycle: %w", err)
	}
	if _, err := specParser.Parse(c.DailyReset); err != nil {
		return fmt.Errorf("trader.daily_reset: %w", err)
	}
	if c.SymbolDelay < 0 {
		return fmt.Errorf("trader.symbol_delay must not be negative")
	}
	if c.MaxHold < 0 {
		return fmt.Errorf("trader.max_hold must not be negative")
	}
	if c.HistorySize < 2 {
		return fmt.Errorf("trader.history_size must be at least 2")
	}
	return nil
}
