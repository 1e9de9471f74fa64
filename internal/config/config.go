// Package config loads the bot configuration from YAML, a .env file and
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"FXSentinel/internal/backtest"
	"FXSentinel/internal/broker"
	"FXSentinel/internal/calculator"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/risk"
	"FXSentinel/internal/strategy"
	"FXSentinel/internal/trader"
)

// DefaultPath is used when neither --config nor CONFIG_PATH is given.
const DefaultPath = "configs/config.yaml"

// Config holds all application configuration.
type Config struct {
	Trader     trader.Config     `yaml:"trader"`
	Broker     broker.Config     `yaml:"broker"`
	Indicators calculator.Config `yaml:"indicators"`
	Strategy   strategy.Config   `yaml:"strategy"`
	Risk       risk.Config       `yaml:"risk"`
	Backtest   backtest.Config   `yaml:"backtest"`
	Database   recorder.Config   `yaml:"database"`
	Telegram   notifier.Config   `yaml:"telegram"`
	Log        struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// Default returns the built-in configuration: paper trading on the Yahoo
// feed with a local SQLite journal.
func Default() *Config {
	cfg := &Config{
		Trader:     trader.DefaultConfig(),
		Broker:     broker.DefaultConfig(),
		Indicators: calculator.DefaultConfig(),
		Strategy:   strategy.DefaultConfig(),
		Risk:       risk.DefaultConfig(),
		Backtest:   backtest.DefaultConfig(),
		Database: recorder.Config{
			Driver:     recorder.DriverSQLite,
			SQLitePath: "data/fxsentinel.db",
		},
	}
	cfg.Risk.StateFile = "data/brake_state.json"
	cfg.Risk.MinConfidence = 0 // follows strategy.action_threshold
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	return cfg
}

// Load reads config from a YAML file over the defaults, loads a .env file
// next to it, then applies environment variable overrides. A missing file
// leaves the defaults in place.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = DefaultPath
	}

	envPath := filepath.Join(filepath.Dir(path), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envPath, err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Risk.MinConfidence == 0 {
		cfg.Risk.MinConfidence = cfg.Strategy.ActionThreshold
	}
	return cfg, nil
}

// Environment variable overrides
func (c *Config) applyEnv() {
	if v := os.Getenv("BROKER_MODE"); v != "" {
		c.Broker.Mode = v
	}
	if v := os.Getenv("BROKER_BASE_URL"); v != "" {
		c.Broker.BaseURL = v
	}
	if v := os.Getenv("BROKER_API_KEY"); v != "" {
		c.Broker.APIKey = v
	}
	if v := os.Getenv("BROKER_ACCOUNT_ID"); v != "" {
		c.Broker.AccountID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Broker.ProxyURL = v
		c.Telegram.ProxyURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
		c.Trader.Symbols = symbols
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.Driver = recorder.DriverSQLite
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		c.Database.Driver = recorder.DriverMySQL
		c.Database.MySQLDSN = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if len(c.Trader.Symbols) == 0 {
		return fmt.Errorf("trader.symbols must list at least one instrument")
	}
	if err := c.Trader.Validate(); err != nil {
		return err
	}
	if err := c.Broker.Validate(); err != nil {
		return err
	}
	if err := c.Indicators.Validate(); err != nil {
		return err
	}
	if err := c.Strategy.Validate(); err != nil {
		return err
	}
	if err := c.Risk.Validate(); err != nil {
		return err
	}
	if err := c.Backtest.Validate(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "", recorder.DriverSQLite, recorder.DriverMySQL:
	default:
		return fmt.Errorf("database.driver must be sqlite or mysql, got %q", c.Database.Driver)
	}
	return nil
}
