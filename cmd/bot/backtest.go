package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"FXSentinel/internal/backtest"
	"FXSentinel/internal/broker"
	"FXSentinel/internal/config"
	"FXSentinel/internal/model"
	"FXSentinel/internal/notifier"
)

// dataset is one CSV file to replay.
type dataset struct {
	symbol string
	path   string
}

// resolveData expands pattern (doublestar syntax, e.g. data/**/*.csv) into
// datasets. A single match replays as symbol; several matches take their
// symbol from the file name, so data/EURUSD.csv replays EURUSD.
func resolveData(pattern, symbol string) ([]dataset, error) {
	paths, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("bad --data pattern %q: %w", pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %q", pattern)
	}
	if len(paths) == 1 {
		return []dataset{{symbol: symbol, path: paths[0]}}, nil
	}
	sort.Strings(paths)
	sets := make([]dataset, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		sets = append(sets, dataset{symbol: strings.ToUpper(name), path: p})
	}
	return sets, nil
}

func backtestCmd() *cobra.Command {
	var (
		dataPath string
		symbol   string
		interval string
		count    int
		notify   bool
	)
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay historical bars through the strategy",
		Long: `Replays bars from CSV files (time,open,high,low,close) or, without
--data, from the Yahoo Finance chart API. --data accepts glob patterns
such as 'data/**/*.csv'; each matched file is replayed as the symbol
named by its base name.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			symbol = strings.ToUpper(symbol)

			bt, err := backtest.New(cfg.Backtest, cfg.Indicators, cfg.Strategy, cfg.Risk, log)
			if err != nil {
				return err
			}

			if dataPath == "" {
				ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
				defer cancel()
				bars, err := broker.NewYahooFeed(cfg.Broker.ProxyURL, cfg.Broker.Timeout).Bars(ctx, symbol, interval, count)
				if err != nil {
					return fmt.Errorf("load bars: %w", err)
				}
				return replay(cmd.Context(), cfg, log, bt, symbol, bars, notify)
			}

			sets, err := resolveData(dataPath, symbol)
			if err != nil {
				return err
			}
			for _, ds := range sets {
				bars, err := broker.LoadCSV(ds.path)
				if err != nil {
					return fmt.Errorf("load %s: %w", ds.path, err)
				}
				if err := replay(cmd.Context(), cfg, log, bt, ds.symbol, bars, notify); err != nil {
					return fmt.Errorf("%s: %w", ds.path, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&dataPath, "data", "d", "", "CSV file or glob of files with time,open,high,low,close rows")
	cmd.Flags().StringVarP(&symbol, "symbol", "s", "EURUSD", "Instrument to replay")
	cmd.Flags().StringVar(&interval, "interval", "1d", "Bar interval when fetching from Yahoo")
	cmd.Flags().IntVar(&count, "bars", 365, "Number of bars when fetching from Yahoo")
	cmd.Flags().BoolVar(&notify, "notify", false, "Send the report to Telegram")
	return cmd
}

func replay(ctx context.Context, cfg *config.Config, log *logrus.Logger, bt *backtest.Backtester, symbol string, bars []model.OHLCV, notify bool) error {
	res, err := bt.Run(symbol, bars)
	if err != nil {
		return err
	}

	fmt.Printf("=== BACKTEST %s (%d bars) ===\n", res.Symbol, res.Bars)
	fmt.Printf("Total trades:   %d\n", res.TotalTrades)
	fmt.Printf("Winning trades: %d\n", res.Winning)
	fmt.Printf("Win rate:       %.2f%%\n", res.WinRate)
	fmt.Printf("Total P&L:      %.2f\n", res.TotalPnL)
	fmt.Printf("Final balance:  %.2f\n", res.FinalBalance)
	fmt.Printf("Return:         %.2f%%\n", res.ReturnPct)
	fmt.Printf("Max drawdown:   %.2f%%\n\n", res.MaxDrawdown)

	if notify {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		msg := notifier.FormatBacktest(res.Symbol, res.Bars, res.Performance)
		if err := notifier.New(cfg.Telegram, log).SendWithRetry(ctx, msg, cfg.Trader.NotifyRetries); err != nil {
			log.WithError(err).Warn("send backtest report")
		}
	}
	return nil
}
