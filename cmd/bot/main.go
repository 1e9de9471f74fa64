// fxsentinel scores forex quotes with technical indicators and trades the
// confident signals on a paper or live account.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"FXSentinel/internal/broker"
	"FXSentinel/internal/calculator"
	"FXSentinel/internal/config"
	"FXSentinel/internal/logging"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/risk"
	"FXSentinel/internal/strategy"
	"FXSentinel/internal/trader"
)

var (
	version    = "0.1.0"
	configPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fxsentinel",
		Short: "Forex signal scoring and trading bot",
		Long: `fxsentinel computes technical indicators over forex quotes, scores
them into BUY/SELL/HOLD signals weighted by trading session, and sizes
orders under a loss-streak brake.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (defaults to CONFIG_PATH or "+config.DefaultPath+")")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(backtestCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fxsentinel version %s\n", version)
		},
	}
}

func loadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, logging.New(cfg.Log.Level, cfg.Log.Format), nil
}

func runCmd() *cobra.Command {
	var runNow bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the trading loop until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			if os.Getenv("RUN_ON_START") == "true" {
				runNow = true
			}
			return run(cfg, log, runNow)
		},
	}
	cmd.Flags().BoolVar(&runNow, "now", false, "Run one cycle immediately instead of waiting for the schedule (also RUN_ON_START=true)")
	return cmd
}

func run(cfg *config.Config, log *logrus.Logger, runNow bool) error {
	log.WithFields(logrus.Fields{"version": version, "mode": cfg.Broker.Mode}).Info("FXSentinel starting")

	conn, err := broker.Connect(cfg.Broker, log)
	if err != nil {
		return fmt.Errorf("connect broker: %w", err)
	}

	sizer, err := risk.NewSizer(cfg.Risk, log)
	if err != nil {
		return fmt.Errorf("init risk sizer: %w", err)
	}

	rec := recorder.Open(cfg.Database, log)
	defer rec.Close()

	tn := notifier.New(cfg.Telegram, log)

	session := trader.NewSession(cfg.Trader, trader.Deps{
		Feed:     conn.Feed,
		Gateway:  conn.Gateway,
		Account:  conn.Account,
		History:  conn.History,
		Engine:   calculator.NewEngine(cfg.Indicators),
		Scorer:   strategy.NewScorer(cfg.Strategy, cfg.Indicators),
		Sizer:    sizer,
		Recorder: rec,
		Notifier: tn,
		Log:      log,
		Mode:     cfg.Broker.Mode,
	})

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	session.Warmup(ctx)
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start trader: %w", err)
	}
	defer session.Stop()

	if telegram, ok := tn.(*notifier.TelegramNotifier); ok {
		go telegram.StartPolling(ctx, session.HandleCommand)
		log.Info("telegram polling started")
	}

	if runNow {
		log.Info("running first cycle now")
		go func() {
			if err := session.RunCycle(ctx); err != nil && ctx.Err() == nil {
				log.WithError(err).Error("initial cycle aborted")
			}
		}()
	}

	log.Info("FXSentinel is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, stopping...")
	cancel()
	return nil
}
