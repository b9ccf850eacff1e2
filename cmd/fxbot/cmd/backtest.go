package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/traderforge/fxbot/bot"
	"github.com/traderforge/fxbot/config"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Replay a historical window through the simulated exchange",
	Long: `Backtest loads the configured bar series (through the cache), replays
them tick by tick, and reports the run statistics.

Example:
  fxbot backtest --config fxbot.yaml --start 2024-01-01 --end 2024-03-01`,
	RunE: runBacktest,
}

var (
	btConfigPath string
	btStart      string
	btEnd        string
	btLogLevel   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btConfigPath, "config", "c", "fxbot.yaml", "path to config file")
	backtestCmd.Flags().StringVar(&btStart, "start", "", "override backtest start date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btEnd, "end", "", "override backtest end date (YYYY-MM-DD)")
	backtestCmd.Flags().StringVar(&btLogLevel, "log-level", "", "override log level (debug, info, warn, error)")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(btConfigPath)
	if err != nil {
		return err
	}

	if btStart != "" {
		cfg.Backtest.Start = btStart
	}
	if btEnd != "" {
		cfg.Backtest.End = btEnd
	}
	if btLogLevel != "" {
		cfg.LogLevel = btLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := bot.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Ctrl-C stops the replay; the partial result is still reported.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := bot.New(cfg, log).Run(ctx)
	if err != nil {
		return err
	}

	res.Print(os.Stdout)
	return nil
}
