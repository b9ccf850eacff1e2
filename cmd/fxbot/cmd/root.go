package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fxbot",
	Short: "A strategy-driven FX trading bot with a backtest engine",
	Long: `fxbot replays historical bar data through a simulated exchange and
lets configured strategies trade against it.

It provides tools for:
  - Backtesting strategies over cached historical bars
  - Incremental market-data caching in SQLite
  - Risk-based position sizing
  - Trade and equity journaling (SQLite or CSV)`,
}

// Execute runs the root command tree.
func Execute() error {
	return rootCmd.Execute()
}
