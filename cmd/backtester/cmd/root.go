package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backtester",
	Short: "Replay trading strategies against recorded market data",
	Long: `Backtester replays a trading strategy bar-by-bar against recorded
price and trade data, tracks cash and positions through a portfolio
ledger, and reports the PnL trajectory and risk metrics of the run.

It provides tools for:
  - Running backtests from CSV (or compressed/zipped) datasets
  - Built-in strategies: sma-cross, ema-cross, mean-reversion, market-maker, open-once, noop
  - Journaling trades, equity snapshots and run summaries to CSV or SQLite
  - Performance summaries: returns, Sharpe ratio, drawdown, win rate`,
}

var verbose bool

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-order warnings")
}

// logger builds the CLI's console logger; warnings are suppressed
// unless --verbose is set.
func logger() zerolog.Logger {
	level := zerolog.ErrorLevel
	if verbose {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
