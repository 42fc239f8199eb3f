package cmd

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantstop/backtester/backtest"
	"github.com/quantstop/backtester/config"
	"github.com/quantstop/backtester/journal"
	"github.com/quantstop/backtester/ledger"
	"github.com/quantstop/backtester/market"
	"github.com/quantstop/backtester/metrics"
	"github.com/quantstop/backtester/strategy"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest from a configuration file",
	Long: `Run a backtest described by a configuration file.

Example:
  backtester run --config backtest.yaml`,
	RunE: runBacktest,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "backtest.yaml", "path to config file")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	ds, err := loadDataset(cfg.Data)
	if err != nil {
		return err
	}

	strat, err := strategy.New(cfg.Strategy.Name, strategy.Params{
		Symbol:     cfg.Strategy.Symbol,
		Quantity:   cfg.Strategy.Quantity,
		FastPeriod: cfg.Strategy.FastPeriod,
		SlowPeriod: cfg.Strategy.SlowPeriod,
		Lookback:   cfg.Strategy.Lookback,
		ZThreshold: cfg.Strategy.ZThreshold,
		Spread:     cfg.Strategy.Spread,
	})
	if err != nil {
		return err
	}

	led := ledger.New(ledger.Options{
		Cash:            cfg.Account.Cash,
		CashConstrained: cfg.Account.CashConstrained,
		MaxPosition:     cfg.Account.MaxPosition,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger()
	engine := backtest.New(ds, strat, led, backtest.Options{
		CloseAtEnd: cfg.Backtest.CloseAtEnd,
	}, log)

	res, err := engine.Run(ctx)
	if err != nil {
		return err
	}

	sum, err := metrics.Summarize(res.Snapshots, res.Trades, cfg.Backtest.Annualization)
	if err != nil {
		return err
	}

	runID := journal.NewRunID()
	if err := record(cfg.Journal, runID, cfg, res, sum); err != nil {
		return err
	}

	printSummary(runID, strat.Name(), res, sum)
	return nil
}

func loadDataset(d config.DataConfig) (*market.Dataset, error) {
	if d.Archive != "" {
		return market.LoadArchive(d.Archive)
	}
	return market.LoadCSV(d.Prices, d.Trades)
}

func record(jc config.JournalConfig, runID string, cfg *config.Config, res *backtest.Result, sum metrics.Summary) error {
	var (
		j   journal.Journal
		err error
	)
	switch jc.Type {
	case "", "none":
		return nil
	case "csv":
		j, err = journal.NewCSV(jc.TradesFile, jc.SnapshotsFile)
	case "sqlite":
		j, err = journal.NewSQLite(jc.DBPath)
	}
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	dataset := cfg.Data.Archive
	if dataset == "" {
		dataset = cfg.Data.Prices
	}

	return journal.RecordResult(j, journal.Run{
		RunID:    runID,
		Created:  time.Now().UTC(),
		Strategy: cfg.Strategy.Name,
		Dataset:  dataset,
		Start:    res.Start,
		End:      res.End,
		Summary:  sum,
	}, res.Snapshots, res.Trades)
}

func printSummary(runID, strat string, res *backtest.Result, sum metrics.Summary) {
	fmt.Printf("Run:        %s (%s)\n", runID, strat)
	fmt.Printf("Range:      %s -> %s (%d steps)\n",
		res.Start.Format(time.RFC3339), res.End.Format(time.RFC3339), len(res.Snapshots))
	fmt.Printf("Equity:     %.2f -> %.2f\n", sum.StartEquity, sum.EndEquity)
	fmt.Printf("Return:     %.2f%% (%.2f%% annualized)\n", sum.TotalReturn*100, sum.AnnualizedReturn*100)
	fmt.Printf("Sharpe:     %.2f\n", sum.SharpeRatio)
	fmt.Printf("Max DD:     %.2f%%\n", sum.MaxDrawdown*100)
	fmt.Printf("Trades:     %d (win rate %.1f%%, profit factor %.2f)\n",
		sum.NumTrades, sum.WinRate*100, sum.ProfitFactor)
	if len(res.Warnings) > 0 {
		fmt.Printf("Warnings:   %d (rerun with --verbose for details)\n", len(res.Warnings))
	}
}
