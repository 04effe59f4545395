package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/core"
	"github.com/tradekit/osprey/internal/logger"
	"github.com/tradekit/osprey/internal/strategy"
)

var backtestYears int

var backtestCmd = &cobra.Command{
	Use:   "backtest [symbol]",
	Short: "Run the ratio grid search for a single symbol",
	Long:  "Fetch history for a symbol, generate entry signals and search the stop/profit ratio grid for the best performing pair.",
	Args:  cobra.ExactArgs(1),
	RunE:  runBacktest,
}

func init() {
	backtestCmd.Flags().IntVar(&backtestYears, "years", 0, "years of history (defaults to config lookback)")
	rootCmd.AddCommand(backtestCmd)
}

func runBacktest(cmd *cobra.Command, args []string) error {
	symbol := args[0]

	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	coll, err := newCollector(cfg)
	if err != nil {
		return fmt.Errorf("creating collector: %w", err)
	}

	years := cfg.Backtest.LookbackYears
	if backtestYears > 0 {
		years = backtestYears
	}
	end := time.Now()
	start := end.AddDate(-years, 0, 0)

	ctx := context.Background()
	bars, err := coll.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	strat := strategy.NewMACD(strategy.MACDConfig{
		FastPeriod:     cfg.Strategy.FastPeriod,
		SlowPeriod:     cfg.Strategy.SlowPeriod,
		SignalPeriod:   cfg.Strategy.SignalPeriod,
		BaselinePeriod: cfg.Strategy.BaselinePeriod,
	})
	series, err := strat.SignalSeries(bars)
	if err != nil {
		return fmt.Errorf("building signal series: %w", err)
	}

	grid := backtest.DefaultGrid()
	if len(cfg.Backtest.StopRatios) > 0 {
		grid.StopRatios = cfg.Backtest.StopRatios
	}
	if len(cfg.Backtest.ProfitRatios) > 0 {
		grid.ProfitRatios = cfg.Backtest.ProfitRatios
	}

	optimizer, err := backtest.NewOptimizer(grid, log)
	if err != nil {
		return err
	}

	outcome, err := optimizer.Optimize(series)
	switch {
	case errors.Is(err, core.ErrNoSignals):
		fmt.Printf("%s: no entry signals in the last %d years\n", symbol, years)
		return nil
	case errors.Is(err, core.ErrNoViableConfig):
		fmt.Printf("%s: no ratio pair produced a single win, symbol would be dropped\n", symbol)
		return nil
	case err != nil:
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Symbol:\t%s\n", symbol)
	fmt.Fprintf(w, "Bars:\t%d\n", len(bars))
	fmt.Fprintf(w, "Signals:\t%d\n", len(series.SignalIndexes()))
	fmt.Fprintf(w, "Short signals (not traded):\t%d\n", len(strat.ShortEdges(bars)))
	fmt.Fprintf(w, "Stop ratio:\t%.2f\n", outcome.StopRatio)
	fmt.Fprintf(w, "Profit ratio:\t%.2f\n", outcome.ProfitRatio)
	fmt.Fprintf(w, "Win rate:\t%.2f%%\n", outcome.WinRate*100)
	fmt.Fprintf(w, "Simulated profit:\t%.2f\n", outcome.Profit)
	return w.Flush()
}
