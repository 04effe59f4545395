package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/broker"
	"github.com/tradekit/osprey/internal/collector"
	"github.com/tradekit/osprey/internal/config"
	"github.com/tradekit/osprey/internal/core"
	"github.com/tradekit/osprey/internal/metrics"
	"github.com/tradekit/osprey/internal/storage/archive"
	"github.com/tradekit/osprey/internal/strategy"
	"github.com/tradekit/osprey/internal/universe"
)

// App is the main application orchestrator. Once a day it refreshes the
// history for every tracked symbol, re-runs the ratio grid search, applies
// the chosen parameters and submits bracket orders for fresh entry signals.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	metrics  *metrics.Registry
	coll     collector.Collector
	strat    *strategy.MACD
	universe *universe.Universe
	broker   broker.Broker
	sizer    *broker.Sizer
	archive  *archive.Archive
	loc      *time.Location
	runAt    time.Duration
	lookback time.Duration

	mu      sync.RWMutex
	series  map[string]backtest.Series
	params  map[string]core.Parameters
	running bool
	cancel  context.CancelFunc
}

// Options bundles the injectable pieces of an App.
type Options struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *metrics.Registry
	Collector collector.Collector
	Broker    broker.Broker
	Archive   *archive.Archive
}

// New creates a new App instance. The universe is seeded from the
// configured watchlist.
func New(opts Options) (*App, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}
	runAt, err := config.ParseRunAt(cfg.Schedule.RunAt)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	grid := backtest.DefaultGrid()
	if len(cfg.Backtest.StopRatios) > 0 {
		grid.StopRatios = cfg.Backtest.StopRatios
	}
	if len(cfg.Backtest.ProfitRatios) > 0 {
		grid.ProfitRatios = cfg.Backtest.ProfitRatios
	}
	optimizer, err := backtest.NewOptimizer(grid, logger)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: opts.Metrics,
		coll:    opts.Collector,
		strat: strategy.NewMACD(strategy.MACDConfig{
			FastPeriod:     cfg.Strategy.FastPeriod,
			SlowPeriod:     cfg.Strategy.SlowPeriod,
			SignalPeriod:   cfg.Strategy.SignalPeriod,
			BaselinePeriod: cfg.Strategy.BaselinePeriod,
		}),
		broker:   opts.Broker,
		sizer:    broker.NewSizer(cfg.Risk.Fraction),
		archive:  opts.Archive,
		loc:      loc,
		runAt:    runAt,
		lookback: time.Duration(cfg.Backtest.LookbackYears) * 365 * 24 * time.Hour,
		series:   make(map[string]backtest.Series),
		params:   make(map[string]core.Parameters),
	}
	a.universe = universe.New(a, optimizer, logger, cfg.Watchlist...)
	if opts.Metrics != nil {
		a.universe.SetRecorder(opts.Metrics)
	}
	return a, nil
}

// Universe exposes the tracked instrument set.
func (a *App) Universe() *universe.Universe {
	return a.universe
}

// SignalSeries fetches daily bars for a symbol over the lookback window and
// turns them into a signal series. The series is cached so order placement
// after a run can reuse the latest step.
func (a *App) SignalSeries(ctx context.Context, symbol string) (backtest.Series, error) {
	end := time.Now()
	start := end.Add(-a.lookback)

	bars, err := a.coll.FetchDailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.AddBarsFetched(a.coll.Name(), len(bars))
	}

	series, err := a.strat.SignalSeries(bars)
	if err != nil {
		return nil, err
	}

	// Shorts are detected and surfaced but never traded.
	if edges := a.strat.ShortEdges(bars); len(edges) > 0 {
		if edges[len(edges)-1] == len(bars)-1 {
			a.logger.Info("short position detected, not traded",
				zap.String("symbol", symbol))
		}
		a.logger.Debug("short signals in history",
			zap.String("symbol", symbol),
			zap.Int("count", len(edges)))
	}

	a.mu.Lock()
	a.series[symbol] = series
	a.mu.Unlock()
	return series, nil
}

// SetParameters records the chosen risk parameters for a symbol.
func (a *App) SetParameters(symbol string, params core.Parameters) {
	a.mu.Lock()
	a.params[symbol] = params
	a.mu.Unlock()
}

// Parameters returns the recorded parameters for a symbol.
func (a *App) Parameters(symbol string) (core.Parameters, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	p, ok := a.params[symbol]
	return p, ok
}

// Start begins the daily loop. It blocks until the context is cancelled.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return fmt.Errorf("app already running")
	}
	a.running = true
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	a.logger.Info("osprey starting",
		zap.Int("watchlist_count", a.universe.Len()),
		zap.String("run_at", a.cfg.Schedule.RunAt),
		zap.String("timezone", a.cfg.Schedule.Timezone),
	)

	for {
		next := a.nextRun(time.Now().In(a.loc))
		a.logger.Info("next run scheduled", zap.Time("at", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Info("osprey shutting down")
			a.mu.Lock()
			a.running = false
			a.mu.Unlock()
			return ctx.Err()
		case <-timer.C:
			a.RunOnce(ctx)
		}
	}
}

// Stop stops the daily loop.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
	}
}

// nextRun returns the next wall-clock run time strictly after now.
func (a *App) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc).Add(a.runAt)
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// RunOnce performs one full cycle: optimize every tracked symbol, archive
// the report, apply the outcomes and submit orders for fresh signals.
func (a *App) RunOnce(ctx context.Context) {
	started := time.Now()

	report, err := a.universe.RunFull(ctx)
	if err != nil {
		a.logger.Error("run failed", zap.Error(err))
		if a.metrics != nil {
			a.metrics.RecordRun("error", time.Since(started).Seconds())
		}
		return
	}

	if a.metrics != nil {
		a.metrics.RecordRun("ok", time.Since(started).Seconds())
		a.metrics.SetInstrumentsTracked(a.universe.Len())
		for range report.Removed {
			a.metrics.RecordInstrumentRemoved()
		}
	}

	for _, symbol := range report.Removed {
		a.logger.Info("instrument removed, no viable configuration",
			zap.String("symbol", symbol))
	}

	if a.archive != nil {
		if path, err := a.archive.SaveReport(ctx, report); err != nil {
			a.logger.Error("archiving report failed", zap.Error(err))
		} else {
			a.logger.Info("report archived", zap.String("path", path))
		}
	}

	a.universe.ApplyOutcomes(a)
	a.placeOrders(ctx)
}

// placeOrders submits a bracket order for every tracked symbol whose most
// recent step is an entry signal.
func (a *App) placeOrders(ctx context.Context) {
	if a.broker == nil || !a.cfg.Broker.Enabled {
		return
	}

	for _, symbol := range a.universe.Symbols() {
		a.mu.RLock()
		series := a.series[symbol]
		params, haveParams := a.params[symbol]
		a.mu.RUnlock()

		if !haveParams || len(series) == 0 {
			continue
		}
		last := series[len(series)-1]
		if !last.Entry {
			continue
		}

		balance, err := a.broker.GetBalance(ctx)
		if err != nil {
			a.logger.Error("fetching balance failed",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		req, err := a.sizer.Request(symbol, last.Close, last.Baseline, params, balance)
		if err != nil {
			a.logger.Error("sizing order failed",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		order, err := a.broker.PlaceBracketOrder(ctx, req)
		if err != nil {
			a.logger.Error("placing order failed",
				zap.String("symbol", symbol), zap.Error(err))
			if a.metrics != nil {
				a.metrics.RecordOrder("error")
			}
			continue
		}

		if a.metrics != nil {
			a.metrics.RecordOrder("accepted")
		}
		a.logger.Info("bracket order submitted",
			zap.String("symbol", symbol),
			zap.String("order_id", order.OrderID),
			zap.Float64("qty", req.Qty),
			zap.Float64("take_profit", req.TakeProfit),
			zap.Float64("stop_loss", req.StopLoss),
		)
	}
}
