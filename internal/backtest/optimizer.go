package backtest

import (
	"github.com/tradekit/osprey/internal/core"
	"go.uber.org/zap"
)

// Optimizer searches a ratio grid for the pair that best balances win rate
// and cumulative profit over a symbol's historical entry signals.
type Optimizer struct {
	grid   RatioGrid
	logger *zap.Logger
}

// NewOptimizer creates an Optimizer over the given grid.
func NewOptimizer(grid RatioGrid, logger *zap.Logger) (*Optimizer, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{grid: grid, logger: logger}, nil
}

// Grid returns the search grid.
func (o *Optimizer) Grid() RatioGrid {
	return o.grid
}

// best is the accumulator threaded through the grid traversal.
type best struct {
	accuracy    float64
	profit      float64
	stopRatio   float64
	profitRatio float64
}

// Optimize runs the full grid search over one series and returns the best
// outcome. It returns core.ErrNoSignals when the series has no entry
// signals, and core.ErrNoViableConfig when no ratio pair ever produced a
// win, which callers treat as a removal marker rather than a failure.
//
// The traversal order is significant: stops outer and tightest first,
// profits inner. A trial replaces the running best when its win rate is
// strictly greater OR its profit is at least the best profit. Win rate
// tends to fall and profit to rise as ratios loosen, so the OR keeps
// later, looser trials in contention.
func (o *Optimizer) Optimize(series Series) (*Outcome, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	signals := series.SignalIndexes()
	if len(signals) == 0 {
		return nil, core.ErrNoSignals
	}

	var b best
	for _, stop := range o.grid.StopRatios {
		for _, profit := range o.grid.ProfitRatios {
			trial := o.evaluate(series, signals, stop, profit)
			if trial.WinRate > b.accuracy || trial.Profit >= b.profit {
				b = best{
					accuracy:    trial.WinRate,
					profit:      trial.Profit,
					stopRatio:   trial.StopRatio,
					profitRatio: trial.ProfitRatio,
				}
			}
		}
	}

	if b.accuracy == 0 {
		return nil, core.ErrNoViableConfig
	}

	o.logger.Debug("grid search complete",
		zap.Int("signals", len(signals)),
		zap.Float64("stop_ratio", b.stopRatio),
		zap.Float64("profit_ratio", b.profitRatio),
		zap.Float64("win_rate", b.accuracy),
		zap.Float64("profit", b.profit),
	)

	return &Outcome{
		StopRatio:   b.stopRatio,
		ProfitRatio: b.profitRatio,
		WinRate:     b.accuracy,
		Profit:      b.profit,
	}, nil
}

// evaluate simulates every entry signal under one ratio pair.
// Unresolved trades stay in the win-rate denominator.
func (o *Optimizer) evaluate(series Series, signals []int, stopRatio, profitRatio float64) TrialResult {
	var wins int
	var profit float64

	for _, idx := range signals {
		result, contribution := Simulate(series, idx, stopRatio, profitRatio)
		if result == TradeWin {
			wins++
		}
		profit += contribution
	}

	return TrialResult{
		StopRatio:   stopRatio,
		ProfitRatio: profitRatio,
		Wins:        wins,
		WinRate:     float64(wins) / float64(len(signals)),
		Profit:      profit,
	}
}
