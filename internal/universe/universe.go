// Package universe owns the set of tracked symbols and drives grid
// searches across them, keeping each symbol and its backtest outcome in a
// single record so the bookkeeping cannot desynchronize.
package universe

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/core"
	"go.uber.org/zap"
)

// SeriesProvider produces the signal series for a symbol.
type SeriesProvider interface {
	SignalSeries(ctx context.Context, symbol string) (backtest.Series, error)
}

// ParameterSink receives the chosen risk parameters for a symbol.
type ParameterSink interface {
	SetParameters(symbol string, params core.Parameters)
}

// MetricsRecorder receives per-symbol grid search measurements.
type MetricsRecorder interface {
	RecordOptimize(status string, duration float64)
	AddTrials(n int)
}

// Instrument is one tracked symbol together with its latest backtest
// outcome. Outcome is nil until a grid search has produced one.
type Instrument struct {
	Symbol  string
	Outcome *backtest.Outcome
}

// SymbolResult is one symbol's outcome inside a run report.
type SymbolResult struct {
	Symbol  string           `json:"symbol"`
	Outcome backtest.Outcome `json:"outcome"`
}

// Report summarizes one full optimization pass.
type Report struct {
	ID      string         `json:"id"`
	RanAt   time.Time      `json:"ran_at"`
	Results []SymbolResult `json:"results"`
	Removed []string       `json:"removed,omitempty"`
	Failed  []string       `json:"failed,omitempty"`
}

// Universe coordinates grid searches across all tracked symbols.
type Universe struct {
	provider  SeriesProvider
	optimizer *backtest.Optimizer
	logger    *zap.Logger
	recorder  MetricsRecorder

	mu          sync.RWMutex
	instruments []*Instrument
}

// New creates a Universe tracking the given symbols. Duplicates are dropped.
func New(provider SeriesProvider, optimizer *backtest.Optimizer, logger *zap.Logger, symbols ...string) *Universe {
	if logger == nil {
		logger = zap.NewNop()
	}
	u := &Universe{
		provider:  provider,
		optimizer: optimizer,
		logger:    logger,
	}
	seen := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		u.instruments = append(u.instruments, &Instrument{Symbol: s})
	}
	return u
}

// SetRecorder attaches a metrics recorder for grid search measurements.
func (u *Universe) SetRecorder(r MetricsRecorder) {
	u.recorder = r
}

// RunFull clears all prior outcomes, runs one grid search per tracked
// symbol and batch-removes every symbol with no viable configuration after
// the pass. A failure for one symbol never aborts the rest; failed symbols
// stay tracked without an outcome.
func (u *Universe) RunFull(ctx context.Context) (*Report, error) {
	u.mu.RLock()
	symbols := make([]string, len(u.instruments))
	for i, inst := range u.instruments {
		symbols[i] = inst.Symbol
	}
	u.mu.RUnlock()

	report := &Report{
		ID:    uuid.NewString(),
		RanAt: time.Now(),
	}
	outcomes := make(map[string]*backtest.Outcome, len(symbols))
	removed := make(map[string]struct{})

	grid := u.optimizer.Grid()
	trials := len(grid.StopRatios) * len(grid.ProfitRatios)

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		started := time.Now()
		outcome, err := u.optimize(ctx, symbol)
		u.record(err, time.Since(started), trials)
		switch {
		case errors.Is(err, core.ErrNoViableConfig):
			u.logger.Info("no viable configuration, removing symbol",
				zap.String("symbol", symbol))
			removed[symbol] = struct{}{}
			report.Removed = append(report.Removed, symbol)
		case err != nil:
			u.logger.Warn("grid search failed",
				zap.String("symbol", symbol),
				zap.Error(err))
			report.Failed = append(report.Failed, symbol)
		default:
			outcomes[symbol] = outcome
			report.Results = append(report.Results, SymbolResult{
				Symbol:  symbol,
				Outcome: *outcome,
			})
		}
	}

	// One batch mutation after the full pass: assign fresh outcomes and
	// drop removed symbols in a single pass over the records.
	u.mu.Lock()
	kept := u.instruments[:0]
	for _, inst := range u.instruments {
		if _, gone := removed[inst.Symbol]; gone {
			continue
		}
		inst.Outcome = outcomes[inst.Symbol]
		kept = append(kept, inst)
	}
	u.instruments = kept
	u.mu.Unlock()

	return report, nil
}

// ApplyOutcomes pushes each symbol's chosen parameters to the sink.
// Symbols without an outcome are skipped.
func (u *Universe) ApplyOutcomes(sink ParameterSink) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	for _, inst := range u.instruments {
		if inst.Outcome == nil {
			continue
		}
		sink.SetParameters(inst.Symbol, core.Parameters{
			StopRatio:   inst.Outcome.StopRatio,
			ProfitRatio: inst.Outcome.ProfitRatio,
			WinRate:     inst.Outcome.WinRate,
		})
	}
}

// Add runs a grid search for one new symbol and tracks it on success,
// applying its parameters immediately when a sink is given. A symbol whose
// search yields no viable configuration is rejected, not tracked.
func (u *Universe) Add(ctx context.Context, symbol string, sink ParameterSink) error {
	u.mu.RLock()
	tracked := u.find(symbol) != nil
	u.mu.RUnlock()
	if tracked {
		return core.ErrAlreadyTracked
	}

	outcome, err := u.optimize(ctx, symbol)
	if err != nil {
		return err
	}

	u.mu.Lock()
	// Re-check under the write lock: a concurrent Add may have won.
	if u.find(symbol) != nil {
		u.mu.Unlock()
		return core.ErrAlreadyTracked
	}
	u.instruments = append(u.instruments, &Instrument{Symbol: symbol, Outcome: outcome})
	u.mu.Unlock()

	if sink != nil {
		sink.SetParameters(symbol, core.Parameters{
			StopRatio:   outcome.StopRatio,
			ProfitRatio: outcome.ProfitRatio,
			WinRate:     outcome.WinRate,
		})
	}

	u.logger.Info("symbol added",
		zap.String("symbol", symbol),
		zap.Float64("win_rate", outcome.WinRate))
	return nil
}

// Remove drops a symbol and its outcome in one operation.
func (u *Universe) Remove(symbol string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	for i, inst := range u.instruments {
		if inst.Symbol == symbol {
			u.instruments = append(u.instruments[:i], u.instruments[i+1:]...)
			return nil
		}
	}
	return core.ErrNotTracked
}

// Get returns a copy of the record for a symbol.
func (u *Universe) Get(symbol string) (Instrument, bool) {
	u.mu.RLock()
	defer u.mu.RUnlock()

	if inst := u.find(symbol); inst != nil {
		return *inst, true
	}
	return Instrument{}, false
}

// Symbols returns the tracked symbols in order.
func (u *Universe) Symbols() []string {
	u.mu.RLock()
	defer u.mu.RUnlock()

	out := make([]string, len(u.instruments))
	for i, inst := range u.instruments {
		out[i] = inst.Symbol
	}
	return out
}

// Len returns the number of tracked symbols.
func (u *Universe) Len() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.instruments)
}

// find must be called with the lock held.
func (u *Universe) find(symbol string) *Instrument {
	for _, inst := range u.instruments {
		if inst.Symbol == symbol {
			return inst
		}
	}
	return nil
}

// record reports one grid search to the attached recorder, if any.
func (u *Universe) record(err error, elapsed time.Duration, trials int) {
	if u.recorder == nil {
		return
	}
	status := "ok"
	switch {
	case errors.Is(err, core.ErrNoViableConfig):
		status = "removed"
	case err != nil:
		status = "error"
	}
	u.recorder.RecordOptimize(status, elapsed.Seconds())
	// The grid only ran to completion when a best was selected or every
	// pair came up empty; provider and validation errors never reach it.
	if status != "error" {
		u.recorder.AddTrials(trials)
	}
}

func (u *Universe) optimize(ctx context.Context, symbol string) (*backtest.Outcome, error) {
	series, err := u.provider.SignalSeries(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return u.optimizer.Optimize(series)
}
