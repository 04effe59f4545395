package backtest

import (
	"time"

	"github.com/tradekit/osprey/internal/core"
)

// Step is one time step of a signal series: the closing price, the
// baseline trend level (EMA) and whether an entry signal fired on it.
type Step struct {
	Time     time.Time
	Close    float64
	Baseline float64
	Entry    bool
}

// Series is an ordered, chronological signal series for one symbol.
// The slice index is the unit of simulated time.
type Series []Step

// Validate rejects malformed series before any simulation runs.
// A series must be non-empty and, when timestamps are set, chronological.
func (s Series) Validate() error {
	if len(s) == 0 {
		return core.WrapError(core.ErrMalformedSeries, errEmptySeries)
	}
	for i := 1; i < len(s); i++ {
		if s[i].Time.IsZero() || s[i-1].Time.IsZero() {
			continue
		}
		if s[i].Time.Before(s[i-1].Time) {
			return core.WrapError(core.ErrMalformedSeries, errOutOfOrder)
		}
	}
	return nil
}

// SignalIndexes returns the indexes of all steps with a fired entry signal.
func (s Series) SignalIndexes() []int {
	var idx []int
	for i := range s {
		if s[i].Entry {
			idx = append(idx, i)
		}
	}
	return idx
}

// RatioGrid holds the candidate stop and profit ratios searched for every
// symbol. Set once at optimizer construction, immutable afterwards.
type RatioGrid struct {
	// StopRatios are multipliers applied to the baseline EMA to derive
	// the stop level. Ordered tightest first.
	StopRatios []float64
	// ProfitRatios are multipliers applied to the stop level to derive
	// the target level.
	ProfitRatios []float64
}

// DefaultGrid returns the standard search grid: stops from 95% to 100% of
// the baseline, profit targets from 1.25x to 3x the stop level.
func DefaultGrid() RatioGrid {
	return RatioGrid{
		StopRatios:   []float64{0.95, 0.96, 0.97, 0.98, 0.99, 1},
		ProfitRatios: []float64{1.25, 1.5, 1.75, 2, 2.25, 2.5, 2.75, 3},
	}
}

// Validate checks that both candidate sets are non-empty.
func (g RatioGrid) Validate() error {
	if len(g.StopRatios) == 0 || len(g.ProfitRatios) == 0 {
		return core.ErrGridInvalid
	}
	return nil
}

// TrialResult is the aggregate of simulating every historical entry signal
// under one (stop, profit) ratio pair. Recomputed every search, never stored.
type TrialResult struct {
	StopRatio   float64
	ProfitRatio float64
	Wins        int
	// WinRate divides by the total signal count, counting unresolved
	// trades against the rate.
	WinRate float64
	Profit  float64
}

// Outcome is the best result of a full grid search for one symbol.
type Outcome struct {
	StopRatio   float64
	ProfitRatio float64
	WinRate     float64
	Profit      float64
}
