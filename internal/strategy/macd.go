// Package strategy derives entry-signal series from raw daily bars.
package strategy

import (
	"errors"

	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/core"
	"github.com/tradekit/osprey/internal/indicator"
)

// MACDConfig holds the indicator periods for the MACD signal strategy.
type MACDConfig struct {
	FastPeriod     int
	SlowPeriod     int
	SignalPeriod   int
	BaselinePeriod int
}

// DefaultMACDConfig returns the standard MACD(12, 26, 9) setup with a
// 100-day EMA baseline.
func DefaultMACDConfig() MACDConfig {
	return MACDConfig{
		FastPeriod:     12,
		SlowPeriod:     26,
		SignalPeriod:   9,
		BaselinePeriod: 100,
	}
}

// MACD builds signal series from daily closes: a long entry fires on the
// rising edge of (MACD below zero, MACD above its signal line, close above
// the baseline EMA).
type MACD struct {
	cfg MACDConfig
}

// NewMACD creates the strategy, filling zero periods from the defaults.
func NewMACD(cfg MACDConfig) *MACD {
	def := DefaultMACDConfig()
	if cfg.FastPeriod <= 0 {
		cfg.FastPeriod = def.FastPeriod
	}
	if cfg.SlowPeriod <= 0 {
		cfg.SlowPeriod = def.SlowPeriod
	}
	if cfg.SignalPeriod <= 0 {
		cfg.SignalPeriod = def.SignalPeriod
	}
	if cfg.BaselinePeriod <= 0 {
		cfg.BaselinePeriod = def.BaselinePeriod
	}
	return &MACD{cfg: cfg}
}

func (m *MACD) Name() string {
	return "macd_baseline"
}

// SignalSeries computes the indicator columns over the bars and marks each
// step where the long condition newly becomes true.
func (m *MACD) SignalSeries(bars []core.Bar) (backtest.Series, error) {
	if len(bars) < 2 {
		return nil, core.WrapError(core.ErrNoData, errNotEnoughBars)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	macd := indicator.MACD(closes, m.cfg.FastPeriod, m.cfg.SlowPeriod, m.cfg.SignalPeriod)
	baseline := indicator.EWMA(closes, m.cfg.BaselinePeriod)

	long := make([]bool, len(bars))
	for i := range bars {
		long[i] = macd.Line[i] < 0 &&
			macd.Line[i] > macd.Signal[i] &&
			closes[i] > baseline[i]
	}

	series := make(backtest.Series, len(bars))
	for i, b := range bars {
		series[i] = backtest.Step{
			Time:     b.Time,
			Close:    b.Close,
			Baseline: baseline[i],
			// Rising edge only: the condition holding on consecutive
			// days is one entry, not several.
			Entry: i > 0 && long[i] && !long[i-1],
		}
	}

	return series, nil
}

// ShortEdges returns the indexes where the short condition newly becomes
// true. Shorts are detected and reported but never traded.
func (m *MACD) ShortEdges(bars []core.Bar) []int {
	if len(bars) < 2 {
		return nil
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	macd := indicator.MACD(closes, m.cfg.FastPeriod, m.cfg.SlowPeriod, m.cfg.SignalPeriod)
	baseline := indicator.EWMA(closes, m.cfg.BaselinePeriod)

	var edges []int
	prev := false
	for i := range bars {
		short := macd.Line[i] > 0 &&
			macd.Line[i] < macd.Signal[i] &&
			closes[i] < baseline[i]
		if i > 0 && short && !prev {
			edges = append(edges, i)
		}
		prev = short
	}
	return edges
}

var errNotEnoughBars = errors.New("need at least two bars")
