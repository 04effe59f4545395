package core

import "time"

// Bar represents one daily price bar.
type Bar struct {
	Symbol string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	Time   time.Time
}

// IsValid checks if the bar has required fields.
func (b Bar) IsValid() bool {
	return b.Symbol != "" && b.Close > 0
}

// Parameters holds the live trading parameters chosen for one symbol
// by the backtest optimizer.
type Parameters struct {
	// StopRatio is the multiplier applied to the baseline EMA to derive
	// the stop-loss level.
	StopRatio float64
	// ProfitRatio is the multiplier applied to the stop level to derive
	// the take-profit level.
	ProfitRatio float64
	// WinRate is the historical win rate under these ratios, used to
	// scale position size.
	WinRate float64
}

// DefaultParameters returns the parameters used before a backtest has run.
func DefaultParameters() Parameters {
	return Parameters{
		StopRatio:   0.95,
		ProfitRatio: 1.5,
		WinRate:     1,
	}
}
