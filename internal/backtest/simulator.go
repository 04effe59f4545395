package backtest

import "errors"

var (
	errEmptySeries = errors.New("empty series")
	errOutOfOrder  = errors.New("timestamps not chronological")
)

// TradeResult classifies the outcome of one simulated trade.
type TradeResult int

const (
	// TradeUnresolved means the series ended before either level was hit.
	// It contributes nothing to wins or profit but still counts against
	// the win rate.
	TradeUnresolved TradeResult = iota
	// TradeWin means the target level was reached.
	TradeWin
	// TradeLoss means the stop level was reached.
	TradeLoss
)

// Simulate runs one historical entry signal forward under a candidate
// (stopRatio, profitRatio) pair. Pure function of its inputs.
//
// The stop level is stopRatio times the baseline at the signal step, the
// target is profitRatio times the stop level. The walk starts on the signal
// step itself; a close at or above the target wins +target, a close at or
// below the stop loses the risk amount (entry close minus stop). Both
// comparisons are closed intervals. The target check runs first, so a bar
// satisfying both resolves as a win.
func Simulate(s Series, signalIdx int, stopRatio, profitRatio float64) (TradeResult, float64) {
	stop := stopRatio * s[signalIdx].Baseline
	risk := s[signalIdx].Close - stop
	target := profitRatio * stop

	for t := signalIdx; t < len(s); t++ {
		if s[t].Close >= target {
			return TradeWin, target
		}
		if s[t].Close <= stop {
			return TradeLoss, -risk
		}
	}
	return TradeUnresolved, 0
}
