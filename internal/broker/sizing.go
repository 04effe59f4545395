package broker

import (
	"fmt"
	"math"

	"github.com/tradekit/osprey/internal/core"
)

// Sizer turns backtested parameters into bracket order requests. The wager
// is a fixed fraction of available cash, scaled down by the historical win
// rate of the chosen ratios.
type Sizer struct {
	fraction float64
}

// NewSizer creates a Sizer. A non-positive fraction falls back to 10%.
func NewSizer(fraction float64) *Sizer {
	if fraction <= 0 {
		fraction = 0.10
	}
	return &Sizer{fraction: fraction}
}

// Notional returns the dollar amount to wager for one entry.
func (s *Sizer) Notional(balance *Balance, winRate float64) float64 {
	return balance.Cash * s.fraction * winRate
}

// Request builds the bracket order for an entry signal. The stop level is
// stopRatio times the baseline EMA at entry, the target is profitRatio
// times the stop level; both are rounded to cents before submission.
func (s *Sizer) Request(symbol string, lastClose, baseline float64, params core.Parameters, balance *Balance) (BracketOrderRequest, error) {
	if lastClose <= 0 {
		return BracketOrderRequest{}, fmt.Errorf("sizing %s: last close must be positive, got %v", symbol, lastClose)
	}
	if baseline <= 0 {
		return BracketOrderRequest{}, fmt.Errorf("sizing %s: baseline must be positive, got %v", symbol, baseline)
	}

	stopLoss := roundCents(params.StopRatio * baseline)
	takeProfit := roundCents(stopLoss * params.ProfitRatio)
	notional := s.Notional(balance, params.WinRate)

	req := BracketOrderRequest{
		Symbol:      symbol,
		Qty:         notional / lastClose,
		Notional:    notional,
		TakeProfit:  takeProfit,
		StopLoss:    stopLoss,
		TimeInForce: "day",
	}
	if err := req.Validate(); err != nil {
		return BracketOrderRequest{}, err
	}
	return req, nil
}

func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
