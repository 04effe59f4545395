package backtest

import (
	"testing"
	"time"
)

// flatSeries builds a series with a constant baseline and one entry signal
// at index 0.
func flatSeries(baseline float64, closes ...float64) Series {
	s := make(Series, len(closes))
	for i, c := range closes {
		s[i] = Step{Close: c, Baseline: baseline}
	}
	s[0].Entry = true
	return s
}

func TestSimulate_StopHit(t *testing.T) {
	// stop = 0.95 * 100 = 95, risk = 102 - 95 = 7
	s := flatSeries(100, 102, 94)

	result, profit := Simulate(s, 0, 0.95, 1.5)
	if result != TradeLoss {
		t.Fatalf("result = %v, want TradeLoss", result)
	}
	if profit != -7 {
		t.Errorf("profit = %v, want -7", profit)
	}
}

func TestSimulate_TargetHit(t *testing.T) {
	// stop = 95, target = 1.1 * 95 = 104.5
	s := flatSeries(100, 102, 200)

	result, profit := Simulate(s, 0, 0.95, 1.1)
	if result != TradeWin {
		t.Fatalf("result = %v, want TradeWin", result)
	}
	if profit != 104.5 {
		t.Errorf("profit = %v, want 104.5", profit)
	}
}

func TestSimulate_TargetBoundaryIsWin(t *testing.T) {
	// Closed interval: close exactly at the target resolves as a win.
	// target = 1.25 * 95 = 118.75
	s := flatSeries(100, 100, 118.75)

	result, profit := Simulate(s, 0, 0.95, 1.25)
	if result != TradeWin {
		t.Fatalf("result = %v, want TradeWin", result)
	}
	if profit != 118.75 {
		t.Errorf("profit = %v, want 118.75", profit)
	}
}

func TestSimulate_StopBoundaryIsLoss(t *testing.T) {
	// Closed interval: close exactly at the stop resolves as a loss.
	s := flatSeries(100, 102, 95)

	result, profit := Simulate(s, 0, 0.95, 1.5)
	if result != TradeLoss {
		t.Fatalf("result = %v, want TradeLoss", result)
	}
	if profit != -7 {
		t.Errorf("profit = %v, want -7", profit)
	}
}

func TestSimulate_Unresolved(t *testing.T) {
	// Closes stay strictly between stop (95) and target (142.5) until the
	// series ends: no win, no loss, zero profit contribution.
	s := flatSeries(100, 102, 110, 120, 130)

	result, profit := Simulate(s, 0, 0.95, 1.5)
	if result != TradeUnresolved {
		t.Fatalf("result = %v, want TradeUnresolved", result)
	}
	if profit != 0 {
		t.Errorf("profit = %v, want 0", profit)
	}
}

func TestSimulate_SignalBarItselfCanResolve(t *testing.T) {
	// The walk starts on the signal bar: an entry close already past the
	// target wins immediately.
	s := flatSeries(100, 150)

	result, profit := Simulate(s, 0, 0.95, 1.5)
	if result != TradeWin {
		t.Fatalf("result = %v, want TradeWin", result)
	}
	if profit != 142.5 {
		t.Errorf("profit = %v, want 142.5", profit)
	}
}

func TestSimulate_Pure(t *testing.T) {
	s := flatSeries(100, 102, 94)
	s[0].Time = time.Now()

	r1, p1 := Simulate(s, 0, 0.95, 1.5)
	r2, p2 := Simulate(s, 0, 0.95, 1.5)
	if r1 != r2 || p1 != p2 {
		t.Errorf("repeated calls diverged: (%v, %v) vs (%v, %v)", r1, p1, r2, p2)
	}
}
