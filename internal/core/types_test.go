package core

import (
	"testing"
	"time"
)

func TestBar_IsValid(t *testing.T) {
	b := Bar{
		Symbol: "AAPL",
		Open:   182.1,
		High:   184.9,
		Low:    181.4,
		Close:  183.2,
		Volume: 52000000,
		Time:   time.Now(),
	}

	if !b.IsValid() {
		t.Error("expected valid bar")
	}

	invalid := Bar{Symbol: "", Close: 0}
	if invalid.IsValid() {
		t.Error("expected invalid bar")
	}
}

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()
	if p.StopRatio != 0.95 {
		t.Errorf("StopRatio = %v, want 0.95", p.StopRatio)
	}
	if p.ProfitRatio != 1.5 {
		t.Errorf("ProfitRatio = %v, want 1.5", p.ProfitRatio)
	}
	if p.WinRate != 1 {
		t.Errorf("WinRate = %v, want 1", p.WinRate)
	}
}
