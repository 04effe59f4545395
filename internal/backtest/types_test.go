package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/tradekit/osprey/internal/core"
)

func TestSeries_Validate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		series  Series
		wantErr bool
	}{
		{"empty", Series{}, true},
		{"single step", Series{{Close: 100, Baseline: 99}}, false},
		{
			"chronological",
			Series{
				{Close: 100, Time: now},
				{Close: 101, Time: now.AddDate(0, 0, 1)},
			},
			false,
		},
		{
			"out of order",
			Series{
				{Close: 100, Time: now},
				{Close: 101, Time: now.AddDate(0, 0, -1)},
			},
			true,
		},
		{
			"zero timestamps allowed",
			Series{{Close: 100}, {Close: 101}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.series.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, core.ErrMalformedSeries) {
				t.Errorf("error should wrap ErrMalformedSeries, got %v", err)
			}
		})
	}
}

func TestSeries_SignalIndexes(t *testing.T) {
	s := Series{
		{Close: 100},
		{Close: 101, Entry: true},
		{Close: 102},
		{Close: 103, Entry: true},
	}

	got := s.SignalIndexes()
	want := []int{1, 3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestDefaultGrid(t *testing.T) {
	g := DefaultGrid()
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(g.StopRatios) != 6 {
		t.Errorf("StopRatios count = %d, want 6", len(g.StopRatios))
	}
	if len(g.ProfitRatios) != 8 {
		t.Errorf("ProfitRatios count = %d, want 8", len(g.ProfitRatios))
	}
	if g.StopRatios[0] != 0.95 || g.StopRatios[len(g.StopRatios)-1] != 1 {
		t.Errorf("StopRatios bounds = [%v, %v], want [0.95, 1]",
			g.StopRatios[0], g.StopRatios[len(g.StopRatios)-1])
	}
	if g.ProfitRatios[0] != 1.25 || g.ProfitRatios[len(g.ProfitRatios)-1] != 3 {
		t.Errorf("ProfitRatios bounds = [%v, %v], want [1.25, 3]",
			g.ProfitRatios[0], g.ProfitRatios[len(g.ProfitRatios)-1])
	}
}

func TestRatioGrid_Validate(t *testing.T) {
	if err := (RatioGrid{StopRatios: []float64{0.95}}).Validate(); err == nil {
		t.Error("expected error for empty profit ratios")
	}
	if err := (RatioGrid{ProfitRatios: []float64{1.5}}).Validate(); err == nil {
		t.Error("expected error for empty stop ratios")
	}
}
