package universe

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/core"
)

// mockProvider implements SeriesProvider for testing.
type mockProvider struct {
	series map[string]backtest.Series
	errs   map[string]error
}

func (m *mockProvider) SignalSeries(ctx context.Context, symbol string) (backtest.Series, error) {
	if err, ok := m.errs[symbol]; ok {
		return nil, err
	}
	s, ok := m.series[symbol]
	if !ok {
		return nil, core.ErrSymbolNotFound
	}
	return s, nil
}

// mockSink records applied parameters.
type mockSink struct {
	params map[string]core.Parameters
}

func newMockSink() *mockSink {
	return &mockSink{params: make(map[string]core.Parameters)}
}

func (m *mockSink) SetParameters(symbol string, params core.Parameters) {
	m.params[symbol] = params
}

// winningSeries resolves its single signal as a win under any grid pair.
func winningSeries() backtest.Series {
	return backtest.Series{
		{Close: 102, Baseline: 100, Entry: true},
		{Close: 400, Baseline: 100},
	}
}

// losingSeries stops out its single signal under any grid pair.
func losingSeries() backtest.Series {
	return backtest.Series{
		{Close: 102, Baseline: 100, Entry: true},
		{Close: 50, Baseline: 100},
	}
}

func newUniverse(t *testing.T, provider SeriesProvider, symbols ...string) *Universe {
	t.Helper()
	opt, err := backtest.NewOptimizer(backtest.DefaultGrid(), nil)
	if err != nil {
		t.Fatalf("NewOptimizer: %v", err)
	}
	return New(provider, opt, nil, symbols...)
}

func TestRunFull(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"AAPL": winningSeries(),
		"TSLA": winningSeries(),
	}}
	u := newUniverse(t, provider, "AAPL", "TSLA")

	report, err := u.RunFull(context.Background())
	if err != nil {
		t.Fatalf("RunFull: %v", err)
	}

	if len(report.Results) != 2 {
		t.Errorf("results = %d, want 2", len(report.Results))
	}
	if report.ID == "" {
		t.Error("expected report ID")
	}
	if u.Len() != 2 {
		t.Errorf("Len = %d, want 2", u.Len())
	}
	for _, s := range u.Symbols() {
		inst, ok := u.Get(s)
		if !ok || inst.Outcome == nil {
			t.Errorf("symbol %s missing outcome", s)
		}
	}
}

func TestRunFull_RemovesNonViable(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"AAPL": winningSeries(),
		"GME":  losingSeries(),
	}}
	u := newUniverse(t, provider, "AAPL", "GME")

	report, err := u.RunFull(context.Background())
	if err != nil {
		t.Fatalf("RunFull: %v", err)
	}

	if len(report.Removed) != 1 || report.Removed[0] != "GME" {
		t.Errorf("Removed = %v, want [GME]", report.Removed)
	}
	if u.Len() != 1 {
		t.Errorf("Len = %d, want 1", u.Len())
	}
	if _, ok := u.Get("GME"); ok {
		t.Error("GME should no longer be tracked")
	}
}

func TestRunFull_FailureIsLocal(t *testing.T) {
	provider := &mockProvider{
		series: map[string]backtest.Series{"AAPL": winningSeries()},
		errs:   map[string]error{"BAD": errors.New("feed down")},
	}
	u := newUniverse(t, provider, "BAD", "AAPL")

	report, err := u.RunFull(context.Background())
	if err != nil {
		t.Fatalf("RunFull: %v", err)
	}

	if len(report.Failed) != 1 || report.Failed[0] != "BAD" {
		t.Errorf("Failed = %v, want [BAD]", report.Failed)
	}
	if len(report.Results) != 1 {
		t.Errorf("results = %d, want 1 (failure must not abort the batch)", len(report.Results))
	}
	// Failed symbols stay tracked, without an outcome.
	inst, ok := u.Get("BAD")
	if !ok {
		t.Fatal("BAD should stay tracked")
	}
	if inst.Outcome != nil {
		t.Error("BAD should have no outcome")
	}
}

func TestRunFull_ClearsPriorOutcomes(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"AAPL": winningSeries(),
	}}
	u := newUniverse(t, provider, "AAPL")

	if _, err := u.RunFull(context.Background()); err != nil {
		t.Fatalf("first RunFull: %v", err)
	}

	// Second pass: the feed breaks, so the stale outcome must be cleared.
	provider.errs = map[string]error{"AAPL": errors.New("feed down")}
	if _, err := u.RunFull(context.Background()); err != nil {
		t.Fatalf("second RunFull: %v", err)
	}

	inst, _ := u.Get("AAPL")
	if inst.Outcome != nil {
		t.Error("stale outcome should have been cleared")
	}
}

func TestRunFull_ContextCancelled(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{"AAPL": winningSeries()}}
	u := newUniverse(t, provider, "AAPL")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := u.RunFull(ctx); err == nil {
		t.Error("expected context error")
	}
}

func TestApplyOutcomes(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"AAPL": winningSeries(),
	}}
	u := newUniverse(t, provider, "AAPL")
	if _, err := u.RunFull(context.Background()); err != nil {
		t.Fatalf("RunFull: %v", err)
	}

	sink := newMockSink()
	u.ApplyOutcomes(sink)

	p, ok := sink.params["AAPL"]
	if !ok {
		t.Fatal("parameters not applied for AAPL")
	}
	if p.WinRate != 1.0 {
		t.Errorf("WinRate = %v, want 1.0", p.WinRate)
	}
	if p.StopRatio <= 0 || p.ProfitRatio <= 0 {
		t.Errorf("ratios not set: %+v", p)
	}
}

func TestAdd(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"NVDA": winningSeries(),
	}}
	u := newUniverse(t, provider)
	sink := newMockSink()

	if err := u.Add(context.Background(), "NVDA", sink); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if u.Len() != 1 {
		t.Errorf("Len = %d, want 1", u.Len())
	}
	if _, ok := sink.params["NVDA"]; !ok {
		t.Error("parameters should be applied immediately on add")
	}
}

func TestAdd_Duplicate(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"NVDA": winningSeries(),
	}}
	u := newUniverse(t, provider, "NVDA")

	err := u.Add(context.Background(), "NVDA", nil)
	if !errors.Is(err, core.ErrAlreadyTracked) {
		t.Errorf("err = %v, want ErrAlreadyTracked", err)
	}
}

func TestAdd_NonViableRejected(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"GME": losingSeries(),
	}}
	u := newUniverse(t, provider)

	err := u.Add(context.Background(), "GME", nil)
	if !errors.Is(err, core.ErrNoViableConfig) {
		t.Errorf("err = %v, want ErrNoViableConfig", err)
	}
	if u.Len() != 0 {
		t.Error("non-viable symbol must not be tracked")
	}
}

func TestRemove(t *testing.T) {
	provider := &mockProvider{}
	u := newUniverse(t, provider, "AAPL", "TSLA")

	if err := u.Remove("AAPL"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if u.Len() != 1 {
		t.Errorf("Len = %d, want 1", u.Len())
	}
	if err := u.Remove("AAPL"); !errors.Is(err, core.ErrNotTracked) {
		t.Errorf("err = %v, want ErrNotTracked", err)
	}
}

func TestUniverse_RecordInvariant(t *testing.T) {
	// Every tracked symbol carries exactly one record, so symbol count and
	// outcome-record count cannot diverge through any call sequence.
	provider := &mockProvider{series: map[string]backtest.Series{
		"A": winningSeries(),
		"B": losingSeries(),
		"C": winningSeries(),
	}}
	u := newUniverse(t, provider, "A", "B")

	ctx := context.Background()
	if _, err := u.RunFull(ctx); err != nil {
		t.Fatalf("RunFull: %v", err)
	}
	if err := u.Add(ctx, "C", nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := u.Remove("A"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := u.RunFull(ctx); err != nil {
		t.Fatalf("second RunFull: %v", err)
	}

	symbols := u.Symbols()
	if len(symbols) != u.Len() {
		t.Errorf("Symbols len %d != Len %d", len(symbols), u.Len())
	}
	for _, s := range symbols {
		if _, ok := u.Get(s); !ok {
			t.Errorf("missing record for %s", s)
		}
	}
}

func TestNew_DropsDuplicates(t *testing.T) {
	u := newUniverse(t, &mockProvider{}, "AAPL", "AAPL", "TSLA")
	if u.Len() != 2 {
		t.Errorf("Len = %d, want 2", u.Len())
	}
}

func TestRunFull_ManySymbols(t *testing.T) {
	series := make(map[string]backtest.Series)
	var symbols []string
	for i := 0; i < 20; i++ {
		sym := fmt.Sprintf("SYM%02d", i)
		symbols = append(symbols, sym)
		if i%3 == 0 {
			series[sym] = losingSeries()
		} else {
			series[sym] = winningSeries()
		}
	}
	u := newUniverse(t, &mockProvider{series: series}, symbols...)

	report, err := u.RunFull(context.Background())
	if err != nil {
		t.Fatalf("RunFull: %v", err)
	}
	if len(report.Removed)+len(report.Results) != 20 {
		t.Errorf("removed %d + results %d != 20", len(report.Removed), len(report.Results))
	}
	if u.Len() != len(report.Results) {
		t.Errorf("Len = %d, want %d", u.Len(), len(report.Results))
	}
}

// mockRecorder captures grid search measurements.
type mockRecorder struct {
	statuses []string
	trials   int
}

func (m *mockRecorder) RecordOptimize(status string, duration float64) {
	m.statuses = append(m.statuses, status)
}

func (m *mockRecorder) AddTrials(n int) {
	m.trials += n
}

func TestRunFull_RecordsMetrics(t *testing.T) {
	provider := &mockProvider{
		series: map[string]backtest.Series{
			"AAPL": winningSeries(),
			"GME":  losingSeries(),
		},
		errs: map[string]error{"BAD": fmt.Errorf("transient feed outage")},
	}
	u := newUniverse(t, provider, "AAPL", "GME", "BAD")

	rec := &mockRecorder{}
	u.SetRecorder(rec)

	if _, err := u.RunFull(context.Background()); err != nil {
		t.Fatalf("RunFull: %v", err)
	}

	if len(rec.statuses) != 3 {
		t.Fatalf("recorded %d optimizations, want 3", len(rec.statuses))
	}
	counts := make(map[string]int)
	for _, s := range rec.statuses {
		counts[s]++
	}
	if counts["ok"] != 1 || counts["removed"] != 1 || counts["error"] != 1 {
		t.Errorf("statuses = %v, want one each of ok/removed/error", rec.statuses)
	}

	// Trials are counted only for searches that ran the full grid.
	grid := backtest.DefaultGrid()
	want := 2 * len(grid.StopRatios) * len(grid.ProfitRatios)
	if rec.trials != want {
		t.Errorf("trials = %d, want %d", rec.trials, want)
	}
}

func TestRunFull_NoRecorder(t *testing.T) {
	provider := &mockProvider{series: map[string]backtest.Series{
		"AAPL": winningSeries(),
	}}
	u := newUniverse(t, provider, "AAPL")

	// Must not panic without a recorder attached.
	if _, err := u.RunFull(context.Background()); err != nil {
		t.Fatalf("RunFull: %v", err)
	}
}
