package archive

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tradekit/osprey/internal/backtest"
	"github.com/tradekit/osprey/internal/universe"
)

func sampleReport() *universe.Report {
	return &universe.Report{
		ID:    "6f1c9a2e-0000-4000-8000-000000000001",
		RanAt: time.Date(2026, 8, 28, 15, 0, 0, 0, time.UTC),
		Results: []universe.SymbolResult{
			{
				Symbol: "AAPL",
				Outcome: backtest.Outcome{
					StopRatio:   0.97,
					ProfitRatio: 1.5,
					WinRate:     0.6,
					Profit:      1240.5,
				},
			},
		},
		Removed: []string{"XYZ"},
	}
}

func TestArchive_SaveLoadReport(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	a := New(fs)
	ctx := context.Background()

	report := sampleReport()
	p, err := a.SaveReport(ctx, report)
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if !strings.HasPrefix(p, "reports/2026/08/") {
		t.Errorf("unexpected report path: %s", p)
	}
	if !strings.Contains(p, report.ID) {
		t.Errorf("path should embed the run ID: %s", p)
	}

	got, err := a.LoadReport(ctx, p)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if got.ID != report.ID {
		t.Errorf("ID = %s, want %s", got.ID, report.ID)
	}
	if len(got.Results) != 1 || got.Results[0].Outcome.StopRatio != 0.97 {
		t.Errorf("unexpected results: %+v", got.Results)
	}
	if len(got.Removed) != 1 || got.Removed[0] != "XYZ" {
		t.Errorf("unexpected removed list: %v", got.Removed)
	}
}

func TestArchive_ListReports(t *testing.T) {
	dir := t.TempDir()
	fs, _ := NewLocalFS(dir)
	a := New(fs)
	ctx := context.Background()

	first := sampleReport()
	second := sampleReport()
	second.ID = "6f1c9a2e-0000-4000-8000-000000000002"
	second.RanAt = second.RanAt.AddDate(0, 1, 0)

	// Save out of order to make sure listing sorts by run time.
	if _, err := a.SaveReport(ctx, second); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	if _, err := a.SaveReport(ctx, first); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	// Stray files under the prefix are not reports.
	if err := fs.Write(ctx, "reports/2026/08/notes.txt", []byte("scratch")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	paths, err := a.ListReports(ctx)
	if err != nil {
		t.Fatalf("ListReports: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 reports, got %d: %v", len(paths), paths)
	}
	if !strings.Contains(paths[0], first.ID) || !strings.Contains(paths[1], second.ID) {
		t.Errorf("reports not in run order: %v", paths)
	}
}
