package report

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/storage/archive"
)

func newTestArchiver(t *testing.T) (*Archiver, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := archive.NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	return NewArchiver(store, nil), dir
}

func testResult() *backtest.Result {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return &backtest.Result{
		RunID:      "run-1234",
		StartValue: 10000,
		EndValue:   11000,
		Trades: []backtest.Trade{
			{
				EntryTime:  start,
				ExitTime:   start.Add(2 * time.Hour),
				EntryPrice: 100,
				ExitPrice:  110,
				Quantity:   100,
				Return:     0.1,
				Reason:     backtest.ExitSignal,
			},
		},
	}
}

func TestArchiverSaveAndLoad(t *testing.T) {
	a, dir := newTestArchiver(t)
	ctx := context.Background()

	res := testResult()
	rep := Report{RunID: res.RunID, Symbol: "BTCUSDT", Variant: "baseline", TotalReturnPct: 10, TotalTrades: 1}

	paths, err := a.Save(ctx, res, rep)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(paths) != 2 || paths[0] != "run-1234/report.json" || paths[1] != "run-1234/trades.csv" {
		t.Fatalf("unexpected paths: %v", paths)
	}
	for _, p := range paths {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("artifact %s not on disk: %v", p, err)
		}
	}

	loaded, err := a.LoadReport(ctx, res.RunID)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if loaded.Symbol != "BTCUSDT" || loaded.TotalReturnPct != 10 || loaded.TotalTrades != 1 {
		t.Errorf("loaded report mismatch: %+v", loaded)
	}
}

func TestArchiverSaveOverwrite(t *testing.T) {
	a, _ := newTestArchiver(t)
	ctx := context.Background()

	res := testResult()
	rep := Report{RunID: res.RunID, TotalReturnPct: 10}
	if _, err := a.Save(ctx, res, rep); err != nil {
		t.Fatalf("first Save: %v", err)
	}

	rep.TotalReturnPct = 20
	if _, err := a.Save(ctx, res, rep); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	loaded, err := a.LoadReport(ctx, res.RunID)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if loaded.TotalReturnPct != 20 {
		t.Errorf("TotalReturnPct = %v, want overwritten value 20", loaded.TotalReturnPct)
	}
}

func TestArchiverListRuns(t *testing.T) {
	a, _ := newTestArchiver(t)
	ctx := context.Background()

	runs, err := a.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Fatalf("runs = %v, want empty", runs)
	}

	for _, id := range []string{"run-b", "run-a"} {
		res := testResult()
		res.RunID = id
		if _, err := a.Save(ctx, res, Report{RunID: id}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	runs, err = a.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 2 || runs[0] != "run-a" || runs[1] != "run-b" {
		t.Errorf("runs = %v, want sorted [run-a run-b]", runs)
	}
}

func TestArchiverDeleteRun(t *testing.T) {
	a, _ := newTestArchiver(t)
	ctx := context.Background()

	res := testResult()
	if _, err := a.Save(ctx, res, Report{RunID: res.RunID}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := a.DeleteRun(ctx, res.RunID); err != nil {
		t.Fatalf("DeleteRun: %v", err)
	}

	runs, err := a.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("runs after delete = %v, want empty", runs)
	}
}

func TestArchiverLoadMissing(t *testing.T) {
	a, _ := newTestArchiver(t)
	if _, err := a.LoadReport(context.Background(), "nope"); err == nil {
		t.Error("expected error for missing run")
	}
}
