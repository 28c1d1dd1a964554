package report

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/storage/archive"
)

// Archiver persists run artifacts (JSON report, CSV trade ledger) through an
// archive storage backend, keyed by run ID.
type Archiver struct {
	store archive.Storage
	log   *zap.Logger
}

// NewArchiver creates an Archiver on the given storage backend.
func NewArchiver(store archive.Storage, log *zap.Logger) *Archiver {
	if log == nil {
		log = logger.Nop()
	}
	return &Archiver{store: store, log: log}
}

// Save writes report.json and trades.csv under the result's run ID and
// returns the stored paths.
func (a *Archiver) Save(ctx context.Context, res *backtest.Result, rep Report) ([]string, error) {
	reportJSON, err := ToJSON(rep)
	if err != nil {
		return nil, err
	}
	tradesCSV, err := TradesCSV(res.Trades)
	if err != nil {
		return nil, err
	}

	reportPath := path.Join(res.RunID, "report.json")
	if exists, err := a.store.Exists(ctx, reportPath); err == nil && exists {
		a.log.Warn("overwriting existing run artifacts", zap.String("run_id", res.RunID))
	}
	if err := a.store.Write(ctx, reportPath, reportJSON); err != nil {
		return nil, err
	}

	tradesPath := path.Join(res.RunID, "trades.csv")
	if err := a.store.Write(ctx, tradesPath, tradesCSV); err != nil {
		return nil, err
	}

	a.log.Info("saved backtest artifacts",
		zap.String("run_id", res.RunID),
		zap.String("report", reportPath),
		zap.String("trades", tradesPath))

	return []string{reportPath, tradesPath}, nil
}

// ListRuns returns the run IDs that have artifacts in the archive.
func (a *Archiver) ListRuns(ctx context.Context) ([]string, error) {
	paths, err := a.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var runs []string
	for _, p := range paths {
		id, _, found := strings.Cut(p, "/")
		if !found || seen[id] {
			continue
		}
		seen[id] = true
		runs = append(runs, id)
	}
	sort.Strings(runs)
	return runs, nil
}

// LoadReport reads back the stored report for a run ID.
func (a *Archiver) LoadReport(ctx context.Context, runID string) (Report, error) {
	data, err := a.store.Read(ctx, path.Join(runID, "report.json"))
	if err != nil {
		return Report{}, err
	}
	var rep Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// DeleteRun removes all artifacts stored under a run ID.
func (a *Archiver) DeleteRun(ctx context.Context, runID string) error {
	paths, err := a.store.List(ctx, runID)
	if err != nil {
		return err
	}
	for _, p := range paths {
		if err := a.store.Delete(ctx, p); err != nil {
			return err
		}
	}
	a.log.Info("deleted run artifacts", zap.String("run_id", runID), zap.Int("files", len(paths)))
	return nil
}
