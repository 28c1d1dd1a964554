// Package csv loads and stores candle series as CSV files, for offline
// backtests and for exporting fetched data.
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/collector"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/logger"
)

var header = []string{"time", "open", "high", "low", "close", "volume"}

// Provider reads candles from a CSV file with columns
// time,open,high,low,close,volume. Timestamps are RFC3339.
type Provider struct {
	path string
	log  *zap.Logger
}

// New creates a CSV provider for the given file.
func New(path string, log *zap.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{path: path, log: log}
}

func (p *Provider) Name() string {
	return "csv"
}

// FetchHistory loads the file and returns the bars inside [start, end).
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	defer f.Close()

	all, err := readBars(f, symbol, interval)
	if err != nil {
		return nil, err
	}

	var bars []core.OHLCV
	for _, b := range all {
		if b.Time.Before(start) || !b.Time.Before(end) {
			continue
		}
		bars = append(bars, b)
	}

	if len(bars) == 0 {
		return nil, core.ErrNoData
	}
	if err := collector.ValidateSeries(bars); err != nil {
		return nil, err
	}

	p.log.Debug("loaded candles from csv",
		zap.String("path", p.path),
		zap.Int("candles", len(bars)))

	return bars, nil
}

func readBars(r io.Reader, symbol, interval string) ([]core.OHLCV, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	if len(rows) == 0 {
		return nil, core.ErrNoData
	}

	// Tolerate a missing header row
	if rows[0][0] == header[0] {
		rows = rows[1:]
	}

	bars := make([]core.OHLCV, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, core.Errorf(core.ErrSchemaInvalid, "row %d has %d columns, want %d", i+1, len(row), len(header))
		}
		b, err := parseRow(row, symbol, interval)
		if err != nil {
			return nil, core.Errorf(core.ErrDataQuality, "row %d: %v", i+1, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func parseRow(row []string, symbol, interval string) (core.OHLCV, error) {
	ts, err := time.Parse(time.RFC3339, row[0])
	if err != nil {
		return core.OHLCV{}, err
	}

	var vals [5]float64
	for i, s := range row[1:] {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.OHLCV{}, err
		}
		vals[i] = v
	}

	return core.OHLCV{
		Symbol:   symbol,
		Interval: interval,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
		Time:     ts,
	}, nil
}

// WriteFile stores a candle series at path in the provider's format.
func WriteFile(path string, bars []core.OHLCV) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, b := range bars {
		row := []string{
			b.Time.UTC().Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
