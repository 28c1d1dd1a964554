package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/collector"
	binancecollector "github.com/velalab/vela/internal/collector/binance"
	csvcollector "github.com/velalab/vela/internal/collector/csv"
	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/storage/archive"
)

// loadConfig loads the config file given by the global flag, or defaults.
func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newProvider selects the candle source: a CSV file when given, the
// configured exchange otherwise.
func newProvider(cfg *config.Config, csvPath string, log *zap.Logger) (collector.Provider, error) {
	if csvPath != "" {
		return csvcollector.New(csvPath, log), nil
	}
	switch cfg.Exchange {
	case "binance":
		return binancecollector.New("", "", log), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", cfg.Exchange)
	}
}

// newStore builds the artifact storage backend from config.
func newStore(cfg *config.Config) (archive.Storage, error) {
	switch cfg.Archive.Type {
	case "localfs":
		return archive.NewLocalFS(cfg.Archive.Path)
	case "s3":
		return archive.NewS3(archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			Prefix:    cfg.Archive.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unsupported archive type: %s", cfg.Archive.Type)
	}
}

// resolveRange parses the --from/--to flags, falling back to the last
// candle_limit bars before now.
func resolveRange(cfg *config.Config, fromFlag, toFlag string) (time.Time, time.Time, error) {
	end := time.Now().UTC()
	if toFlag != "" {
		parsed, err := time.Parse("2006-01-02", toFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
		end = parsed
	}

	var start time.Time
	if fromFlag != "" {
		parsed, err := time.Parse("2006-01-02", fromFlag)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
		start = parsed
	} else {
		mins := core.IntervalMinutes(cfg.Interval)
		start = end.Add(-time.Duration(cfg.CandleLimit*mins) * time.Minute)
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must be after start date")
	}
	return start, end, nil
}

// fetchCandles pulls and validates the candle series for a run.
func fetchCandles(ctx context.Context, p collector.Provider, cfg *config.Config, symbol string, start, end time.Time) ([]core.OHLCV, error) {
	bars, err := p.FetchHistory(ctx, symbol, start, end, cfg.Interval)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}
	return bars, nil
}
