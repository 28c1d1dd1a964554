package collector

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/velalab/vela/internal/core"
)

// validSymbol matches exchange pairs like BTCUSDT, ETH-USD, SOL_USDT
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{2,12}([-_][A-Za-z0-9]{2,8})?$`)

// ValidateSymbol checks if a symbol has valid format
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Provider defines the interface for historical candle providers
type Provider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// FetchHistory returns candles for [start, end) at the given interval,
	// oldest first
	FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error)
}

// ValidateSeries checks a fetched candle series before it is handed to
// the indicator layer: non-empty, valid bars, strictly increasing
// timestamps.
func ValidateSeries(bars []core.OHLCV) error {
	if len(bars) == 0 {
		return core.ErrNoData
	}
	for i, b := range bars {
		if !b.IsValid() {
			return core.Errorf(core.ErrDataQuality, "invalid bar at index %d (time %s)", i, b.Time)
		}
		if i > 0 && !bars[i].Time.After(bars[i-1].Time) {
			return core.Errorf(core.ErrDataQuality, "timestamps not strictly increasing at index %d", i)
		}
	}
	return nil
}
