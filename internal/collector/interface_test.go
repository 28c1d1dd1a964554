package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/velalab/vela/internal/core"
)

func TestValidateSymbol(t *testing.T) {
	tests := []struct {
		symbol string
		valid  bool
	}{
		{"BTCUSDT", true},
		{"ETHUSDT", true},
		{"ETH-USD", true},
		{"SOL_USDT", true},
		{"", false},
		{"BTC USDT", false},
		{"averyveryverylongsymbolname", false},
		{"BTC/USDT", false},
	}

	for _, tt := range tests {
		err := ValidateSymbol(tt.symbol)
		if tt.valid && err != nil {
			t.Errorf("ValidateSymbol(%q) = %v, want nil", tt.symbol, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ValidateSymbol(%q) = nil, want error", tt.symbol)
		}
	}
}

func bar(ts time.Time, price float64) core.OHLCV {
	return core.OHLCV{
		Symbol:   "BTCUSDT",
		Interval: core.Interval1h,
		Open:     price,
		High:     price + 1,
		Low:      price - 1,
		Close:    price,
		Volume:   1,
		Time:     ts,
	}
}

func TestValidateSeries(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	good := []core.OHLCV{bar(t0, 100), bar(t0.Add(time.Hour), 101)}
	if err := ValidateSeries(good); err != nil {
		t.Errorf("valid series: %v", err)
	}

	if err := ValidateSeries(nil); !errors.Is(err, core.ErrNoData) {
		t.Errorf("empty series: got %v, want NO_DATA", err)
	}

	dup := []core.OHLCV{bar(t0, 100), bar(t0, 101)}
	if err := ValidateSeries(dup); !errors.Is(err, core.ErrDataQuality) {
		t.Errorf("duplicate timestamp: got %v, want DATA_QUALITY", err)
	}

	backwards := []core.OHLCV{bar(t0.Add(time.Hour), 100), bar(t0, 101)}
	if err := ValidateSeries(backwards); !errors.Is(err, core.ErrDataQuality) {
		t.Errorf("backwards timestamp: got %v, want DATA_QUALITY", err)
	}

	invalid := []core.OHLCV{bar(t0, 100), {Time: t0.Add(time.Hour)}}
	if err := ValidateSeries(invalid); !errors.Is(err, core.ErrDataQuality) {
		t.Errorf("zero-price bar: got %v, want DATA_QUALITY", err)
	}
}
