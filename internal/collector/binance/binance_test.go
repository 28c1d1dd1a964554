package binance

import (
	"context"
	"errors"
	"testing"
	"time"

	binanceapi "github.com/adshao/go-binance/v2"

	"github.com/velalab/vela/internal/core"
)

func TestProvider_Name(t *testing.T) {
	p := New("", "", nil)
	if got := p.Name(); got != "binance" {
		t.Errorf("Name() = %q, want %q", got, "binance")
	}
}

func TestProvider_FetchHistory_BadInput(t *testing.T) {
	p := New("", "", nil)
	ctx := context.Background()
	now := time.Now()

	_, err := p.FetchHistory(ctx, "", now.Add(-time.Hour), now, core.Interval1h)
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("empty symbol: got %v, want COLLECTOR_FAILED", err)
	}

	_, err = p.FetchHistory(ctx, "BTCUSDT", now.Add(-time.Hour), now, "7m")
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("bad interval: got %v, want COLLECTOR_FAILED", err)
	}

	_, err = p.FetchHistory(ctx, "BTCUSDT", now, now.Add(-time.Hour), core.Interval1h)
	if !errors.Is(err, core.ErrCollectorFailed) {
		t.Errorf("inverted range: got %v, want COLLECTOR_FAILED", err)
	}
}

func TestToBar(t *testing.T) {
	openTime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	k := &binanceapi.Kline{
		OpenTime: openTime.UnixMilli(),
		Open:     "50000.5",
		High:     "50500",
		Low:      "49900.25",
		Close:    "50250",
		Volume:   "123.456",
	}

	bar, err := toBar(k, "BTCUSDT", core.Interval1h)
	if err != nil {
		t.Fatalf("toBar: %v", err)
	}

	if bar.Open != 50000.5 || bar.High != 50500 || bar.Low != 49900.25 || bar.Close != 50250 {
		t.Errorf("unexpected prices: %+v", bar)
	}
	if bar.Volume != 123.456 {
		t.Errorf("Volume = %v, want 123.456", bar.Volume)
	}
	if !bar.Time.Equal(openTime) {
		t.Errorf("Time = %v, want %v", bar.Time, openTime)
	}
	if !bar.IsValid() {
		t.Error("expected valid bar")
	}
}

func TestToBar_BadNumber(t *testing.T) {
	k := &binanceapi.Kline{Open: "not-a-number", High: "1", Low: "1", Close: "1", Volume: "1"}
	if _, err := toBar(k, "BTCUSDT", core.Interval1h); err == nil {
		t.Error("expected parse error")
	}
}
