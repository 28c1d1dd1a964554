package report

import (
	"math"
	"testing"
	"time"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/strategy"
)

// seededBars generates a deterministic oscillating series with a mild drift,
// wide enough swings to touch the bands and flip the MACD.
func seededBars(n int) []core.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]core.OHLCV, n)
	for i := range bars {
		price := 100 + 15*math.Sin(float64(i)/7) + 0.05*float64(i)
		bars[i] = core.OHLCV{
			Symbol:   "BTCUSDT",
			Interval: core.Interval1h,
			Open:     price,
			High:     price * 1.01,
			Low:      price * 0.99,
			Close:    price,
			Volume:   50 + 20*math.Abs(math.Cos(float64(i)/5)),
			Time:     start.Add(time.Duration(i) * time.Hour),
		}
	}
	return bars
}

// TestBaselinePipeline runs the full chain on 200 seeded bars with the default
// parameters (Bollinger 20/2, MACD 12/26/9, RSI 14, $10,000 starting cash):
// indicators, baseline signals, simulation, summary.
func TestBaselinePipeline(t *testing.T) {
	cfg := config.DefaultStrategy()
	bars := seededBars(200)

	frame, err := indicator.Compute(bars, &cfg, nil)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if err := frame.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	signals, err := strategy.BuildSignals(frame, &cfg, strategy.VariantBaseline, nil)
	if err != nil {
		t.Fatalf("BuildSignals: %v", err)
	}

	res, err := backtest.Run(frame, signals.Buy, signals.Sell, &cfg, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.StartValue != 10000 {
		t.Errorf("start value = %f, want 10000", res.StartValue)
	}
	if res.EndValue <= 0 {
		t.Errorf("end value = %f, want > 0", res.EndValue)
	}
	if len(res.Equity) != frame.Len() {
		t.Errorf("equity points = %d, want one per frame row %d", len(res.Equity), frame.Len())
	}
	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if len(res.Trades) == 0 && res.EndValue != res.StartValue {
		t.Errorf("no trades but end value %f differs from start", res.EndValue)
	}

	rep := Summarize(res)

	if rep.ProfitFactor > 999 {
		t.Errorf("profit factor = %f, want capped at 999", rep.ProfitFactor)
	}
	for name, v := range map[string]float64{
		"total_return": rep.TotalReturnPct,
		"cagr":         rep.CAGRPct,
		"volatility":   rep.VolatilityPct,
		"sharpe":       rep.SharpeRatio,
		"sortino":      rep.SortinoRatio,
		"calmar":       rep.CalmarRatio,
		"drawdown":     rep.MaxDrawdownPct,
		"pf":           rep.ProfitFactor,
		"expectancy":   rep.ExpectancyPct,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("%s = %f, want finite", name, v)
		}
	}
	if rep.Symbol != "BTCUSDT" || rep.Interval != core.Interval1h {
		t.Errorf("identity fields not carried: %+v", rep)
	}
}
