package report

import (
	"math"
	"testing"
	"time"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/core"
)

func resultWithEquity(values []float64) *backtest.Result {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	equity := make([]backtest.EquityPoint, len(values))
	for i, v := range values {
		equity[i] = backtest.EquityPoint{Time: start.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return &backtest.Result{
		RunID:      "test-run",
		Symbol:     "BTCUSDT",
		Variant:    "baseline",
		Interval:   core.Interval1h,
		StartValue: values[0],
		EndValue:   values[len(values)-1],
		Start:      start,
		End:        start.Add(time.Duration(len(values)-1) * time.Hour),
		Equity:     equity,
	}
}

func tradeWithReturn(r float64, hours int) backtest.Trade {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return backtest.Trade{
		EntryTime: start,
		ExitTime:  start.Add(time.Duration(hours) * time.Hour),
		Return:    r,
		Reason:    backtest.ExitSignal,
	}
}

func TestSummarize_Nil(t *testing.T) {
	rep := Summarize(nil)
	if rep != (Report{}) {
		t.Errorf("expected zero report, got %+v", rep)
	}
}

func TestSummarize_NoTrades(t *testing.T) {
	res := resultWithEquity([]float64{10000, 10000, 10000})

	rep := Summarize(res)

	if rep.TotalTrades != 0 {
		t.Errorf("trades = %d, want 0", rep.TotalTrades)
	}
	if rep.TotalReturnPct != 0 {
		t.Errorf("total return = %f, want 0", rep.TotalReturnPct)
	}
	if rep.ProfitFactor != 0 || rep.WinRatePct != 0 {
		t.Errorf("expected zeroed trade stats, got pf=%f wr=%f", rep.ProfitFactor, rep.WinRatePct)
	}
	if rep.RunID != "test-run" || rep.Symbol != "BTCUSDT" {
		t.Errorf("identity fields not carried: %+v", rep)
	}
}

func TestSummarize_TradeStats(t *testing.T) {
	res := resultWithEquity([]float64{10000, 10500, 10300, 11000})
	res.Trades = []backtest.Trade{
		tradeWithReturn(0.10, 2),
		tradeWithReturn(-0.05, 4),
		tradeWithReturn(0.02, 6),
	}

	rep := Summarize(res)

	if rep.TotalTrades != 3 || rep.WinningTrades != 2 || rep.LosingTrades != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			rep.TotalTrades, rep.WinningTrades, rep.LosingTrades)
	}
	if math.Abs(rep.WinRatePct-200.0/3) > 1e-9 {
		t.Errorf("win rate = %f, want 66.67", rep.WinRatePct)
	}
	if math.Abs(rep.ProfitFactor-0.12/0.05) > 1e-9 {
		t.Errorf("profit factor = %f, want 2.4", rep.ProfitFactor)
	}
	if math.Abs(rep.BestTradePct-10) > 1e-9 || math.Abs(rep.WorstTradePct+5) > 1e-9 {
		t.Errorf("best/worst = %f/%f, want 10/-5", rep.BestTradePct, rep.WorstTradePct)
	}
	if math.Abs(rep.AvgWinPct-6) > 1e-9 {
		t.Errorf("avg win = %f, want 6", rep.AvgWinPct)
	}
	if math.Abs(rep.AvgLossPct+5) > 1e-9 {
		t.Errorf("avg loss = %f, want -5", rep.AvgLossPct)
	}

	// Expectancy: winRate*avgWin + lossRate*avgLoss
	want := (2.0/3)*6 + (1.0/3)*(-5)
	if math.Abs(rep.ExpectancyPct-want) > 1e-9 {
		t.Errorf("expectancy = %f, want %f", rep.ExpectancyPct, want)
	}
	if math.Abs(rep.AvgTradeDurationHours-4) > 1e-9 {
		t.Errorf("avg duration = %f, want 4", rep.AvgTradeDurationHours)
	}
}

func TestSummarize_ProfitFactorCap(t *testing.T) {
	res := resultWithEquity([]float64{10000, 11000})
	res.Trades = []backtest.Trade{tradeWithReturn(0.10, 1)}

	rep := Summarize(res)

	// No losing trades: the infinite profit factor is capped
	if rep.ProfitFactor != 999 {
		t.Errorf("profit factor = %f, want 999", rep.ProfitFactor)
	}

	// A vanishing loss also stays within the cap
	res.Trades = append(res.Trades, tradeWithReturn(-1e-9, 1))
	rep = Summarize(res)
	if rep.ProfitFactor != 999 {
		t.Errorf("profit factor = %f, want capped 999", rep.ProfitFactor)
	}
}

func TestSummarize_Drawdown(t *testing.T) {
	// Peak 12000 then trough 9000: 25% drawdown over a 2-bar streak
	res := resultWithEquity([]float64{10000, 12000, 10000, 9000, 12000})

	rep := Summarize(res)

	if math.Abs(rep.MaxDrawdownPct-25) > 1e-9 {
		t.Errorf("max drawdown = %f, want 25", rep.MaxDrawdownPct)
	}
	if rep.MaxDrawdownBars != 2 {
		t.Errorf("drawdown bars = %d, want 2", rep.MaxDrawdownBars)
	}
}

func TestSummarize_RisingEquityHasNoDrawdown(t *testing.T) {
	res := resultWithEquity([]float64{10000, 10500, 11000, 11500})

	rep := Summarize(res)

	if rep.MaxDrawdownPct != 0 || rep.MaxDrawdownBars != 0 {
		t.Errorf("drawdown = %f/%d, want 0/0", rep.MaxDrawdownPct, rep.MaxDrawdownBars)
	}
	if rep.SharpeRatio <= 0 {
		t.Errorf("sharpe = %f, want positive on a rising curve", rep.SharpeRatio)
	}
	if rep.CAGRPct <= 0 {
		t.Errorf("cagr = %f, want positive", rep.CAGRPct)
	}
}

func TestSummarize_TooFewObservations(t *testing.T) {
	// A single equity point yields no return series
	res := resultWithEquity([]float64{10000})

	rep := Summarize(res)

	if rep.CAGRPct != 0 || rep.SharpeRatio != 0 || rep.SortinoRatio != 0 {
		t.Errorf("expected zeroed ratios, got cagr=%f sharpe=%f sortino=%f",
			rep.CAGRPct, rep.SharpeRatio, rep.SortinoRatio)
	}
}

func TestSummarize_AllFinite(t *testing.T) {
	// Equity collapsing to zero is the classic divide-by-zero playground
	res := resultWithEquity([]float64{10000, 5000, 0, 0})
	res.Trades = []backtest.Trade{tradeWithReturn(-1, 3)}

	rep := Summarize(res)

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
}
