// Package report aggregates a finished backtest into serializable
// performance metrics and persists the run artifacts. Summarization is
// best-effort diagnostic output: it never fails, degrading to zeroed fields
// on degenerate input.
package report

import (
	"math"

	"github.com/velalab/vela/internal/backtest"
	"github.com/velalab/vela/internal/core"
)

// profitFactorCap replaces an infinite profit factor (no losing trades) so
// reports carry only finite values.
const profitFactorCap = 999.0

// Report is the flat metrics summary of one backtest run. All float fields
// are finite and directly serializable.
type Report struct {
	RunID    string `json:"run_id"`
	Symbol   string `json:"symbol"`
	Variant  string `json:"variant"`
	Interval string `json:"interval"`

	StartValue     float64 `json:"start_value"`
	EndValue       float64 `json:"end_value"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGRPct        float64 `json:"cagr_pct"`
	VolatilityPct  float64 `json:"volatility_pct"`

	SharpeRatio     float64 `json:"sharpe_ratio"`
	SortinoRatio    float64 `json:"sortino_ratio"`
	CalmarRatio     float64 `json:"calmar_ratio"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct"`
	MaxDrawdownBars int     `json:"max_drawdown_bars"`

	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRatePct    float64 `json:"win_rate_pct"`
	ProfitFactor  float64 `json:"profit_factor"`
	ExpectancyPct float64 `json:"expectancy_pct"`

	AvgTradePct   float64 `json:"avg_trade_pct"`
	AvgWinPct     float64 `json:"avg_win_pct"`
	AvgLossPct    float64 `json:"avg_loss_pct"`
	BestTradePct  float64 `json:"best_trade_pct"`
	WorstTradePct float64 `json:"worst_trade_pct"`

	AvgTradeDurationHours float64 `json:"avg_trade_duration_hours"`
	TotalFees             float64 `json:"total_fees"`
}

// Summarize derives the full metrics report from a backtest result. A nil or
// degenerate result yields a zeroed report rather than an error.
func Summarize(res *backtest.Result) Report {
	if res == nil {
		return Report{}
	}

	rep := Report{
		RunID:      res.RunID,
		Symbol:     res.Symbol,
		Variant:    res.Variant,
		Interval:   res.Interval,
		StartValue: res.StartValue,
		EndValue:   res.EndValue,
		TotalFees:  res.TotalFees,
	}

	rep.TotalReturnPct = res.TotalReturn() * 100

	summarizeReturns(&rep, res)
	summarizeDrawdown(&rep, res.Equity)
	summarizeTrades(&rep, res.Trades)

	sanitize(&rep)
	return rep
}

// summarizeReturns computes the annualized return and risk ratios from the
// per-bar equity returns. Statistics needing at least two observations
// report 0 below that.
func summarizeReturns(rep *Report, res *backtest.Result) {
	returns := res.Returns()
	ppy := core.PeriodsPerYear(res.Interval)
	n := len(returns)
	if n < 2 || ppy <= 0 {
		return
	}

	rep.CAGRPct = (math.Pow(1+res.TotalReturn(), ppy/float64(n)) - 1) * 100

	mean := meanOf(returns)
	sd := stdOf(returns, mean)
	rep.VolatilityPct = sd * math.Sqrt(ppy) * 100
	if sd > 0 {
		rep.SharpeRatio = mean / sd * math.Sqrt(ppy)
	}

	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	if len(downside) >= 2 {
		dsd := stdOf(downside, meanOf(downside))
		if dsd > 0 {
			rep.SortinoRatio = mean / dsd * math.Sqrt(ppy)
		}
	}
}

// summarizeDrawdown walks the equity curve tracking the running peak. A flat
// or rising curve reports 0.
func summarizeDrawdown(rep *Report, equity []backtest.EquityPoint) {
	if len(equity) < 2 {
		return
	}

	var maxDD float64
	var peak float64
	var streak, maxStreak int

	for _, p := range equity {
		if p.Value > peak {
			peak = p.Value
		}
		if peak <= 0 {
			continue
		}
		dd := (peak - p.Value) / peak
		if dd > maxDD {
			maxDD = dd
		}
		if dd > 0 {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}

	rep.MaxDrawdownPct = maxDD * 100
	rep.MaxDrawdownBars = maxStreak
	if maxDD > 0 {
		rep.CalmarRatio = rep.CAGRPct / 100 / maxDD
	}
}

// summarizeTrades computes the trade-quality statistics from the ledger.
func summarizeTrades(rep *Report, trades []backtest.Trade) {
	rep.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var grossWins, grossLosses float64
	var sumReturns, sumWins, sumLosses float64
	var best, worst float64
	var totalHours float64

	for i, t := range trades {
		r := t.Return
		sumReturns += r
		totalHours += t.Duration().Hours()
		if i == 0 || r > best {
			best = r
		}
		if i == 0 || r < worst {
			worst = r
		}
		switch {
		case r > 0:
			rep.WinningTrades++
			grossWins += r
			sumWins += r
		case r < 0:
			rep.LosingTrades++
			grossLosses += -r
			sumLosses += r
		}
	}

	total := float64(len(trades))
	winRate := float64(rep.WinningTrades) / total
	rep.WinRatePct = winRate * 100

	switch {
	case grossLosses > 0:
		pf := grossWins / grossLosses
		if pf > profitFactorCap {
			pf = profitFactorCap
		}
		rep.ProfitFactor = pf
	case grossWins > 0:
		rep.ProfitFactor = profitFactorCap
	}

	rep.AvgTradePct = sumReturns / total * 100
	if rep.WinningTrades > 0 {
		rep.AvgWinPct = sumWins / float64(rep.WinningTrades) * 100
	}
	if rep.LosingTrades > 0 {
		rep.AvgLossPct = sumLosses / float64(rep.LosingTrades) * 100
	}
	rep.BestTradePct = best * 100
	rep.WorstTradePct = worst * 100
	rep.ExpectancyPct = winRate*rep.AvgWinPct + (1-winRate)*rep.AvgLossPct
	rep.AvgTradeDurationHours = totalHours / total
}

// sanitize forces every float field to a finite value. The computations
// above should already guarantee this; a NaN slipping through must not reach
// the serialized report.
func sanitize(rep *Report) {
	for _, f := range []*float64{
		&rep.TotalReturnPct, &rep.CAGRPct, &rep.VolatilityPct,
		&rep.SharpeRatio, &rep.SortinoRatio, &rep.CalmarRatio,
		&rep.MaxDrawdownPct, &rep.WinRatePct, &rep.ProfitFactor,
		&rep.ExpectancyPct, &rep.AvgTradePct, &rep.AvgWinPct,
		&rep.AvgLossPct, &rep.BestTradePct, &rep.WorstTradePct,
		&rep.AvgTradeDurationHours, &rep.TotalFees,
	} {
		if math.IsNaN(*f) || math.IsInf(*f, 0) {
			*f = 0
		}
	}
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdOf(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)-1))
}
