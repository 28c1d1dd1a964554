package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/velalab/vela/internal/backtest"
)

// ToJSON serializes the report for the archived artifact.
func ToJSON(rep Report) ([]byte, error) {
	return json.MarshalIndent(rep, "", "  ")
}

// TradesCSV renders the trade ledger as the archived CSV artifact.
func TradesCSV(trades []backtest.Trade) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"entry_time", "exit_time", "entry_price", "exit_price",
		"quantity", "return_pct", "fees", "reason", "bars", "open",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range trades {
		row := []string{
			t.EntryTime.UTC().Format(time.RFC3339),
			t.ExitTime.UTC().Format(time.RFC3339),
			strconv.FormatFloat(t.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(t.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(t.Quantity, 'f', -1, 64),
			strconv.FormatFloat(t.Return*100, 'f', 4, 64),
			strconv.FormatFloat(t.Fees, 'f', -1, 64),
			string(t.Reason),
			strconv.Itoa(t.Bars()),
			strconv.FormatBool(t.Open),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FormatText renders the human-readable run summary.
func FormatText(rep Report) string {
	var b strings.Builder
	line := strings.Repeat("=", 60)

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "BACKTEST RESULTS SUMMARY")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Symbol: %s  Variant: %s  Interval: %s\n", rep.Symbol, rep.Variant, rep.Interval)
	fmt.Fprintf(&b, "Final Portfolio Value: $%.2f\n", rep.EndValue)
	fmt.Fprintf(&b, "Initial Portfolio Value: $%.2f\n", rep.StartValue)
	fmt.Fprintf(&b, "Total Return: %.2f%%\n", rep.TotalReturnPct)
	fmt.Fprintf(&b, "CAGR: %.2f%%\n", rep.CAGRPct)
	fmt.Fprintf(&b, "Volatility (annualized): %.2f%%\n", rep.VolatilityPct)
	fmt.Fprintf(&b, "Max Drawdown: %.2f%% (%d bars)\n", rep.MaxDrawdownPct, rep.MaxDrawdownBars)
	fmt.Fprintf(&b, "Sharpe Ratio: %.3f\n", rep.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio: %.3f\n", rep.SortinoRatio)
	fmt.Fprintf(&b, "Calmar Ratio: %.3f\n", rep.CalmarRatio)
	fmt.Fprintf(&b, "Win Rate: %.1f%%\n", rep.WinRatePct)
	fmt.Fprintf(&b, "Profit Factor: %.2f\n", rep.ProfitFactor)
	fmt.Fprintf(&b, "Expectancy: %.4f%%\n", rep.ExpectancyPct)
	fmt.Fprintf(&b, "Total Trades: %d\n", rep.TotalTrades)

	if rep.TotalTrades > 0 {
		fmt.Fprintf(&b, "Average Trade: %.2f%%\n", rep.AvgTradePct)
		fmt.Fprintf(&b, "Average Win: %.2f%%\n", rep.AvgWinPct)
		fmt.Fprintf(&b, "Average Loss: %.2f%%\n", rep.AvgLossPct)
		fmt.Fprintf(&b, "Best Trade: %.2f%%\n", rep.BestTradePct)
		fmt.Fprintf(&b, "Worst Trade: %.2f%%\n", rep.WorstTradePct)
		fmt.Fprintf(&b, "Avg Trade Duration: %.1f hours\n", rep.AvgTradeDurationHours)
	}

	fmt.Fprintf(&b, "Total Fees Paid: $%.2f\n", rep.TotalFees)
	fmt.Fprintln(&b, line)
	return b.String()
}
