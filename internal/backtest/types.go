package backtest

import "time"

// ExitReason records which rule closed a trade.
type ExitReason string

const (
	ExitSignal       ExitReason = "signal"
	ExitStopLoss     ExitReason = "stop_loss"
	ExitTrailingStop ExitReason = "trailing_stop"
	ExitTimeLimit    ExitReason = "time_limit"
	ExitMidband      ExitReason = "midband"
	ExitEndOfData    ExitReason = "end_of_data"
)

// Trade is one completed round trip from entry fill to exit fill. Prices
// include slippage; Cost and Proceeds include fees.
type Trade struct {
	EntryIndex int
	ExitIndex  int
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   float64
	Cost       float64 // cash debited on entry, fee included
	Proceeds   float64 // cash credited on exit, fee deducted
	Fees       float64
	Return     float64 // net fractional return on Cost
	Reason     ExitReason

	// Open marks a position that was still held on the final bar and was
	// marked to market rather than filled.
	Open bool
}

// IsWin returns true if the trade was profitable.
func (t Trade) IsWin() bool { return t.Return > 0 }

// Duration returns the holding time from entry to exit.
func (t Trade) Duration() time.Duration { return t.ExitTime.Sub(t.EntryTime) }

// Bars returns the holding time in bars.
func (t Trade) Bars() int { return t.ExitIndex - t.EntryIndex }

// position tracks one open long during the simulation loop.
type position struct {
	entryIndex int
	entryTime  time.Time
	entryPrice float64
	quantity   float64
	cost       float64
	fees       float64

	stopLoss     float64 // 0 when unarmed
	trailingStop float64 // 0 when unarmed
	highWater    float64
}

// EquityPoint is one mark-to-market sample of the portfolio value.
type EquityPoint struct {
	Time  time.Time
	Value float64
}

// Result is the complete output of one simulation run.
type Result struct {
	RunID    string
	Symbol   string
	Variant  string
	Interval string

	StartValue float64
	EndValue   float64
	TotalFees  float64

	Start time.Time
	End   time.Time

	Equity []EquityPoint
	Trades []Trade
}

// Returns derives the per-bar fractional returns of the equity curve.
func (r *Result) Returns() []float64 {
	if len(r.Equity) < 2 {
		return nil
	}
	out := make([]float64, 0, len(r.Equity)-1)
	for i := 1; i < len(r.Equity); i++ {
		prev := r.Equity[i-1].Value
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, r.Equity[i].Value/prev-1)
	}
	return out
}

// TotalReturn is the net fractional return over the whole run.
func (r *Result) TotalReturn() float64 {
	if r.StartValue == 0 {
		return 0
	}
	return r.EndValue/r.StartValue - 1
}
