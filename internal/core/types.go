package core

import "time"

// Interval identifiers understood by collectors and the annualization logic.
const (
	Interval1m  = "1m"
	Interval5m  = "5m"
	Interval15m = "15m"
	Interval1h  = "1h"
	Interval4h  = "4h"
	Interval1d  = "1d"
)

// OHLCV represents a single candlestick/bar.
type OHLCV struct {
	Symbol   string
	Interval string // "1m", "5m", "1h", "1d"
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
	Time     time.Time
}

// IsValid checks that the bar carries usable price data.
func (b OHLCV) IsValid() bool {
	return b.Open > 0 && b.High > 0 && b.Low > 0 && b.Close > 0 &&
		b.High >= b.Low && !b.Time.IsZero()
}

// Closes extracts the close column from a series of bars.
func Closes(bars []OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// Action represents a trading signal action.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// IntervalMinutes returns the bar duration in minutes, or 0 for an
// unrecognized interval.
func IntervalMinutes(interval string) int {
	switch interval {
	case Interval1m:
		return 1
	case Interval5m:
		return 5
	case Interval15m:
		return 15
	case Interval1h:
		return 60
	case Interval4h:
		return 240
	case Interval1d:
		return 1440
	default:
		return 0
	}
}

// PeriodsPerYear returns the number of bars in a year for the given
// interval, assuming a 24/7 market. Used to annualize return metrics.
func PeriodsPerYear(interval string) float64 {
	mins := IntervalMinutes(interval)
	if mins <= 0 {
		return 0
	}
	return 365 * 24 * 60 / float64(mins)
}
