package indicator

import (
	"math"
	"sort"
)

// Series helpers operate on full-length slices aligned to the input: warm-up
// positions where a rolling window has insufficient history hold NaN. Keeping
// every column the same length as the bar series makes downstream rule
// evaluation a plain index walk.

// SMA computes a simple moving average over the given window.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if valid {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// RollingStd computes the rolling sample standard deviation (n-1 divisor).
func RollingStd(values []float64, period int) []float64 {
	out := nans(len(values))
	if period < 2 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			sum += values[j]
		}
		if !valid {
			continue
		}
		mean := sum / float64(period)
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - mean
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period-1))
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the first
// full window. Leading NaNs in the input are skipped, so EMA can be chained
// over the output of another indicator.
func EMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period < 1 {
		return out
	}

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[start+period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// RollingMax computes the rolling maximum over the given window.
func RollingMax(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a > b })
}

// RollingMin computes the rolling minimum over the given window.
func RollingMin(values []float64, period int) []float64 {
	return rollingExtreme(values, period, func(a, b float64) bool { return a < b })
}

func rollingExtreme(values []float64, period int, better func(a, b float64) bool) []float64 {
	out := nans(len(values))
	if period < 1 || len(values) < period {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		best := math.NaN()
		valid := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				valid = false
				break
			}
			if math.IsNaN(best) || better(values[j], best) {
				best = values[j]
			}
		}
		if valid {
			out[i] = best
		}
	}
	return out
}

// RollingQuantile computes a rolling quantile (linear interpolation) over the
// given window. NaN values inside a window are ignored; a window with no
// finite values yields NaN.
func RollingQuantile(values []float64, period int, q float64) []float64 {
	out := nans(len(values))
	if period < 1 || len(values) < period || q < 0 || q > 1 {
		return out
	}
	window := make([]float64, 0, period)
	for i := period - 1; i < len(values); i++ {
		window = window[:0]
		for j := i - period + 1; j <= i; j++ {
			if !math.IsNaN(values[j]) {
				window = append(window, values[j])
			}
		}
		if len(window) == 0 {
			continue
		}
		sort.Float64s(window)
		pos := q * float64(len(window)-1)
		lo := int(math.Floor(pos))
		hi := int(math.Ceil(pos))
		if lo == hi {
			out[i] = window[lo]
		} else {
			frac := pos - float64(lo)
			out[i] = window[lo]*(1-frac) + window[hi]*frac
		}
	}
	return out
}

// Shift returns the series moved forward by n positions, NaN-filling the head.
func Shift(values []float64, n int) []float64 {
	out := nans(len(values))
	for i := n; i < len(values); i++ {
		out[i] = values[i-n]
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
