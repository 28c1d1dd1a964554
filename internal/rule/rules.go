// Package rule provides the boolean primitives signal builders compose:
// crossover detection between two series and band-touch detection with a
// tolerance. All primitives resolve NaN inputs to false rather than
// propagating them.
package rule

import (
	"math"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/logger"
)

// BullishCross reports, per index, whether a crossed above b: a was at or
// below b on the previous bar and is strictly above on this one. The first
// element is always false.
func BullishCross(a, b []float64) ([]bool, error) {
	if len(a) != len(b) {
		return nil, core.Errorf(core.ErrSimInvalidInput,
			"crossover series must have same length, got %d and %d", len(a), len(b))
	}
	out := make([]bool, len(a))
	for i := 1; i < len(a); i++ {
		if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
			continue
		}
		out[i] = a[i-1] <= b[i-1] && a[i] > b[i]
	}
	return out, nil
}

// BearishCross reports, per index, whether a crossed below b: a was at or
// above b on the previous bar and is strictly below on this one. The first
// element is always false.
func BearishCross(a, b []float64) ([]bool, error) {
	if len(a) != len(b) {
		return nil, core.Errorf(core.ErrSimInvalidInput,
			"crossover series must have same length, got %d and %d", len(a), len(b))
	}
	out := make([]bool, len(a))
	for i := 1; i < len(a); i++ {
		if anyNaN(a[i-1], b[i-1], a[i], b[i]) {
			continue
		}
		out[i] = a[i-1] >= b[i-1] && a[i] < b[i]
	}
	return out, nil
}

// LowerTouch reports where price is at or below the band scaled up by the
// tolerance fraction. A negative tolerance is a usage error.
func LowerTouch(price, band []float64, tolerance float64) ([]bool, error) {
	if err := touchArgs(price, band, tolerance); err != nil {
		return nil, err
	}
	out := make([]bool, len(price))
	for i := range price {
		if anyNaN(price[i], band[i]) {
			continue
		}
		out[i] = price[i] <= band[i]*(1+tolerance)
	}
	return out, nil
}

// UpperTouch reports where price is at or above the band scaled down by the
// tolerance fraction. A negative tolerance is a usage error.
func UpperTouch(price, band []float64, tolerance float64) ([]bool, error) {
	if err := touchArgs(price, band, tolerance); err != nil {
		return nil, err
	}
	out := make([]bool, len(price))
	for i := range price {
		if anyNaN(price[i], band[i]) {
			continue
		}
		out[i] = price[i] >= band[i]*(1-tolerance)
	}
	return out, nil
}

func touchArgs(price, band []float64, tolerance float64) error {
	if tolerance < 0 {
		return core.Errorf(core.ErrConfigInvalid, "touch tolerance must be non-negative, got %g", tolerance)
	}
	if len(price) != len(band) {
		return core.Errorf(core.ErrSimInvalidInput,
			"price and band series must have same length, got %d and %d", len(price), len(band))
	}
	return nil
}

// ValidatePair confirms a buy/sell pair is the same length and logs
// diagnostic counts. Simultaneous buy and sell bars are a data-quality
// warning, not an error: resolution is the builder's job.
func ValidatePair(buy, sell []bool, log *zap.Logger) error {
	if log == nil {
		log = logger.Nop()
	}
	if len(buy) != len(sell) {
		return core.Errorf(core.ErrSimInvalidInput,
			"buy and sell signal series must have same length, got %d and %d", len(buy), len(sell))
	}

	var buys, sells, simultaneous int
	for i := range buy {
		if buy[i] {
			buys++
		}
		if sell[i] {
			sells++
		}
		if buy[i] && sell[i] {
			simultaneous++
		}
	}

	if simultaneous > 0 {
		log.Warn("found simultaneous buy/sell signals", zap.Int("count", simultaneous))
	}
	log.Debug("signal validation", zap.Int("buy", buys), zap.Int("sell", sells))
	return nil
}

// Count returns the number of true values in a signal series.
func Count(signals []bool) int {
	n := 0
	for _, s := range signals {
		if s {
			n++
		}
	}
	return n
}

func anyNaN(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
