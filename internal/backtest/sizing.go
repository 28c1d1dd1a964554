package backtest

// Risk-based sizing parameters: risk 1% of equity per trade against a 2-ATR
// stop distance, capped below full allocation.
const (
	riskPerTrade    = 0.01
	stopDistanceATR = 2.0
	maxPositionFrac = 0.95
)

// ATRPositionSize returns the equity fraction to allocate so that a 2-ATR
// adverse move loses about 1% of the portfolio. Falls back to the fixed
// fraction when volatility is degenerate.
func ATRPositionSize(price, atr, fallback float64) float64 {
	if price <= 0 || atr <= 0 {
		return fallback
	}

	stopDistance := stopDistanceATR * atr
	frac := riskPerTrade / (stopDistance / price)
	if frac > maxPositionFrac {
		return maxPositionFrac
	}
	return frac
}
