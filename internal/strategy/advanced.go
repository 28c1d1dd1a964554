package strategy

import (
	"math"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/rule"
)

// minSignalGap is the minimum spacing between accepted signals of the same
// side. Later signals inside a cluster are suppressed; which signals survive
// depends on which earlier ones were accepted, so the filter is a sequential
// scan, not a per-bar predicate.
const minSignalGap = 5

// Advanced covers the multi-confirmation profiles. On top of the shared
// primitives they gate on volume ratio, ADX trend strength, ATR percentile
// and market structure, then thin the result with the minimum-gap filter.
// Confirmation gates degrade to neutral where a column is missing or still
// in warm-up.
type Advanced struct {
	variant Variant
	log     *zap.Logger
}

func (a *Advanced) Name() string { return a.variant.String() }

func (a *Advanced) Description() string {
	switch a.variant {
	case VariantQuality:
		return "band/MACD entries with trend, volume and volatility confirmation"
	case VariantTrendMomentum:
		return "MACD crossovers with ADX, momentum and volume-surge confirmation"
	default:
		return "Keltner breakouts after a Bollinger squeeze with volume expansion"
	}
}

func (a *Advanced) Build(f *indicator.Frame, cfg *config.StrategyConfig) (Pair, error) {
	cols := map[string][]float64{
		indicator.ColBBL:        f.BBL,
		indicator.ColBBM:        f.BBM,
		indicator.ColBBU:        f.BBU,
		indicator.ColMACD:       f.MACD,
		indicator.ColMACDSignal: f.MACDSignal,
		indicator.ColRSI:        f.RSI,
	}
	switch a.variant {
	case VariantTrendMomentum:
		cols[indicator.ColADX] = f.ADX
		cols[indicator.ColMomentum] = f.Momentum
	case VariantVolatilityBreakout:
		cols[indicator.ColKCUpper] = f.KCUpper
		cols[indicator.ColKCLower] = f.KCLower
		cols[indicator.ColATR] = f.ATR
	}
	if cfg.Filters.EMATrend.Use {
		cols[indicator.ColEMATrend] = f.EMATrend
	}
	if err := requireColumns(cols); err != nil {
		return Pair{}, err
	}

	tol := cfg.Execution.TouchTolerancePct
	close := f.Closes()

	lowerTouch, err := rule.LowerTouch(close, f.BBL, tol)
	if err != nil {
		return Pair{}, err
	}
	upperTouch, err := rule.UpperTouch(close, f.BBU, tol)
	if err != nil {
		return Pair{}, err
	}
	bullish, err := rule.BullishCross(f.MACD, f.MACDSignal)
	if err != nil {
		return Pair{}, err
	}
	bearish, err := rule.BearishCross(f.MACD, f.MACDSignal)
	if err != nil {
		return Pair{}, err
	}

	var pair Pair
	switch a.variant {
	case VariantQuality:
		pair = a.buildQuality(f, close, lowerTouch, upperTouch, bullish, bearish)
	case VariantTrendMomentum:
		pair = a.buildTrendMomentum(f, bullish, bearish)
	case VariantVolatilityBreakout:
		pair = a.buildVolatilityBreakout(f, close)
	}

	a.applyFilters(f, pair, cfg)

	return pair, nil
}

// buildQuality: band touch or crossover in an RSI extreme, confirmed by the
// fast-EMA trend and either volume or elevated volatility.
func (a *Advanced) buildQuality(f *indicator.Frame, close []float64,
	lowerTouch, upperTouch, bullish, bearish []bool) Pair {

	// Elevated volatility means ATR% above its rolling 30th percentile.
	var atrFloor []float64
	if f.ATRPct != nil {
		atrFloor = indicator.RollingQuantile(f.ATRPct, 50, 0.3)
	}

	pair := Pair{Buy: make([]bool, f.Len()), Sell: make([]bool, f.Len())}
	for i := 0; i < f.Len(); i++ {
		trendUp := gate(f.EMAFast, i, func(v float64) bool { return close[i] > v })
		trendDown := gate(f.EMAFast, i, func(v float64) bool { return close[i] < v })
		volumeOK := gate(f.VolumeRatio, i, func(v float64) bool { return v > 1.0 })

		highVol := true
		if atrFloor != nil && !math.IsNaN(atrFloor[i]) && !math.IsNaN(f.ATRPct[i]) {
			highVol = f.ATRPct[i] > atrFloor[i]
		}

		rsiOversold := f.RSI[i] < 45
		rsiOverbought := f.RSI[i] > 55

		pair.Buy[i] = (lowerTouch[i] || (bullish[i] && rsiOversold)) &&
			trendUp && (volumeOK || highVol)
		pair.Sell[i] = (upperTouch[i] || (bearish[i] && rsiOverbought)) &&
			trendDown && (volumeOK || highVol)
	}
	return pair
}

// buildTrendMomentum: fresh MACD crossovers inside a strong, directional
// trend with momentum and a volume surge behind them.
func (a *Advanced) buildTrendMomentum(f *indicator.Frame, bullish, bearish []bool) Pair {
	pair := Pair{Buy: make([]bool, f.Len()), Sell: make([]bool, f.Len())}
	for i := 0; i < f.Len(); i++ {
		strongTrend := gate(f.ADX, i, func(v float64) bool { return v > 20 })
		structureUp := gate(f.Trend, i, func(v float64) bool { return v > 0 })
		structureDown := gate(f.Trend, i, func(v float64) bool { return v < 0 })
		momUp := gate(f.Momentum, i, func(v float64) bool { return v > 0 })
		momDown := gate(f.Momentum, i, func(v float64) bool { return v < 0 })
		volumeSurge := gate(f.VolumeRatio, i, func(v float64) bool { return v > 1.5 })

		pair.Buy[i] = bullish[i] && structureUp && strongTrend && momUp && volumeSurge &&
			f.RSI[i] > 40 && f.RSI[i] < 70
		pair.Sell[i] = bearish[i] && structureDown && strongTrend && momDown && volumeSurge &&
			f.RSI[i] > 30 && f.RSI[i] < 60
	}
	return pair
}

// buildVolatilityBreakout: Keltner Channel breakouts with expanding ATR and
// volume, outside a Bollinger squeeze.
func (a *Advanced) buildVolatilityBreakout(f *indicator.Frame, close []float64) Pair {
	// Squeeze: band width below its rolling 20th percentile.
	width := make([]float64, f.Len())
	for i := range width {
		if f.BBM[i] == 0 {
			width[i] = math.NaN()
			continue
		}
		width[i] = (f.BBU[i] - f.BBL[i]) / f.BBM[i]
	}
	widthFloor := indicator.RollingQuantile(width, 20, 0.2)

	pair := Pair{Buy: make([]bool, f.Len()), Sell: make([]bool, f.Len())}
	for i := 0; i < f.Len(); i++ {
		squeeze := false
		if !math.IsNaN(widthFloor[i]) && !math.IsNaN(width[i]) {
			squeeze = width[i] < widthFloor[i]
		}

		breakoutUp := !math.IsNaN(f.KCUpper[i]) && close[i] > f.KCUpper[i]
		breakoutDown := !math.IsNaN(f.KCLower[i]) && close[i] < f.KCLower[i]
		volumeExpansion := gate(f.VolumeRatio, i, func(v float64) bool { return v > 2.0 })

		atrExpanding := true
		if i > 0 && !math.IsNaN(f.ATR[i]) && !math.IsNaN(f.ATR[i-1]) {
			atrExpanding = f.ATR[i] > f.ATR[i-1]
		}

		pair.Buy[i] = breakoutUp && volumeExpansion && atrExpanding && !squeeze && f.RSI[i] > 50
		pair.Sell[i] = breakoutDown && volumeExpansion && atrExpanding && !squeeze && f.RSI[i] < 50
	}
	return pair
}

// applyFilters runs the shared post-processing: the market-structure gate,
// the minimum-gap thinning, and the EMA trend filter on entries.
func (a *Advanced) applyFilters(f *indicator.Frame, pair Pair, cfg *config.StrategyConfig) {
	if f.Trend != nil {
		for i := range pair.Buy {
			pair.Buy[i] = pair.Buy[i] && gate(f.Trend, i, func(v float64) bool { return v > 0.1 })
			pair.Sell[i] = pair.Sell[i] && gate(f.Trend, i, func(v float64) bool { return v < -0.1 })
		}
	}

	thinSignals(pair.Buy, minSignalGap)
	thinSignals(pair.Sell, minSignalGap)

	if cfg.Filters.EMATrend.Use {
		applyEMATrendFilter(pair, f, cfg, a.log)
	}
}

// thinSignals suppresses signals closer than gap bars to the most recently
// accepted one, in index order.
func thinSignals(signals []bool, gap int) {
	last := -gap
	for i := range signals {
		if !signals[i] {
			continue
		}
		if i-last >= gap {
			last = i
		} else {
			signals[i] = false
		}
	}
}
