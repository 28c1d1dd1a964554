package strategy

import (
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/rule"
)

// Flexible covers the looser OR-composed profiles. Each mode is a distinct
// boolean expression tree over the same primitive set:
//
//	signal_rich     band touches OR MACD crossovers near the bands
//	trend_following MACD-driven, band position as confirmation
//	mean_reversion  band-driven, MACD momentum as confirmation
type Flexible struct {
	variant Variant
	log     *zap.Logger
}

func (x *Flexible) Name() string { return x.variant.String() }

func (x *Flexible) Description() string {
	switch x.variant {
	case VariantSignalRich:
		return "band touches OR MACD state, maximizing signal frequency"
	case VariantTrendFollowing:
		return "MACD crossovers confirmed by band position"
	default:
		return "band touches confirmed by MACD momentum"
	}
}

func (x *Flexible) Build(f *indicator.Frame, cfg *config.StrategyConfig) (Pair, error) {
	cols := map[string][]float64{
		indicator.ColBBL:        f.BBL,
		indicator.ColBBM:        f.BBM,
		indicator.ColBBU:        f.BBU,
		indicator.ColMACD:       f.MACD,
		indicator.ColMACDSignal: f.MACDSignal,
	}
	if cfg.RSI.UseFilter {
		cols[indicator.ColRSI] = f.RSI
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
	// Near-band conditions use a doubled tolerance window.
	nearLower, err := rule.LowerTouch(close, f.BBL, tol*2)
	if err != nil {
		return Pair{}, err
	}
	nearUpper, err := rule.UpperTouch(close, f.BBU, tol*2)
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

	pair := Pair{Buy: make([]bool, f.Len()), Sell: make([]bool, f.Len())}
	for i := 0; i < f.Len(); i++ {
		macdAbove := f.MACD[i] > f.MACDSignal[i]
		macdBelow := f.MACD[i] < f.MACDSignal[i]
		aboveMid := close[i] > f.BBM[i]
		belowMid := close[i] < f.BBM[i]

		switch x.variant {
		case VariantSignalRich:
			pair.Buy[i] = lowerTouch[i] ||
				(nearLower[i] && bullish[i]) ||
				(belowMid && bullish[i])
			pair.Sell[i] = upperTouch[i] ||
				(nearUpper[i] && bearish[i]) ||
				(aboveMid && bearish[i])

		case VariantTrendFollowing:
			pair.Buy[i] = bullish[i] && (belowMid || nearLower[i])
			pair.Sell[i] = bearish[i] && (aboveMid || nearUpper[i])

		case VariantMeanReversion:
			pair.Buy[i] = (lowerTouch[i] && macdAbove) ||
				(nearLower[i] && bullish[i])
			pair.Sell[i] = (upperTouch[i] && macdBelow) ||
				(nearUpper[i] && bearish[i])
		}
	}

	if cfg.RSI.UseFilter {
		applyRSIFilter(pair, f.RSI, cfg, x.log)
	}
	if cfg.Filters.EMATrend.Use {
		applyEMATrendFilter(pair, f, cfg, x.log)
	}

	return pair, nil
}
