package strategy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/rule"
)

// BBMACD is the baseline profile: buy on a lower-band touch confirmed by a
// fresh MACD bullish crossover, sell on the symmetric upper-band condition,
// optionally narrowed by the RSI and EMA-trend filters.
type BBMACD struct {
	log *zap.Logger
}

func (b *BBMACD) Name() string { return "baseline" }

func (b *BBMACD) Description() string {
	return "BB touch AND fresh MACD crossover, optional RSI/EMA-trend filters"
}

func (b *BBMACD) Build(f *indicator.Frame, cfg *config.StrategyConfig) (Pair, error) {
	cols := map[string][]float64{
		indicator.ColBBL:        f.BBL,
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

	b.log.Debug("computing Bollinger Band touches", zap.Float64("tolerance", tol))
	lowerTouch, err := rule.LowerTouch(close, f.BBL, tol)
	if err != nil {
		return Pair{}, err
	}
	upperTouch, err := rule.UpperTouch(close, f.BBU, tol)
	if err != nil {
		return Pair{}, err
	}

	b.log.Debug("computing MACD crossovers")
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
		pair.Buy[i] = lowerTouch[i] && bullish[i]
		pair.Sell[i] = upperTouch[i] && bearish[i]
	}

	if cfg.RSI.UseFilter {
		applyRSIFilter(pair, f.RSI, cfg, b.log)
	}
	if cfg.Filters.EMATrend.Use {
		applyEMATrendFilter(pair, f, cfg, b.log)
	}

	return pair, nil
}

// DebugConditions reports every intermediate condition at one row, useful
// when a signal fired (or failed to fire) unexpectedly.
func DebugConditions(f *indicator.Frame, cfg *config.StrategyConfig, index int) (map[string]bool, error) {
	if index < 0 || index >= f.Len() {
		return nil, core.Errorf(core.ErrSimInvalidInput,
			"index %d out of bounds for frame of length %d", index, f.Len())
	}

	tol := cfg.Execution.TouchTolerancePct
	if tol < 0 {
		return nil, core.Errorf(core.ErrConfigInvalid, "touch tolerance must be non-negative, got %g", tol)
	}

	out := map[string]bool{
		"bb_lower_touch": f.Close(index) <= f.BBL[index]*(1+tol),
		"bb_upper_touch": f.Close(index) >= f.BBU[index]*(1-tol),
	}

	if index > 0 {
		out["macd_bullish_cross"] = f.MACD[index-1] <= f.MACDSignal[index-1] && f.MACD[index] > f.MACDSignal[index]
		out["macd_bearish_cross"] = f.MACD[index-1] >= f.MACDSignal[index-1] && f.MACD[index] < f.MACDSignal[index]
	} else {
		out["macd_bullish_cross"] = false
		out["macd_bearish_cross"] = false
	}

	buy := out["bb_lower_touch"] && out["macd_bullish_cross"]
	sell := out["bb_upper_touch"] && out["macd_bearish_cross"]

	if cfg.RSI.UseFilter {
		out["rsi_buy_filter"] = f.RSI[index] <= cfg.RSI.BuyMax
		out["rsi_sell_filter"] = f.RSI[index] >= cfg.RSI.SellMin
		buy = buy && out["rsi_buy_filter"]
		sell = sell && out["rsi_sell_filter"]
	}

	out["buy_signal"] = buy
	out["sell_signal"] = sell
	return out, nil
}

// FormatConditions renders a DebugConditions result in stable order.
func FormatConditions(conds map[string]bool) string {
	keys := make([]string, 0, len(conds))
	for k := range conds {
		keys = append(keys, k)
	}
	sorted(keys)

	s := ""
	for _, k := range keys {
		s += fmt.Sprintf("%-20s %v\n", k, conds[k])
	}
	return s
}
