// Package strategy composes rule primitives into buy/sell signal series
// under several strategy profiles, from the strict baseline BB-MACD
// AND-composition to advanced multi-filter variants.
package strategy

import (
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/rule"
)

// Pair holds same-length buy and sell boolean series aligned to the frame
// they were built from.
type Pair struct {
	Buy  []bool
	Sell []bool
}

// Len returns the signal series length.
func (p Pair) Len() int { return len(p.Buy) }

// Builder turns an indicator frame into a signal pair. Implementations are
// pure functions of frame and config.
type Builder interface {
	Name() string
	Description() string
	Build(f *indicator.Frame, cfg *config.StrategyConfig) (Pair, error)
}

// BuildSignals dispatches to the builder for the given variant and applies
// the policies shared by every profile: simultaneous buy/sell bars resolve
// with buy priority (sell suppressed), the pair is validated against the
// frame, and quiet runs are logged as warnings rather than failing.
func BuildSignals(f *indicator.Frame, cfg *config.StrategyConfig, v Variant, log *zap.Logger) (Pair, error) {
	if log == nil {
		log = logger.Nop()
	}

	b := ForVariant(v, log)
	log.Info("building strategy signals", zap.String("variant", b.Name()))

	pair, err := b.Build(f, cfg)
	if err != nil {
		return Pair{}, err
	}

	resolveTieBreak(pair)

	if err := rule.ValidatePair(pair.Buy, pair.Sell, log); err != nil {
		return Pair{}, err
	}

	buys := rule.Count(pair.Buy)
	sells := rule.Count(pair.Sell)
	log.Info("generated signals", zap.Int("buy", buys), zap.Int("sell", sells))
	if buys == 0 {
		log.Warn("no buy signals generated")
	}
	if sells == 0 {
		log.Warn("no sell signals generated")
	}

	return pair, nil
}

// resolveTieBreak suppresses the sell on bars where buy and sell fire
// together. Buy priority is applied uniformly across all variants.
func resolveTieBreak(p Pair) {
	for i := range p.Sell {
		if p.Buy[i] && p.Sell[i] {
			p.Sell[i] = false
		}
	}
}

// requireColumns returns a SCHEMA_INVALID error naming every column the
// chosen variant needs but the frame does not carry.
func requireColumns(cols map[string][]float64) error {
	var missing []string
	for name, col := range cols {
		if col == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return core.Errorf(core.ErrSchemaInvalid, "missing required columns: %s", strings.Join(sorted(missing), ", "))
	}
	return nil
}

func sorted(s []string) []string {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
	return s
}

// gate evaluates a predicate against an optional confirmation column.
// A nil column or a NaN warm-up value is neutral: the gate passes.
func gate(col []float64, i int, pred func(v float64) bool) bool {
	if col == nil || math.IsNaN(col[i]) {
		return true
	}
	return pred(col[i])
}

// applyRSIFilter narrows entries to RSI <= buyMax and exits to
// RSI >= sellMin.
func applyRSIFilter(p Pair, rsi []float64, cfg *config.StrategyConfig, log *zap.Logger) {
	log.Debug("applying RSI filter",
		zap.Float64("buy_max", cfg.RSI.BuyMax), zap.Float64("sell_min", cfg.RSI.SellMin))
	for i := range p.Buy {
		p.Buy[i] = p.Buy[i] && rsi[i] <= cfg.RSI.BuyMax
		p.Sell[i] = p.Sell[i] && rsi[i] >= cfg.RSI.SellMin
	}
}

// applyEMATrendFilter allows long entries only while the close is above the
// trend EMA. Sell signals pass untouched so positions can still exit below
// the EMA.
func applyEMATrendFilter(p Pair, f *indicator.Frame, cfg *config.StrategyConfig, log *zap.Logger) {
	log.Debug("applying EMA trend filter",
		zap.Int("length", cfg.Filters.EMATrend.Length), zap.String("mode", cfg.Filters.EMATrend.Mode))
	for i := range p.Buy {
		p.Buy[i] = p.Buy[i] && f.Close(i) > f.EMATrend[i]
	}
}
