package strategy

import (
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/logger"
)

// Variant identifies a signal-building strategy profile.
type Variant int

const (
	// VariantBaseline is the strict BB-MACD AND-composition.
	VariantBaseline Variant = iota

	// Flexible profiles loosen the composition into OR-combinations to
	// trade signal frequency against quality.
	VariantSignalRich
	VariantTrendFollowing
	VariantMeanReversion

	// Advanced profiles add multi-indicator confirmation and minimum
	// signal spacing.
	VariantQuality
	VariantTrendMomentum
	VariantVolatilityBreakout
)

var variantNames = map[Variant]string{
	VariantBaseline:           "baseline",
	VariantSignalRich:         "signal_rich",
	VariantTrendFollowing:     "trend_following",
	VariantMeanReversion:      "mean_reversion",
	VariantQuality:            "quality_over_quantity",
	VariantTrendMomentum:      "trend_momentum",
	VariantVolatilityBreakout: "volatility_breakout",
}

func (v Variant) String() string {
	if name, ok := variantNames[v]; ok {
		return name
	}
	return "unknown"
}

// Advanced reports whether the variant needs the advanced confirmation
// columns and therefore an indicator.ComputeAdvanced frame.
func (v Variant) Advanced() bool {
	switch v {
	case VariantQuality, VariantTrendMomentum, VariantVolatilityBreakout:
		return true
	}
	return false
}

// ParseVariant resolves a variant name from configuration or CLI input.
// Unknown names are a configuration error.
func ParseVariant(name string) (Variant, error) {
	for v, n := range variantNames {
		if n == name {
			return v, nil
		}
	}
	return 0, core.Errorf(core.ErrConfigInvalid, "unknown strategy variant %q", name)
}

// Variants lists every known variant in declaration order.
func Variants() []Variant {
	return []Variant{
		VariantBaseline,
		VariantSignalRich,
		VariantTrendFollowing,
		VariantMeanReversion,
		VariantQuality,
		VariantTrendMomentum,
		VariantVolatilityBreakout,
	}
}

// ForVariant returns the builder implementing the given variant. The switch
// is exhaustive over the enum; an out-of-range value panics, which can only
// come from a programming error, not from user input (ParseVariant guards
// that path).
func ForVariant(v Variant, log *zap.Logger) Builder {
	if log == nil {
		log = logger.Nop()
	}
	switch v {
	case VariantBaseline:
		return &BBMACD{log: log}
	case VariantSignalRich, VariantTrendFollowing, VariantMeanReversion:
		return &Flexible{variant: v, log: log}
	case VariantQuality, VariantTrendMomentum, VariantVolatilityBreakout:
		return &Advanced{variant: v, log: log}
	}
	panic("strategy: invalid variant")
}
