package indicator

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/logger"
)

// Column names, used in schema error messages and artifact headers.
const (
	ColBBL         = "BBL"
	ColBBM         = "BBM"
	ColBBU         = "BBU"
	ColMACD        = "MACD"
	ColMACDSignal  = "MACD_SIGNAL"
	ColMACDHist    = "MACD_HIST"
	ColRSI         = "RSI"
	ColATR         = "ATR"
	ColEMATrend    = "EMA_TREND"
	ColEMAFast     = "EMA20"
	ColVolumeRatio = "VOLUME_RATIO"
	ColATRPct      = "ATR_PCT"
	ColADX         = "ADX"
	ColMomentum    = "MOM"
	ColSupport     = "SUPPORT"
	ColResistance  = "RESISTANCE"
	ColTrend       = "TREND"
	ColKCUpper     = "KC_UPPER"
	ColKCLower     = "KC_LOWER"
)

// Frame is an OHLCV series extended with indicator columns. Required columns
// (Bollinger, MACD, RSI) are fully non-NaN after Compute; optional columns
// are nil when not requested. Advanced columns may retain NaN warm-up values,
// which downstream gates treat as neutral.
type Frame struct {
	Bars []core.OHLCV

	BBL []float64
	BBM []float64
	BBU []float64

	MACD       []float64
	MACDSignal []float64
	MACDHist   []float64

	RSI []float64

	ATR      []float64 // nil unless risk.use_atr or advanced columns requested
	EMATrend []float64 // nil unless filters.ema_trend.use

	// Advanced confirmation columns, nil unless requested.
	EMAFast     []float64
	VolumeRatio []float64
	ATRPct      []float64
	ADX         []float64
	Momentum    []float64
	Support     []float64
	Resistance  []float64
	Trend       []float64
	KCUpper     []float64
	KCLower     []float64
}

// Len returns the number of rows in the frame.
func (f *Frame) Len() int { return len(f.Bars) }

// Close returns the close price at row i.
func (f *Frame) Close(i int) float64 { return f.Bars[i].Close }

// Closes returns the close column.
func (f *Frame) Closes() []float64 { return core.Closes(f.Bars) }

// Time returns the timestamp at row i.
func (f *Frame) Time(i int) time.Time { return f.Bars[i].Time }

// Interval returns the bar interval of the underlying series.
func (f *Frame) Interval() string {
	if len(f.Bars) == 0 {
		return ""
	}
	return f.Bars[0].Interval
}

const advancedLookback = 20

// Compute builds an indicator frame from an OHLCV series. Leading rows where
// any required column is still inside its warm-up window are dropped; if no
// rows survive, the lookback exceeds the data and an INSUFFICIENT_DATA error
// is returned. Bars with non-positive prices are a schema error.
func Compute(bars []core.OHLCV, cfg *config.StrategyConfig, log *zap.Logger) (*Frame, error) {
	return compute(bars, cfg, false, log)
}

// ComputeAdvanced is Compute plus the multi-indicator confirmation columns
// (volume ratio, ADX, ATR percentile inputs, momentum, support/resistance,
// market-structure trend) used by the advanced strategy variants.
func ComputeAdvanced(bars []core.OHLCV, cfg *config.StrategyConfig, log *zap.Logger) (*Frame, error) {
	return compute(bars, cfg, true, log)
}

func compute(bars []core.OHLCV, cfg *config.StrategyConfig, advanced bool, log *zap.Logger) (*Frame, error) {
	if log == nil {
		log = logger.Nop()
	}
	if len(bars) == 0 {
		return nil, core.Errorf(core.ErrInsufficientData, "cannot compute indicators on empty series")
	}
	for i, b := range bars {
		if b.Open <= 0 || b.High <= 0 || b.Low <= 0 || b.Close <= 0 {
			return nil, core.Errorf(core.ErrSchemaInvalid,
				"bar %d at %s has non-positive price field", i, b.Time.Format(time.RFC3339))
		}
	}

	close := core.Closes(bars)
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	volume := make([]float64, len(bars))
	for i, b := range bars {
		high[i] = b.High
		low[i] = b.Low
		volume[i] = b.Volume
	}

	f := &Frame{Bars: bars}

	log.Debug("computing Bollinger Bands",
		zap.Int("length", cfg.Bollinger.Length), zap.Float64("std", cfg.Bollinger.Std))
	f.BBL, f.BBM, f.BBU = Bollinger(close, cfg.Bollinger.Length, cfg.Bollinger.Std)

	log.Debug("computing MACD",
		zap.Int("fast", cfg.MACD.Fast), zap.Int("slow", cfg.MACD.Slow), zap.Int("signal", cfg.MACD.Signal))
	f.MACD, f.MACDSignal, f.MACDHist = MACD(close, cfg.MACD.Fast, cfg.MACD.Slow, cfg.MACD.Signal)

	log.Debug("computing RSI", zap.Int("length", cfg.RSI.Length))
	f.RSI = RSI(close, cfg.RSI.Length)

	if cfg.Risk.UseATR || advanced {
		log.Debug("computing ATR", zap.Int("length", cfg.Risk.ATRLength))
		f.ATR = ATR(high, low, close, cfg.Risk.ATRLength)
	}

	if cfg.Filters.EMATrend.Use {
		log.Debug("computing EMA trend filter", zap.Int("length", cfg.Filters.EMATrend.Length))
		f.EMATrend = EMA(close, cfg.Filters.EMATrend.Length)
	}

	if advanced {
		f.EMAFast = EMA(close, advancedLookback)
		f.VolumeRatio = ratio(volume, SMA(volume, advancedLookback))
		f.ATRPct = pct(f.ATR, close)
		f.ADX, _, _ = ADX(high, low, close, 14)
		f.Momentum = Momentum(close, 10)
		f.Support = RollingMin(low, advancedLookback)
		f.Resistance = RollingMax(high, advancedLookback)
		f.Trend = trendScore(high, low)
		f.KCUpper, f.KCLower = keltner(high, low, close)
	}

	pruned, dropped := prune(f, cfg)
	if dropped > 0 {
		log.Info("dropped warm-up rows after indicator computation", zap.Int("rows", dropped))
	}
	if pruned.Len() == 0 {
		return nil, core.Errorf(core.ErrInsufficientData,
			"all %d rows dropped after warm-up pruning; not enough data for the configured lookbacks", len(bars))
	}

	log.Info("computed indicators", zap.Int("rows", pruned.Len()))
	return pruned, nil
}

// prune drops leading rows where any required column is NaN. Required means
// the always-on columns plus ATR and EMA trend when their features are
// enabled. Advanced confirmation columns are exempt: their gates degrade to
// neutral on NaN.
func prune(f *Frame, cfg *config.StrategyConfig) (*Frame, int) {
	required := [][]float64{f.BBL, f.BBM, f.BBU, f.MACD, f.MACDSignal, f.MACDHist, f.RSI}
	if cfg.Risk.UseATR && f.ATR != nil {
		required = append(required, f.ATR)
	}
	if cfg.Filters.EMATrend.Use && f.EMATrend != nil {
		required = append(required, f.EMATrend)
	}

	start := f.Len()
	for i := 0; i < f.Len(); i++ {
		ok := true
		for _, col := range required {
			if math.IsNaN(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			start = i
			break
		}
	}

	return f.slice(start), start
}

func (f *Frame) slice(start int) *Frame {
	cut := func(col []float64) []float64 {
		if col == nil {
			return nil
		}
		return col[start:]
	}
	return &Frame{
		Bars:        f.Bars[start:],
		BBL:         cut(f.BBL),
		BBM:         cut(f.BBM),
		BBU:         cut(f.BBU),
		MACD:        cut(f.MACD),
		MACDSignal:  cut(f.MACDSignal),
		MACDHist:    cut(f.MACDHist),
		RSI:         cut(f.RSI),
		ATR:         cut(f.ATR),
		EMATrend:    cut(f.EMATrend),
		EMAFast:     cut(f.EMAFast),
		VolumeRatio: cut(f.VolumeRatio),
		ATRPct:      cut(f.ATRPct),
		ADX:         cut(f.ADX),
		Momentum:    cut(f.Momentum),
		Support:     cut(f.Support),
		Resistance:  cut(f.Resistance),
		Trend:       cut(f.Trend),
		KCUpper:     cut(f.KCUpper),
		KCLower:     cut(f.KCLower),
	}
}

// Validate checks the frame invariants: band ordering, RSI bounds and the
// absence of NaN in required columns.
func (f *Frame) Validate() error {
	for i := 0; i < f.Len(); i++ {
		for _, c := range []struct {
			name string
			col  []float64
		}{
			{ColBBL, f.BBL}, {ColBBM, f.BBM}, {ColBBU, f.BBU},
			{ColMACD, f.MACD}, {ColMACDSignal, f.MACDSignal},
			{ColMACDHist, f.MACDHist}, {ColRSI, f.RSI},
		} {
			if math.IsNaN(c.col[i]) {
				return core.Errorf(core.ErrDataQuality, "column %s contains NaN at row %d", c.name, i)
			}
		}
		if f.BBL[i] > f.BBM[i] || f.BBM[i] > f.BBU[i] {
			return core.Errorf(core.ErrDataQuality,
				"Bollinger band ordering violated at row %d: %g/%g/%g", i, f.BBL[i], f.BBM[i], f.BBU[i])
		}
		if f.RSI[i] < 0 || f.RSI[i] > 100 {
			return core.Errorf(core.ErrDataQuality, "RSI out of [0,100] at row %d: %g", i, f.RSI[i])
		}
	}
	return nil
}

func ratio(a, b []float64) []float64 {
	out := nans(len(a))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) || b[i] == 0 {
			continue
		}
		out[i] = a[i] / b[i]
	}
	return out
}

func pct(num, denom []float64) []float64 {
	out := nans(len(denom))
	if num == nil {
		return out
	}
	for i := range denom {
		if math.IsNaN(num[i]) || denom[i] == 0 {
			continue
		}
		out[i] = num[i] / denom[i] * 100
	}
	return out
}

// keltner computes Keltner Channels: an EMA of the typical price plus/minus
// twice a 10-bar ATR.
func keltner(high, low, close []float64) (upper, lower []float64) {
	n := len(close)
	typical := make([]float64, n)
	for i := range close {
		typical[i] = (high[i] + low[i] + close[i]) / 3
	}
	mid := EMA(typical, advancedLookback)
	band := ATR(high, low, close, 10)

	upper = nans(n)
	lower = nans(n)
	for i := range close {
		if math.IsNaN(mid[i]) || math.IsNaN(band[i]) {
			continue
		}
		upper[i] = mid[i] + 2*band[i]
		lower[i] = mid[i] - 2*band[i]
	}
	return upper, lower
}

// trendScore derives a smoothed market-structure score from higher-high /
// higher-low and lower-high / lower-low patterns: +1 rows in up structure,
// -1 in down structure, averaged over 5 bars.
func trendScore(high, low []float64) []float64 {
	n := len(high)
	raw := make([]float64, n)
	for i := 2; i < n; i++ {
		hh := high[i] > high[i-1] && high[i] > high[i-2]
		hl := low[i] > low[i-1] && low[i] > low[i-2]
		lh := high[i] < high[i-1] && high[i] < high[i-2]
		ll := low[i] < low[i-1] && low[i] < low[i-2]
		switch {
		case hh || hl:
			raw[i] = 1
		case lh || ll:
			raw[i] = -1
		}
	}
	return SMA(raw, 5)
}
