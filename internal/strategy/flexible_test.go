package strategy

import (
	"testing"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/indicator"
)

// flexFrame exercises every branch of the OR-composed profiles. With
// bands 96/102/108 and a 1% touch tolerance:
//
//	row 1  close 96.5  lower-band touch
//	row 2  close 97.5  near the lower band, bullish crossover
//	row 3  close 101   bearish crossover below the midband
//	row 4  close 99    bullish crossover below the midband, away from the band
//	row 5  close 107   upper-band touch
//	row 6  close 106   near the upper band, bearish crossover
func flexFrame() *indicator.Frame {
	close := []float64{100, 96.5, 97.5, 101, 99, 107, 106, 103}
	macd := []float64{-1, -1, 1, -1, 1, 1, -1, -1}
	sig := repeat(0, 8)
	return handFrame(close, repeat(96, 8), repeat(102, 8), repeat(108, 8), macd, sig)
}

func checkSignals(t *testing.T, pair Pair, wantBuy, wantSell []bool) {
	t.Helper()
	for i := range wantBuy {
		if pair.Buy[i] != wantBuy[i] {
			t.Errorf("buy[%d] = %v, want %v", i, pair.Buy[i], wantBuy[i])
		}
		if pair.Sell[i] != wantSell[i] {
			t.Errorf("sell[%d] = %v, want %v", i, pair.Sell[i], wantSell[i])
		}
	}
}

func TestBuildSignals_SignalRich(t *testing.T) {
	cfg := config.DefaultStrategy()
	cfg.Execution.TouchTolerancePct = 0.01

	pair, err := BuildSignals(flexFrame(), &cfg, VariantSignalRich, nil)
	if err != nil {
		t.Fatalf("BuildSignals: %v", err)
	}

	// Touch, near-band crossover and midband-side crossover all buy; the
	// bare bearish crossover at row 3 sells nothing from below the midband.
	wantBuy := []bool{false, true, true, false, true, false, false, false}
	wantSell := []bool{false, false, false, false, false, true, true, false}
	checkSignals(t, pair, wantBuy, wantSell)
}

func TestBuildSignals_TrendFollowing(t *testing.T) {
	cfg := config.DefaultStrategy()
	cfg.Execution.TouchTolerancePct = 0.01

	pair, err := BuildSignals(flexFrame(), &cfg, VariantTrendFollowing, nil)
	if err != nil {
		t.Fatalf("BuildSignals: %v", err)
	}

	// Crossover-driven: the band touches at rows 1 and 5 no longer fire on
	// their own.
	wantBuy := []bool{false, false, true, false, true, false, false, false}
	wantSell := []bool{false, false, false, false, false, false, true, false}
	checkSignals(t, pair, wantBuy, wantSell)
}

func TestBuildSignals_MeanReversion(t *testing.T) {
	cfg := config.DefaultStrategy()
	cfg.Execution.TouchTolerancePct = 0.01

	pair, err := BuildSignals(flexFrame(), &cfg, VariantMeanReversion, nil)
	if err != nil {
		t.Fatalf("BuildSignals: %v", err)
	}

	// The touch at row 1 lacks MACD confirmation (MACD below signal) and is
	// rejected; only the confirmed near-band crossovers fire.
	wantBuy := []bool{false, false, true, false, false, false, false, false}
	wantSell := []bool{false, false, false, false, false, false, true, false}
	checkSignals(t, pair, wantBuy, wantSell)
}
