package indicator

import (
	"math"
	"testing"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestSMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}

	sma := SMA(prices, 3)

	if len(sma) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(sma))
	}

	// Warm-up positions hold NaN
	if !math.IsNaN(sma[0]) || !math.IsNaN(sma[1]) {
		t.Error("expected NaN during warm-up")
	}

	// SMA(3): [2] = (10+11+12)/3 = 11, then 12, 13, 14
	expected := []float64{11, 12, 13, 14}
	for i, v := range expected {
		if !almostEqual(sma[i+2], v) {
			t.Errorf("sma[%d] = %f, want %f", i+2, sma[i+2], v)
		}
	}
}

func TestSMA_NotEnoughData(t *testing.T) {
	sma := SMA([]float64{10, 11}, 5)
	if len(sma) != 2 {
		t.Fatalf("expected 2 values, got %d", len(sma))
	}
	for i, v := range sma {
		if !math.IsNaN(v) {
			t.Errorf("sma[%d] = %f, want NaN", i, v)
		}
	}
}

func TestSMA_NaNWindow(t *testing.T) {
	prices := []float64{10, math.NaN(), 12, 13, 14}
	sma := SMA(prices, 3)

	// Windows containing the NaN stay NaN
	if !math.IsNaN(sma[2]) || !math.IsNaN(sma[3]) {
		t.Error("expected NaN for windows containing NaN")
	}
	if !almostEqual(sma[4], 13) {
		t.Errorf("sma[4] = %f, want 13", sma[4])
	}
}

func TestRollingStd(t *testing.T) {
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	std := RollingStd(prices, 8)

	// Sample standard deviation (n-1) of the full window
	want := math.Sqrt(32.0 / 7.0)
	if !almostEqual(std[7], want) {
		t.Errorf("std[7] = %f, want %f", std[7], want)
	}
	for i := 0; i < 7; i++ {
		if !math.IsNaN(std[i]) {
			t.Errorf("std[%d] = %f, want NaN", i, std[i])
		}
	}
}

func TestEMA_Calculate(t *testing.T) {
	prices := []float64{10, 11, 12, 13, 14, 15}
	ema := EMA(prices, 3)

	if len(ema) != len(prices) {
		t.Fatalf("expected %d values, got %d", len(prices), len(ema))
	}

	// Seeded with SMA of the first window
	if !almostEqual(ema[2], 11) {
		t.Errorf("ema[2] = %f, want 11", ema[2])
	}

	// Recursive: ema = (price - prev)*k + prev with k = 2/(period+1) = 0.5
	if !almostEqual(ema[3], 12) {
		t.Errorf("ema[3] = %f, want 12", ema[3])
	}
	if !almostEqual(ema[4], 13) {
		t.Errorf("ema[4] = %f, want 13", ema[4])
	}
}

func TestEMA_SkipsLeadingNaN(t *testing.T) {
	prices := []float64{math.NaN(), math.NaN(), 10, 11, 12, 13}
	ema := EMA(prices, 3)

	if !math.IsNaN(ema[0]) || !math.IsNaN(ema[3]) {
		t.Error("expected NaN before the seed position")
	}
	// Seed sits at the end of the first full window after the NaNs
	if !almostEqual(ema[4], 11) {
		t.Errorf("ema[4] = %f, want 11", ema[4])
	}
}

func TestRollingMaxMin(t *testing.T) {
	prices := []float64{3, 1, 4, 1, 5, 9, 2, 6}

	max := RollingMax(prices, 3)
	min := RollingMin(prices, 3)

	if !almostEqual(max[4], 5) || !almostEqual(max[5], 9) {
		t.Errorf("max[4..5] = %f,%f, want 5,9", max[4], max[5])
	}
	if !almostEqual(min[3], 1) || !almostEqual(min[6], 2) {
		t.Errorf("min[3],min[6] = %f,%f, want 1,2", min[3], min[6])
	}
}

func TestRollingQuantile(t *testing.T) {
	prices := []float64{1, 2, 3, 4, 5}

	median := RollingQuantile(prices, 5, 0.5)
	if !almostEqual(median[4], 3) {
		t.Errorf("median = %f, want 3", median[4])
	}

	q25 := RollingQuantile(prices, 5, 0.25)
	if !almostEqual(q25[4], 2) {
		t.Errorf("q25 = %f, want 2", q25[4])
	}

	// Interpolated between ranks
	q30 := RollingQuantile(prices, 5, 0.3)
	if !almostEqual(q30[4], 2.2) {
		t.Errorf("q30 = %f, want 2.2", q30[4])
	}
}

func TestRollingQuantile_IgnoresNaN(t *testing.T) {
	prices := []float64{1, math.NaN(), 3, math.NaN(), 5}
	median := RollingQuantile(prices, 5, 0.5)
	if !almostEqual(median[4], 3) {
		t.Errorf("median = %f, want 3", median[4])
	}
}

func TestShift(t *testing.T) {
	prices := []float64{1, 2, 3, 4}
	shifted := Shift(prices, 1)

	if !math.IsNaN(shifted[0]) {
		t.Error("expected NaN at head after shift")
	}
	for i := 1; i < len(prices); i++ {
		if !almostEqual(shifted[i], prices[i-1]) {
			t.Errorf("shifted[%d] = %f, want %f", i, shifted[i], prices[i-1])
		}
	}
}
