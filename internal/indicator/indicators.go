package indicator

import "math"

// Bollinger computes Bollinger Bands: an SMA of the input plus/minus std
// standard deviations. Returns lower, middle, upper.
func Bollinger(close []float64, length int, std float64) (lower, middle, upper []float64) {
	middle = SMA(close, length)
	dev := RollingStd(close, length)

	lower = nans(len(close))
	upper = nans(len(close))
	for i := range close {
		if math.IsNaN(middle[i]) || math.IsNaN(dev[i]) {
			continue
		}
		lower[i] = middle[i] - dev[i]*std
		upper[i] = middle[i] + dev[i]*std
	}
	return lower, middle, upper
}

// MACD computes the MACD line (fast EMA minus slow EMA), its signal EMA, and
// the histogram (line minus signal).
func MACD(close []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(close, fast)
	emaSlow := EMA(close, slow)

	line = nans(len(close))
	for i := range close {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			continue
		}
		line[i] = emaFast[i] - emaSlow[i]
	}

	sig = EMA(line, signal)

	hist = nans(len(close))
	for i := range close {
		if math.IsNaN(line[i]) || math.IsNaN(sig[i]) {
			continue
		}
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// RSI computes the relative strength index from rolling average gain and
// average loss. All-loss windows resolve to 0 and all-gain windows to 100,
// the mathematical limits of the ratio; a flat window with neither gains nor
// losses resolves to the neutral 50.
func RSI(close []float64, length int) []float64 {
	n := len(close)
	gains := nans(n)
	losses := nans(n)
	for i := 1; i < n; i++ {
		delta := close[i] - close[i-1]
		if delta > 0 {
			gains[i] = delta
			losses[i] = 0
		} else {
			gains[i] = 0
			losses[i] = -delta
		}
	}

	avgGain := SMA(gains, length)
	avgLoss := SMA(losses, length)

	out := nans(n)
	for i := range out {
		g, l := avgGain[i], avgLoss[i]
		if math.IsNaN(g) || math.IsNaN(l) {
			continue
		}
		switch {
		case g == 0 && l == 0:
			out[i] = 50
		case l == 0:
			out[i] = 100
		case g == 0:
			out[i] = 0
		default:
			out[i] = 100 - 100/(1+g/l)
		}
	}
	return out
}

// TrueRange computes the per-bar true range: the greatest of high-low,
// |high-prevclose| and |low-prevclose|. The first bar uses high-low.
func TrueRange(high, low, close []float64) []float64 {
	out := nans(len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATR computes the average true range as a rolling mean of the true range.
func ATR(high, low, close []float64, length int) []float64 {
	return SMA(TrueRange(high, low, close), length)
}

// Momentum computes the n-bar price difference.
func Momentum(close []float64, length int) []float64 {
	out := nans(len(close))
	for i := length; i < len(close); i++ {
		out[i] = close[i] - close[i-length]
	}
	return out
}

// ADX computes Wilder's average directional index along with the +DI and -DI
// components. Values before the warm-up window are NaN.
func ADX(high, low, close []float64, length int) (adx, plusDI, minusDI []float64) {
	n := len(close)
	adx = nans(n)
	plusDI = nans(n)
	minusDI = nans(n)
	if length < 1 || n < 2*length+1 {
		return adx, plusDI, minusDI
	}

	tr := TrueRange(high, low, close)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := high[i] - high[i-1]
		down := low[i-1] - low[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder smoothing: seed with the sum of the first window, then
	// smoothed = prev - prev/length + current.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= length; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := nans(n)
	for i := length; i < n; i++ {
		if i > length {
			smTR = smTR - smTR/float64(length) + tr[i]
			smPlus = smPlus - smPlus/float64(length) + plusDM[i]
			smMinus = smMinus - smMinus/float64(length) + minusDM[i]
		}
		if smTR == 0 {
			plusDI[i] = 0
			minusDI[i] = 0
			dx[i] = 0
			continue
		}
		plusDI[i] = 100 * smPlus / smTR
		minusDI[i] = 100 * smMinus / smTR
		sum := plusDI[i] + minusDI[i]
		if sum == 0 {
			dx[i] = 0
		} else {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	// ADX is the Wilder-smoothed DX.
	var sumDX float64
	for i := length; i < 2*length; i++ {
		sumDX += dx[i]
	}
	prev := sumDX / float64(length)
	adx[2*length-1] = prev
	for i := 2 * length; i < n; i++ {
		prev = (prev*float64(length-1) + dx[i]) / float64(length)
		adx[i] = prev
	}
	return adx, plusDI, minusDI
}
