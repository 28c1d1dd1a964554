package strategy

// TimingReport summarizes when signals occur across a run.
type TimingReport struct {
	TotalPeriods int
	BuySignals   int
	SellSignals  int
	SignalRate   float64

	// Indexes of the first/last occurrence of each side, -1 when none.
	FirstBuy  int
	LastBuy   int
	FirstSell int
	LastSell  int
}

// AnalyzeTiming derives signal distribution diagnostics from a pair.
func AnalyzeTiming(p Pair) TimingReport {
	r := TimingReport{
		TotalPeriods: p.Len(),
		FirstBuy:     -1,
		LastBuy:      -1,
		FirstSell:    -1,
		LastSell:     -1,
	}

	for i := range p.Buy {
		if p.Buy[i] {
			r.BuySignals++
			if r.FirstBuy == -1 {
				r.FirstBuy = i
			}
			r.LastBuy = i
		}
		if p.Sell[i] {
			r.SellSignals++
			if r.FirstSell == -1 {
				r.FirstSell = i
			}
			r.LastSell = i
		}
	}

	if r.TotalPeriods > 0 {
		r.SignalRate = float64(r.BuySignals+r.SellSignals) / float64(r.TotalPeriods)
	}
	return r
}
