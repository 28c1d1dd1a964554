// Package backtest converts a signal pair and an indicator frame into a
// trade ledger, equity curve and ending portfolio state. The simulator is a
// single forward pass over the bars carrying one position record: the exit
// rules (stop, trailing stop, time limit, midband) all depend on entry state,
// so the scan cannot be collapsed into per-bar predicates.
package backtest

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/config"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/indicator"
	"github.com/velalab/vela/internal/logger"
	"github.com/velalab/vela/internal/rule"
)

// Run simulates a single-position long-only strategy over the frame. Buy and
// sell series must be aligned to the frame; empty or mismatched inputs are
// fatal. The portfolio is marked to market on every bar, including bars with
// no transition.
func Run(f *indicator.Frame, buy, sell []bool, cfg *config.StrategyConfig, log *zap.Logger) (*Result, error) {
	if log == nil {
		log = logger.Nop()
	}

	if f == nil || f.Len() == 0 {
		return nil, core.Errorf(core.ErrSimInvalidInput, "cannot run backtest on empty frame")
	}
	if len(buy) != f.Len() || len(sell) != f.Len() {
		return nil, core.Errorf(core.ErrSimInvalidInput,
			"frame and signal series must have same length: frame=%d buy=%d sell=%d",
			f.Len(), len(buy), len(sell))
	}
	if cfg.Backtest.AllowShort {
		return nil, core.Errorf(core.ErrConfigInvalid, "short selling is not supported")
	}
	if rule.Count(buy) == 0 && rule.Count(sell) == 0 {
		log.Warn("no signals found, backtest will have no trades")
	}

	useATR := cfg.Risk.UseATR
	if useATR && f.ATR == nil {
		log.Warn("ATR risk management enabled but ATR column not present, skipping stops")
		useATR = false
	}
	atrSizing := cfg.Backtest.SizeMode == "atr_risk" && useATR

	log.Debug("backtest parameters",
		zap.Float64("initial_cash", cfg.Backtest.InitialCash),
		zap.Float64("size_pct", cfg.Backtest.SizePct),
		zap.Float64("fee_pct", cfg.Execution.FeePct),
		zap.Float64("slippage_pct", cfg.Execution.SlippagePct))

	res := &Result{
		RunID:      uuid.NewString(),
		Symbol:     f.Bars[0].Symbol,
		Interval:   f.Interval(),
		StartValue: cfg.Backtest.InitialCash,
		Start:      f.Time(0),
		End:        f.Time(f.Len() - 1),
		Equity:     make([]EquityPoint, 0, f.Len()),
	}

	cash := cfg.Backtest.InitialCash
	var pos *position

	for i := 0; i < f.Len(); i++ {
		price := f.Close(i)
		if math.IsNaN(price) || price <= 0 {
			return nil, core.Errorf(core.ErrDataQuality,
				"invalid close %g at bar %d; indicator stage produced a corrupt frame", price, i)
		}

		if pos != nil {
			if useATR {
				if math.IsNaN(f.ATR[i]) {
					return nil, core.Errorf(core.ErrDataQuality,
						"NaN ATR at bar %d; indicator stage produced a corrupt frame", i)
				}
				pos.ratchet(price, f.ATR[i], cfg.Risk.TrailMult)
			}

			if reason, ok := exitReason(f, buy, sell, pos, i, cfg, useATR); ok {
				trade := closePosition(pos, f, i, cfg, reason, &cash)
				res.Trades = append(res.Trades, trade)
				pos = nil
			}
		} else if buy[i] {
			// Tie-break: a simultaneous sell on the same bar is ignored,
			// buy takes priority.
			p, err := openPosition(f, i, cfg, atrSizing, cash)
			if err != nil {
				return nil, err
			}
			cash -= p.cost
			pos = p
			log.Debug("entered position",
				zap.Int("bar", i), zap.Float64("price", p.entryPrice), zap.Float64("cost", p.cost))
		}

		value := cash
		if pos != nil {
			value += pos.quantity * price
		}
		res.Equity = append(res.Equity, EquityPoint{Time: f.Time(i), Value: value})
	}

	// Mark any position still open to market at the final close. No fill is
	// simulated, so no exit fee or slippage applies.
	if pos != nil {
		last := f.Len() - 1
		gross := pos.quantity * f.Close(last)
		trade := Trade{
			EntryIndex: pos.entryIndex,
			ExitIndex:  last,
			EntryTime:  pos.entryTime,
			ExitTime:   f.Time(last),
			EntryPrice: pos.entryPrice,
			ExitPrice:  f.Close(last),
			Quantity:   pos.quantity,
			Cost:       pos.cost,
			Proceeds:   gross,
			Fees:       pos.fees,
			Return:     gross/pos.cost - 1,
			Reason:     ExitEndOfData,
			Open:       true,
		}
		res.Trades = append(res.Trades, trade)
		cash += gross
	}

	res.EndValue = cash
	res.TotalFees = totalFees(res.Trades)

	log.Info("backtest completed",
		zap.String("run_id", res.RunID),
		zap.Int("trades", len(res.Trades)),
		zap.Float64("end_value", res.EndValue))

	return res, nil
}

// exitReason evaluates the exit rules for an open position at bar i, in
// precedence order: raw sell signal, ATR stop, trailing stop, time limit,
// midband cross.
func exitReason(f *indicator.Frame, buy, sell []bool, pos *position, i int,
	cfg *config.StrategyConfig, useATR bool) (ExitReason, bool) {

	if sell[i] && !buy[i] {
		return ExitSignal, true
	}

	price := f.Close(i)

	if useATR {
		if pos.stopLoss > 0 && price <= pos.stopLoss {
			return ExitStopLoss, true
		}
		if pos.trailingStop > 0 && price <= pos.trailingStop {
			return ExitTrailingStop, true
		}
	}

	if cfg.Exits.TimeBased.Use && i-pos.entryIndex >= cfg.Exits.TimeBased.MaxBarsInTrade {
		return ExitTimeLimit, true
	}

	if cfg.Exits.Midband.Use && i > 0 {
		if f.Close(i-1) < f.BBM[i] && price >= f.BBM[i] {
			return ExitMidband, true
		}
	}

	return "", false
}

// openPosition sizes and fills a long entry at bar i. The fill price carries
// slippage; the fee is debited from the amount spent.
func openPosition(f *indicator.Frame, i int, cfg *config.StrategyConfig, atrSizing bool, cash float64) (*position, error) {
	sizeFrac := cfg.Backtest.SizePct
	if atrSizing {
		sizeFrac = ATRPositionSize(f.Close(i), f.ATR[i], cfg.Backtest.SizePct)
	}

	spend := sizeFrac * cash
	if spend <= 0 {
		return nil, core.Errorf(core.ErrSimInvalidInput, "position size collapsed to zero at bar %d", i)
	}

	fill := f.Close(i) * (1 + cfg.Execution.SlippagePct)
	fee := spend * cfg.Execution.FeePct

	pos := &position{
		entryIndex: i,
		entryTime:  f.Time(i),
		entryPrice: fill,
		quantity:   (spend - fee) / fill,
		cost:       spend,
		fees:       fee,
		highWater:  f.Close(i),
	}

	if cfg.Risk.UseATR && f.ATR != nil {
		pos.stopLoss = fill - cfg.Risk.StopMult*f.ATR[i]
	}

	return pos, nil
}

// closePosition fills the exit at bar i and produces the trade record.
func closePosition(pos *position, f *indicator.Frame, i int, cfg *config.StrategyConfig,
	reason ExitReason, cash *float64) Trade {

	fill := f.Close(i) * (1 - cfg.Execution.SlippagePct)
	gross := pos.quantity * fill
	fee := gross * cfg.Execution.FeePct
	proceeds := gross - fee
	*cash += proceeds

	return Trade{
		EntryIndex: pos.entryIndex,
		ExitIndex:  i,
		EntryTime:  pos.entryTime,
		ExitTime:   f.Time(i),
		EntryPrice: pos.entryPrice,
		ExitPrice:  fill,
		Quantity:   pos.quantity,
		Cost:       pos.cost,
		Proceeds:   proceeds,
		Fees:       pos.fees + fee,
		Return:     proceeds/pos.cost - 1,
		Reason:     reason,
	}
}

// ratchet advances the high-water mark and trailing stop. The trailing stop
// only ever moves up.
func (p *position) ratchet(price, atr, trailMult float64) {
	if price <= p.highWater {
		return
	}
	p.highWater = price
	trail := price - trailMult*atr
	if trail > p.trailingStop {
		p.trailingStop = trail
	}
}

func totalFees(trades []Trade) float64 {
	var sum float64
	for _, t := range trades {
		sum += t.Fees
	}
	return sum
}
