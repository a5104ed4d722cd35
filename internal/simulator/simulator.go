// Package simulator executes a signal list against a bar series bar-by-bar,
// producing the trade log and equity curve of one backtest run. It owns the
// authoritative cash/position state for the duration of the run; nothing
// leaks out except the emitted trades and equity points.
package simulator

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
	"github.com/quantrail/backtest/internal/stop"
	"github.com/quantrail/backtest/internal/types"
)

// position is the run-local ledger of the single open lot. Only one lot is
// ever open at a time: strategies do not pyramid.
type position struct {
	quantity float64
	avgCost  float64
}

// runState carries the simulator's mutable state across bars.
type runState struct {
	cash     float64
	pos      position
	holding  bool
	entry    float64
	highest  float64 // highest close since entry, trailing reference
	stopLoss float64
	target   float64
}

// Run walks the bar series in order, applying signals and, when a stop
// configuration is supplied, stop-loss/take-profit triggers. It returns the
// executed trades and one equity point per bar.
//
// The walk is a Flat -> Long -> Flat state machine: buys are skipped while
// holding, sells while flat. A signal whose affordable quantity is zero is
// silently skipped. A position still open at the final bar is marked to
// market, never force-liquidated. Data irregularities do not produce errors;
// a degraded run yields fewer trades, not a failure.
func Run(bars []types.Bar, signals []types.Signal, params types.StrategyParams, stopConfig optional.Option[stop.Config]) ([]types.Trade, []types.EquityPoint) {
	trades := []types.Trade{}
	equity := make([]types.EquityPoint, 0, len(bars))

	state := runState{cash: params.InitialCapital}
	sigIdx := 0

	for i, bar := range bars {
		// Stop/target triggers are evaluated before the bar's scheduled
		// signal and take priority over a same-bar sell.
		if state.holding && stopConfig.IsSome() {
			config := stopConfig.Unwrap()
			updateStops(&state, bars, i, config)

			if triggered, price := checkTriggers(&state, bar); triggered {
				trades = append(trades, sell(&state, bar, price, params))
			}
		}

		for sigIdx < len(signals) && signals[sigIdx].BarIndex == i {
			signal := signals[sigIdx]
			sigIdx++

			switch signal.Kind {
			case types.SignalBuy:
				if state.holding {
					continue
				}

				trade, ok := buy(&state, bars, i, signal.Price, params, stopConfig)
				if ok {
					trades = append(trades, trade)
				}
			case types.SignalSell:
				if !state.holding {
					continue
				}

				trades = append(trades, sell(&state, bar, signal.Price, params))
			}
		}

		point := types.EquityPoint{
			Date:        bar.Date,
			Cash:        state.cash,
			Shares:      state.pos.quantity,
			Close:       bar.Close,
			EquityValue: state.cash + state.pos.quantity*bar.Close,
		}
		if state.holding {
			point.StopLoss = state.stopLoss
			point.TakeProfit = state.target
		}

		equity = append(equity, point)
	}

	return trades, equity
}

// buy opens a long position with every affordable share at the signal price,
// slippage and commission included. ok is false when not even one share is
// affordable; the signal is then skipped without a trade.
func buy(state *runState, bars []types.Bar, barIndex int, price float64, params types.StrategyParams, stopConfig optional.Option[stop.Config]) (types.Trade, bool) {
	unitCost := price * (1 + params.Slippage) * (1 + params.Commission)
	if unitCost <= 0 {
		return types.Trade{}, false
	}

	quantity := math.Floor(state.cash / unitCost)
	if quantity <= 0 {
		return types.Trade{}, false
	}

	cost := quantity * unitCost
	state.cash -= cost
	state.pos = position{quantity: quantity, avgCost: cost / quantity}
	state.holding = true
	state.entry = price
	state.highest = bars[barIndex].Close

	if stopConfig.IsSome() {
		config := stopConfig.Unwrap()
		state.stopLoss = stop.ComputeStopLoss(price, price, bars, barIndex, config)
		state.target = stop.ComputeTakeProfit(price, price, bars, barIndex, config)
	}

	return types.Trade{
		Date:     bars[barIndex].Date,
		Action:   types.ActionBuy,
		Price:    price,
		Quantity: quantity,
		Amount:   cost,
	}, true
}

// sell closes the open position at the given price and realizes profit
// against the position's average cost, using decimal arithmetic for the PnL.
func sell(state *runState, bar types.Bar, price float64, params types.StrategyParams) types.Trade {
	quantity := state.pos.quantity

	proceedsDec := decimal.NewFromFloat(quantity).
		Mul(decimal.NewFromFloat(price)).
		Mul(decimal.NewFromFloat(1 - params.Slippage)).
		Mul(decimal.NewFromFloat(1 - params.Commission))
	costBasisDec := decimal.NewFromFloat(state.pos.avgCost).
		Mul(decimal.NewFromFloat(quantity))
	profitDec := proceedsDec.Sub(costBasisDec)

	proceeds, _ := proceedsDec.Float64()
	profit, _ := profitDec.Float64()

	profitPercent := 0.0
	if !costBasisDec.IsZero() {
		profitPercent, _ = profitDec.Div(costBasisDec).Float64()
	}

	state.cash += proceeds
	state.pos = position{}
	state.holding = false
	state.stopLoss = 0
	state.target = 0

	return types.Trade{
		Date:          bar.Date,
		Action:        types.ActionSell,
		Price:         price,
		Quantity:      quantity,
		Amount:        proceeds,
		Profit:        profit,
		ProfitPercent: profitPercent,
	}
}

// updateStops refreshes the trailing reference and, for trailing stops,
// recomputes the levels. A fixed stop is computed once at entry and never
// moves; a trailing stop only ratchets in the favorable direction.
func updateStops(state *runState, bars []types.Bar, barIndex int, config stop.Config) {
	if !config.TrailingStop {
		return
	}

	if close := bars[barIndex].Close; close > state.highest {
		state.highest = close
	}

	newStop := stop.ComputeStopLoss(state.entry, state.highest, bars, barIndex, config)
	state.stopLoss = stop.Trail(state.stopLoss, newStop)

	newTarget := stop.ComputeTakeProfit(state.entry, state.highest, bars, barIndex, config)
	if newTarget > state.target {
		state.target = newTarget
	}
}

// checkTriggers tests the bar close against the active levels. The stop is
// checked before the target.
func checkTriggers(state *runState, bar types.Bar) (bool, float64) {
	if state.stopLoss > 0 && bar.Close <= state.stopLoss {
		return true, bar.Close
	}

	if state.target > 0 && bar.Close >= state.target {
		return true, bar.Close
	}

	return false, 0
}
