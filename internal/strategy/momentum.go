package strategy

import "github.com/quantrail/backtest/internal/types"

// Momentum compares each close with the close `lookback` bars earlier: buy
// when the relative change exceeds +threshold while flat, sell when it falls
// below -threshold while holding.
type Momentum struct{}

// Name returns the strategy identifier.
func (s *Momentum) Name() Name {
	return NameMomentum
}

// GenerateSignals emits momentum entries and exits over the close series.
func (s *Momentum) GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal {
	signals := []types.Signal{}

	lookback := params.Lookback
	if lookback <= 0 || len(bars) <= lookback {
		return signals
	}

	holding := false

	for i := lookback; i < len(bars); i++ {
		base := bars[i-lookback].Close
		if base == 0 {
			continue
		}

		change := (bars[i].Close - base) / base

		switch {
		case change > params.Threshold && !holding:
			signals = append(signals, types.Signal{
				BarIndex: i,
				Kind:     types.SignalBuy,
				Price:    bars[i].Close,
			})
			holding = true
		case change < -params.Threshold && holding:
			signals = append(signals, types.Signal{
				BarIndex: i,
				Kind:     types.SignalSell,
				Price:    bars[i].Close,
			})
			holding = false
		}
	}

	return signals
}
