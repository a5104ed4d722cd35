package strategy

import "github.com/quantrail/backtest/internal/types"

// BuyAndHold buys at the first bar and never sells. Any forced-exit logic is
// the simulator's concern, not the strategy's.
type BuyAndHold struct{}

// Name returns the strategy identifier.
func (s *BuyAndHold) Name() Name {
	return NameBuyAndHold
}

// GenerateSignals emits a single buy at bar 0.
func (s *BuyAndHold) GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal {
	if len(bars) == 0 {
		return []types.Signal{}
	}

	return []types.Signal{
		{
			BarIndex: 0,
			Kind:     types.SignalBuy,
			Price:    bars[0].Close,
		},
	}
}
