package strategy

import (
	"math"

	"github.com/quantrail/backtest/internal/indicator"
	"github.com/quantrail/backtest/internal/types"
)

const (
	rsiPeriod          = 14
	rsiOversoldLevel   = 30.0
	rsiOverboughtLevel = 70.0
)

// RSIReversal trades 14-period RSI threshold crossings: buy when RSI crosses
// below 30 while flat, sell when it crosses above 70 while holding. The
// crossing test runs on the RSI value sequence, not on raw closes.
type RSIReversal struct{}

// Name returns the strategy identifier.
func (s *RSIReversal) Name() Name {
	return NameRSI
}

// GenerateSignals emits oversold entries and overbought exits.
func (s *RSIReversal) GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal {
	signals := []types.Signal{}

	if len(bars) <= rsiPeriod+1 {
		return signals
	}

	rsi := indicator.RSISeries(types.Closes(bars), rsiPeriod)

	holding := false

	for i := rsiPeriod + 1; i < len(bars); i++ {
		if math.IsNaN(rsi[i-1]) || math.IsNaN(rsi[i]) {
			continue
		}

		crossedBelow := rsi[i-1] >= rsiOversoldLevel && rsi[i] < rsiOversoldLevel
		crossedAbove := rsi[i-1] <= rsiOverboughtLevel && rsi[i] > rsiOverboughtLevel

		switch {
		case crossedBelow && !holding:
			signals = append(signals, types.Signal{
				BarIndex: i,
				Kind:     types.SignalBuy,
				Price:    bars[i].Close,
			})
			holding = true
		case crossedAbove && holding:
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
