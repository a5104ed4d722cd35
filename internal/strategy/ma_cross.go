package strategy

import (
	"math"

	"github.com/quantrail/backtest/internal/indicator"
	"github.com/quantrail/backtest/internal/types"
)

// MACross trades simple moving average crossovers: buy when the short average
// crosses from at-or-below the long average to above it while flat, sell on
// the symmetric cross while holding.
type MACross struct{}

// Name returns the strategy identifier.
func (s *MACross) Name() Name {
	return NameMACross
}

// GenerateSignals scans for crossovers between the short and long SMAs of
// the close series. Only one position is open at a time.
func (s *MACross) GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal {
	signals := []types.Signal{}

	short, long := params.ShortPeriod, params.LongPeriod
	if short <= 0 || long <= 0 || len(bars) <= long {
		return signals
	}

	closes := types.Closes(bars)
	shortMA := indicator.SMA(closes, short)
	longMA := indicator.SMA(closes, long)

	holding := false

	// The crossing test needs the previous bar's averages, so scanning
	// starts one bar after the long window fills.
	for i := long; i < len(bars); i++ {
		if math.IsNaN(shortMA[i-1]) || math.IsNaN(longMA[i-1]) {
			continue
		}

		crossedUp := shortMA[i-1] <= longMA[i-1] && shortMA[i] > longMA[i]
		crossedDown := shortMA[i-1] >= longMA[i-1] && shortMA[i] < longMA[i]

		switch {
		case crossedUp && !holding:
			signals = append(signals, types.Signal{
				BarIndex: i,
				Kind:     types.SignalBuy,
				Price:    bars[i].Close,
			})
			holding = true
		case crossedDown && holding:
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
