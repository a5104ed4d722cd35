// Package strategy contains the built-in signal generators. Each strategy is
// a pure function from a bar series and parameters to an ordered signal list:
// no state survives across calls, and the same inputs always produce the same
// signals.
package strategy

import (
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

// Name identifies one of the built-in strategies.
type Name string

const (
	NameBuyAndHold Name = "buy_and_hold"
	NameMACross    Name = "ma_cross"
	NameMomentum   Name = "momentum"
	NameRSI        Name = "rsi"
)

// AllNames lists every built-in strategy, in a stable order.
var AllNames = []Name{NameBuyAndHold, NameMACross, NameMomentum, NameRSI}

// Strategy generates buy/sell signals from a bar series.
//
// Implementations return an empty signal list when the series is shorter than
// the minimum window the strategy needs; a run without signals degrades to
// "no trades" rather than an error. Signals strictly alternate Buy, Sell.
type Strategy interface {
	// Name returns the strategy identifier.
	Name() Name
	// GenerateSignals maps the bar series and parameters to an ordered
	// signal list.
	GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal
}

// FromName resolves a strategy identifier to its implementation.
func FromName(name Name) (Strategy, error) {
	switch name {
	case NameBuyAndHold:
		return &BuyAndHold{}, nil
	case NameMACross:
		return &MACross{}, nil
	case NameMomentum:
		return &Momentum{}, nil
	case NameRSI:
		return &RSIReversal{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy %q", name)
	}
}

// GenerateSignals resolves name and runs its generator in one call.
func GenerateSignals(bars []types.Bar, name Name, params types.StrategyParams) ([]types.Signal, error) {
	strat, err := FromName(name)
	if err != nil {
		return nil, err
	}

	return strat.GenerateSignals(bars, params), nil
}
