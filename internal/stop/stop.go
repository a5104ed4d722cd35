// Package stop computes dynamic stop-loss and take-profit levels for an open
// long position.
package stop

import (
	"github.com/quantrail/backtest/internal/indicator"
	"github.com/quantrail/backtest/internal/types"
)

// Method selects how the stop distance is derived from price history.
type Method string

const (
	// MethodATR places the stop an ATR multiple away from the reference.
	MethodATR Method = "atr"
	// MethodVolatility scales the reference by a stdev-of-returns multiple.
	MethodVolatility Method = "volatility"
	// MethodPercentage uses a fixed percentage of the reference.
	MethodPercentage Method = "percentage"
)

const (
	// fallback levels when history is shorter than the configured lookback
	fallbackStopPercent   = 0.05
	fallbackTargetPercent = 0.10

	// a long stop never sits above 99% of the entry price
	longStopClamp = 0.99

	defaultPeriod     = 14
	defaultMultiplier = 2.0
)

// Config describes one stop/target computation.
type Config struct {
	// Method selects the stop computation. Defaults to percentage.
	Method Method `yaml:"method" json:"method" validate:"omitempty,oneof=atr volatility percentage"`
	// Period is the lookback window for atr and volatility methods.
	Period int `yaml:"period" json:"period" validate:"gte=0"`
	// Multiplier scales the atr or stdev distance.
	Multiplier float64 `yaml:"multiplier" json:"multiplier" validate:"gte=0"`
	// StopPercent is the fixed stop distance for the percentage method.
	StopPercent float64 `yaml:"stop_percent" json:"stop_percent" validate:"gte=0"`
	// TakeProfitPercent is the fixed target distance for the percentage method.
	TakeProfitPercent float64 `yaml:"take_profit_percent" json:"take_profit_percent" validate:"gte=0"`
	// TrailingStop recomputes levels against the best close since entry
	// instead of the entry price. A trailing stop only ever moves up.
	TrailingStop bool `yaml:"trailing_stop" json:"trailing_stop"`
}

// withDefaults fills zero-valued knobs with the standard settings.
func (c Config) withDefaults() Config {
	if c.Method == "" {
		c.Method = MethodPercentage
	}

	if c.Period == 0 {
		c.Period = defaultPeriod
	}

	if c.Multiplier == 0 {
		c.Multiplier = defaultMultiplier
	}

	if c.StopPercent == 0 {
		c.StopPercent = fallbackStopPercent
	}

	if c.TakeProfitPercent == 0 {
		c.TakeProfitPercent = fallbackTargetPercent
	}

	return c
}

// ComputeStopLoss returns the stop level for a long position entered at
// entryPrice, computed against referencePrice (the entry price for a fixed
// stop, the highest close since entry for a trailing one) using history up
// to and including uptoIndex.
//
// Insufficient history for the configured lookback falls back to a fixed 5%
// stop. The result is always clamped below entryPrice*0.99 so a stop can
// never sit above the entry.
func ComputeStopLoss(entryPrice, referencePrice float64, bars []types.Bar, uptoIndex int, config Config) float64 {
	config = config.withDefaults()

	var stopPrice float64

	switch config.Method {
	case MethodATR:
		atr, ok := indicator.ATR(bars, uptoIndex, config.Period)
		if !ok {
			stopPrice = referencePrice * (1 - fallbackStopPercent)
			break
		}

		stopPrice = referencePrice - atr*config.Multiplier
	case MethodVolatility:
		stdev, ok := indicator.StdevReturns(types.Closes(bars), uptoIndex, config.Period)
		if !ok {
			stopPrice = referencePrice * (1 - fallbackStopPercent)
			break
		}

		stopPrice = referencePrice * (1 - stdev*config.Multiplier)
	default:
		stopPrice = referencePrice * (1 - config.StopPercent)
	}

	if clamp := entryPrice * longStopClamp; stopPrice > clamp {
		stopPrice = clamp
	}

	return stopPrice
}

// ComputeTakeProfit returns the target level, computed against referencePrice
// the same way ComputeStopLoss computes the stop. Insufficient history falls
// back to a fixed 10% target.
func ComputeTakeProfit(entryPrice, referencePrice float64, bars []types.Bar, uptoIndex int, config Config) float64 {
	config = config.withDefaults()

	switch config.Method {
	case MethodATR:
		atr, ok := indicator.ATR(bars, uptoIndex, config.Period)
		if !ok {
			return referencePrice * (1 + fallbackTargetPercent)
		}

		return referencePrice + atr*config.Multiplier
	case MethodVolatility:
		stdev, ok := indicator.StdevReturns(types.Closes(bars), uptoIndex, config.Period)
		if !ok {
			return referencePrice * (1 + fallbackTargetPercent)
		}

		return referencePrice * (1 + stdev*config.Multiplier)
	default:
		return referencePrice * (1 + config.TakeProfitPercent)
	}
}

// Trail applies the trailing update policy: a new stop replaces the current
// one only when it moves in the favorable direction for a long.
func Trail(currentStop, newStop float64) float64 {
	if newStop > currentStop {
		return newStop
	}

	return currentStop
}
