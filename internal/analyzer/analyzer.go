// Package analyzer derives aggregate performance metrics from the trade list
// and equity curve of one simulation run. Everything here is pure: no I/O,
// no state, bit-identical results for identical inputs.
package analyzer

import (
	"math"

	"github.com/quantrail/backtest/internal/indicator"
	"github.com/quantrail/backtest/internal/types"
)

const (
	// tradingDaysPerYear annualizes daily equity returns.
	tradingDaysPerYear = 252
	// riskFreeAnnual is the annual risk-free rate used by the Sharpe ratio.
	riskFreeAnnual = 0.03
	// profitFactorCap replaces an infinite profit factor when there are no
	// losing trades, keeping the value serializable and comparable.
	profitFactorCap = 999.0
)

// Analyze computes the aggregate result of one run.
func Analyze(trades []types.Trade, equity []types.EquityPoint, initialCapital float64) types.BacktestResult {
	result := types.BacktestResult{
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital,
		TradesCount:    len(trades),
	}

	if len(equity) > 0 {
		result.StartDate = equity[0].Date
		result.EndDate = equity[len(equity)-1].Date
		result.FinalCapital = equity[len(equity)-1].EquityValue
	}

	if initialCapital != 0 {
		result.TotalReturn = (result.FinalCapital - initialCapital) / initialCapital
	}

	result.MaxDrawdown = maxDrawdown(equity, initialCapital)
	result.SharpeRatio = sharpeRatio(equity)
	result.WinRate, result.ProfitFactor = tradeMetrics(trades)

	return result
}

// maxDrawdown measures the largest peak-to-trough decline of the equity
// curve as a fraction of the peak. The peak starts at the initial capital so
// a first-bar loss already counts; a strictly rising curve yields 0.
func maxDrawdown(equity []types.EquityPoint, initialCapital float64) float64 {
	peak := initialCapital
	maxDD := 0.0

	for _, point := range equity {
		if point.EquityValue > peak {
			peak = point.EquityValue
		}

		if peak > 0 {
			if dd := (peak - point.EquityValue) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// sharpeRatio annualizes the mean daily equity return over its standard
// deviation, net of the risk-free rate. Zero volatility yields 0.
func sharpeRatio(equity []types.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)

	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].EquityValue
		if prev == 0 {
			continue
		}

		returns = append(returns, equity[i].EquityValue/prev-1)
	}

	stdev := indicator.Stdev(returns)
	if stdev == 0 {
		return 0
	}

	annualizedReturn := indicator.Mean(returns) * tradingDaysPerYear

	return (annualizedReturn - riskFreeAnnual) / (stdev * math.Sqrt(tradingDaysPerYear))
}

// tradeMetrics computes win rate and profit factor from the closed (sell)
// trades. Both are 0 when no position was ever closed.
func tradeMetrics(trades []types.Trade) (winRate, profitFactor float64) {
	var sells, wins int

	var grossProfit, grossLoss float64

	for _, trade := range trades {
		if trade.Action != types.ActionSell {
			continue
		}

		sells++

		if trade.Profit > 0 {
			wins++
			grossProfit += trade.Profit
		} else {
			grossLoss += -trade.Profit
		}
	}

	if sells == 0 {
		return 0, 0
	}

	winRate = float64(wins) / float64(sells)

	switch {
	case grossLoss > 0:
		profitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		profitFactor = profitFactorCap
	default:
		profitFactor = 0
	}

	return winRate, profitFactor
}
