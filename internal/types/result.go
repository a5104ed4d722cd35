package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BacktestResult aggregates one simulation run. Derived by the performance
// analyzer, never mutated after creation.
type BacktestResult struct {
	// InitialCapital is the starting capital of the run.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital"`
	// FinalCapital is the last equity value of the run, mark-to-market.
	FinalCapital float64 `yaml:"final_capital" json:"final_capital"`
	// TotalReturn is (FinalCapital - InitialCapital) / InitialCapital.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	// MaxDrawdown is the largest peak-to-trough decline of the equity curve,
	// as a fraction of the peak. Always within [0, 1].
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// SharpeRatio is annualized from daily equity returns.
	SharpeRatio float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	// TradesCount is the total number of fills, buys and sells.
	TradesCount int `yaml:"trades_count" json:"trades_count"`
	// WinRate is profitable sells over all sells. Zero with no closed trades.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// ProfitFactor is gross profit over gross loss. Capped at 999 when there
	// are no losing trades, to keep the value serializable and comparable.
	ProfitFactor float64 `yaml:"profit_factor" json:"profit_factor"`
	// StartDate is the date of the first bar in the run.
	StartDate time.Time `yaml:"start_date" json:"start_date"`
	// EndDate is the date of the last bar in the run.
	EndDate time.Time `yaml:"end_date" json:"end_date"`
}

// SimulationResult is the aggregate of a Monte Carlo resampling of realized
// trade profits. All values are fractional returns relative to the initial
// capital of the simulation.
type SimulationResult struct {
	// Runs is the number of shuffled paths simulated.
	Runs int `yaml:"runs" json:"runs"`
	// BestCase is the highest ending return across runs.
	BestCase float64 `yaml:"best_case" json:"best_case"`
	// WorstCase is the lowest ending return across runs.
	WorstCase float64 `yaml:"worst_case" json:"worst_case"`
	// Average is the mean ending return.
	Average float64 `yaml:"average" json:"average"`
	// Median is the median ending return.
	Median float64 `yaml:"median" json:"median"`
	// Confidence95 is the 5th percentile ending return: 95% of simulated
	// paths finished at or above this value.
	Confidence95 float64 `yaml:"confidence_95" json:"confidence_95"`
	// Drawdowns holds the max drawdown observed on each simulated path.
	Drawdowns []float64 `yaml:"drawdowns" json:"drawdowns"`
}

// WriteBacktestReport marshals a backtest result to YAML and writes it to
// the given path.
func WriteBacktestReport(path string, result BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}
