package types

// StrategyParams carries the strategy-specific knobs plus the universal cost
// parameters of a run. A fully materialized value doubles as one combination
// of the optimizer's search space.
type StrategyParams struct {
	// ShortPeriod is the fast moving average window (ma_cross).
	ShortPeriod int `yaml:"short_period" json:"short_period"`
	// LongPeriod is the slow moving average window (ma_cross).
	LongPeriod int `yaml:"long_period" json:"long_period"`
	// Lookback is the momentum comparison distance in bars (momentum).
	Lookback int `yaml:"lookback" json:"lookback"`
	// Threshold is the relative price change that triggers momentum entries
	// and exits (momentum).
	Threshold float64 `yaml:"threshold" json:"threshold"`
	// InitialCapital is the cash the simulation starts with.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"gte=0"`
	// Commission is a proportional fee applied on both legs of a trade.
	Commission float64 `yaml:"commission" json:"commission" validate:"gte=0"`
	// Slippage is a proportional price adjustment, always adverse to the
	// trader: buys fill above the bar price, sells below it.
	Slippage float64 `yaml:"slippage" json:"slippage" validate:"gte=0"`
}
