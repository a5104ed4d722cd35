package types

import "time"

// EquityPoint is a per-bar snapshot of the simulator's cash and position
// state. One point is produced for every bar, trade or no trade, so the
// equity curve always has exactly len(bars) entries.
type EquityPoint struct {
	Date time.Time `yaml:"date" json:"date"`
	// Cash is the uninvested capital after the bar's trades settled
	Cash float64 `yaml:"cash" json:"cash"`
	// Shares is the open position quantity at the end of the bar
	Shares float64 `yaml:"shares" json:"shares"`
	// Close is the close price used to mark the position to market
	Close float64 `yaml:"close" json:"close"`
	// EquityValue is Cash + Shares*Close
	EquityValue float64 `yaml:"equity_value" json:"equity_value"`
	// StopLoss is the active stop level while a position is open. Zero when
	// flat or when no stop configuration was supplied.
	StopLoss float64 `yaml:"stop_loss,omitempty" json:"stop_loss,omitempty"`
	// TakeProfit is the active target level while a position is open.
	TakeProfit float64 `yaml:"take_profit,omitempty" json:"take_profit,omitempty"`
}
