package types

import "time"

// TradeAction is the side of an executed trade.
type TradeAction string

const (
	ActionBuy  TradeAction = "buy"
	ActionSell TradeAction = "sell"
)

// Trade is one executed fill inside a simulation run. Trades are append-only:
// replaying the full sequence in order reconstructs exactly one cash/position
// trajectory.
type Trade struct {
	// Code is the instrument code. Empty inside a single-instrument
	// simulation run; populated on trades that round-trip storage.
	Code string `yaml:"code,omitempty" json:"code,omitempty"`
	// Date is the date of the bar the trade executed on
	Date time.Time `yaml:"date" json:"date"`
	// Action is the trade side
	Action TradeAction `yaml:"action" json:"action"`
	// Price is the raw bar price before slippage and commission
	Price float64 `yaml:"price" json:"price"`
	// Quantity is the number of shares filled
	Quantity float64 `yaml:"quantity" json:"quantity"`
	// Amount is the cash actually moved by the fill, slippage and commission
	// included. Debited on buys, credited on sells.
	Amount float64 `yaml:"amount" json:"amount"`
	// Profit is the realized profit against the average cost basis of the
	// shares being closed. Populated only on sell trades.
	Profit float64 `yaml:"profit,omitempty" json:"profit,omitempty"`
	// ProfitPercent is Profit relative to the cost basis. Sell trades only.
	ProfitPercent float64 `yaml:"profit_percent,omitempty" json:"profit_percent,omitempty"`
}
