package types

// SignalKind is the direction of a strategy signal.
type SignalKind string

const (
	// SignalBuy tells the simulator to open a long position
	SignalBuy SignalKind = "buy"
	// SignalSell tells the simulator to close the open position
	SignalSell SignalKind = "sell"
)

// Signal is a strategy-generated instruction to open or close a position at
// a given bar. Signals are emitted in ascending BarIndex order and strictly
// alternate Buy, Sell, Buy, ... within one generation pass.
type Signal struct {
	// BarIndex is the index into the bar series the signal applies to
	BarIndex int `yaml:"bar_index" json:"bar_index"`
	// Kind is the direction of the signal
	Kind SignalKind `yaml:"kind" json:"kind"`
	// Price is the close price of the bar that produced the signal
	Price float64 `yaml:"price" json:"price"`
}
