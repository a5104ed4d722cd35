package types

import "time"

// Bar represents a single OHLCV price observation for one instrument.
// Bars are immutable once constructed and ordered strictly ascending by Date.
type Bar struct {
	Date   time.Time `yaml:"date" json:"date" csv:"date"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
	// Amount is the traded currency amount for the bar. Optional; zero when
	// the data provider does not supply it.
	Amount float64 `yaml:"amount,omitempty" json:"amount,omitempty" csv:"amount"`
}

// Closes extracts the close price series from a bar slice.
func Closes(bars []Bar) []float64 {
	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	return closes
}
