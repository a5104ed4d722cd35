package indicator

import (
	"math"

	"github.com/quantrail/backtest/internal/types"
)

// ATR computes the Average True Range over the bars up to and including
// uptoIndex, using Wilder's smoothing. It needs period+1 bars of history;
// ok is false when there are not enough.
func ATR(bars []types.Bar, uptoIndex, period int) (atr float64, ok bool) {
	if period <= 0 || uptoIndex >= len(bars) || uptoIndex < period {
		return 0, false
	}

	start := uptoIndex - period + 1

	var sum float64
	for i := start; i <= uptoIndex; i++ {
		sum += trueRange(bars[i], bars[i-1].Close)
	}

	return sum / float64(period), true
}

// trueRange is the largest of the bar's high-low span and the gaps between
// the bar's extremes and the previous close.
func trueRange(bar types.Bar, prevClose float64) float64 {
	return math.Max(
		math.Max(
			bar.High-bar.Low,
			math.Abs(bar.High-prevClose),
		),
		math.Abs(bar.Low-prevClose),
	)
}
