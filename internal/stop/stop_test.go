package stop

import (
	"testing"
	"time"

	"github.com/quantrail/backtest/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatBars(n int, rangeHigh, rangeLow, close float64) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = types.Bar{
			Date:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:  close,
			High:  rangeHigh,
			Low:   rangeLow,
			Close: close,
		}
	}

	return bars
}

func TestPercentageStop(t *testing.T) {
	bars := flatBars(30, 102, 98, 100)

	stopPrice := ComputeStopLoss(100, 100, bars, 29, Config{
		Method:      MethodPercentage,
		StopPercent: 0.05,
	})

	assert.InDelta(t, 95.0, stopPrice, 1e-9)
}

func TestPercentageTakeProfit(t *testing.T) {
	bars := flatBars(30, 102, 98, 100)

	target := ComputeTakeProfit(100, 100, bars, 29, Config{
		Method:            MethodPercentage,
		TakeProfitPercent: 0.08,
	})

	assert.InDelta(t, 108.0, target, 1e-9)
}

func TestATRStop(t *testing.T) {
	// Constant 4-point true range, multiplier 2: stop sits 8 below reference.
	bars := flatBars(30, 102, 98, 100)

	stopPrice := ComputeStopLoss(100, 100, bars, 29, Config{
		Method:     MethodATR,
		Period:     14,
		Multiplier: 2,
	})

	assert.InDelta(t, 92.0, stopPrice, 1e-9)
}

func TestVolatilityStopFlatSeries(t *testing.T) {
	// Zero return stdev would put the stop at the reference; the clamp
	// forces it below entry.
	bars := flatBars(30, 100, 100, 100)

	stopPrice := ComputeStopLoss(100, 100, bars, 29, Config{
		Method:     MethodVolatility,
		Period:     14,
		Multiplier: 2,
	})

	assert.InDelta(t, 99.0, stopPrice, 1e-9)
}

func TestInsufficientHistoryFallback(t *testing.T) {
	bars := flatBars(5, 102, 98, 100)

	stopPrice := ComputeStopLoss(100, 100, bars, 4, Config{
		Method:     MethodATR,
		Period:     14,
		Multiplier: 2,
	})
	assert.InDelta(t, 95.0, stopPrice, 1e-9)

	target := ComputeTakeProfit(100, 100, bars, 4, Config{
		Method:     MethodATR,
		Period:     14,
		Multiplier: 2,
	})
	assert.InDelta(t, 110.0, target, 1e-9)
}

func TestStopClampedBelowEntry(t *testing.T) {
	bars := flatBars(30, 102, 98, 100)

	// Trailing reference far above entry would otherwise place the stop
	// above the entry price.
	stopPrice := ComputeStopLoss(100, 150, bars, 29, Config{
		Method:      MethodPercentage,
		StopPercent: 0.05,
	})

	require.LessOrEqual(t, stopPrice, 100*longStopClamp)
	assert.InDelta(t, 99.0, stopPrice, 1e-9)
}

func TestTrailOnlyMovesUp(t *testing.T) {
	assert.Equal(t, 95.0, Trail(95, 90))
	assert.Equal(t, 97.0, Trail(95, 97))
}
