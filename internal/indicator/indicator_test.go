package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/quantrail/backtest/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sma := SMA(values, 3)

	require.Len(t, sma, 5)
	assert.True(t, math.IsNaN(sma[0]))
	assert.True(t, math.IsNaN(sma[1]))
	assert.InDelta(t, 2.0, sma[2], 1e-9)
	assert.InDelta(t, 3.0, sma[3], 1e-9)
	assert.InDelta(t, 4.0, sma[4], 1e-9)
}

func TestSMAInsufficientData(t *testing.T) {
	sma := SMA([]float64{1, 2}, 5)

	require.Len(t, sma, 2)
	for _, v := range sma {
		assert.True(t, math.IsNaN(v))
	}
}

func TestRSISeriesUptrend(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := RSISeries(closes, 14)

	require.Len(t, rsi, 30)
	assert.True(t, math.IsNaN(rsi[13]))
	// Monotonic gains with no losses saturate the index.
	assert.InDelta(t, 100.0, rsi[14], 1e-9)
	assert.InDelta(t, 100.0, rsi[29], 1e-9)
}

func TestRSISeriesBounds(t *testing.T) {
	closes := []float64{
		100, 102, 99, 103, 98, 104, 97, 105, 96, 106,
		95, 107, 94, 108, 93, 109, 92, 110, 91, 111,
	}

	rsi := RSISeries(closes, 14)

	for i := 14; i < len(rsi); i++ {
		assert.GreaterOrEqual(t, rsi[i], 0.0)
		assert.LessOrEqual(t, rsi[i], 100.0)
	}
}

func TestATR(t *testing.T) {
	bars := make([]types.Bar, 20)
	for i := range bars {
		bars[i] = types.Bar{
			Date:  time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			Open:  100,
			High:  102,
			Low:   98,
			Close: 100,
		}
	}

	atr, ok := ATR(bars, 19, 14)
	require.True(t, ok)
	// Constant 4-point range with no gaps gives a constant true range.
	assert.InDelta(t, 4.0, atr, 1e-9)

	_, ok = ATR(bars, 5, 14)
	assert.False(t, ok)
}

func TestStdevReturns(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100, 100}

	stdev, ok := StdevReturns(closes, 5, 5)
	require.True(t, ok)
	assert.InDelta(t, 0.0, stdev, 1e-9)

	_, ok = StdevReturns(closes, 2, 5)
	assert.False(t, ok)
}

func TestStdev(t *testing.T) {
	assert.InDelta(t, 2.0, Stdev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Equal(t, 0.0, Stdev(nil))
}
