package montecarlo

import (
	"testing"

	"github.com/quantrail/backtest/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulateOrderingBounds(t *testing.T) {
	profits := []float64{500, -300, 800, -200, 1000, -600, 400}

	result := NewWithSeed(42).Simulate(profits, 10000, 500)

	require.Equal(t, 500, result.Runs)
	assert.GreaterOrEqual(t, result.BestCase, result.Average)
	assert.GreaterOrEqual(t, result.Average, result.WorstCase)
	assert.GreaterOrEqual(t, result.BestCase, result.Confidence95)
	assert.GreaterOrEqual(t, result.Confidence95, result.WorstCase)
	assert.GreaterOrEqual(t, result.BestCase, result.Median)
	assert.GreaterOrEqual(t, result.Median, result.WorstCase)
}

func TestSimulateEndingCapitalIndependentOfOrder(t *testing.T) {
	// Shuffling changes the path, not the sum: every run ends at the same
	// capital, so best and worst case coincide.
	profits := []float64{100, -50, 200}

	result := NewWithSeed(7).Simulate(profits, 10000, 100)

	want := 250.0 / 10000.0
	assert.InDelta(t, want, result.BestCase, 1e-9)
	assert.InDelta(t, want, result.WorstCase, 1e-9)
	assert.InDelta(t, want, result.Average, 1e-9)
}

func TestSimulateDrawdownsPerRun(t *testing.T) {
	profits := []float64{500, -300, 800, -200}

	result := NewWithSeed(1).Simulate(profits, 10000, 50)

	require.Len(t, result.Drawdowns, 50)
	for _, dd := range result.Drawdowns {
		assert.GreaterOrEqual(t, dd, 0.0)
		assert.LessOrEqual(t, dd, 1.0)
	}
}

func TestSimulateEmptyProfitsZeroFilled(t *testing.T) {
	result := New().Simulate(nil, 10000, 100)

	assert.Equal(t, types.SimulationResult{}, result)
}

func TestSimulateSeededReproducibility(t *testing.T) {
	profits := []float64{500, -300, 800, -200, 1000}

	first := NewWithSeed(99).Simulate(profits, 10000, 200)
	second := NewWithSeed(99).Simulate(profits, 10000, 200)

	assert.Equal(t, first, second)
}
