// Package montecarlo estimates outcome robustness by resampling a finite
// sequence of realized trade profits: reordering the same profits many times
// yields an empirical distribution of ending capital and drawdown.
package montecarlo

import (
	"math/rand"
	"sort"
	"time"

	"github.com/quantrail/backtest/internal/types"
)

// Simulator owns its RNG so concurrent simulations never share mutable
// state; a seeded simulator is reproducible run for run.
type Simulator struct {
	rng *rand.Rand
}

// New creates a Simulator seeded from the wall clock.
func New() *Simulator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed creates a reproducible Simulator.
func NewWithSeed(seed int64) *Simulator {
	return &Simulator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Simulate shuffles the realized profit sequence `runs` times, walking each
// shuffled order to accumulate capital and track drawdown from a running
// peak. All aggregate values are fractional returns relative to
// initialCapital. An empty profit list is a valid outcome and yields a
// zero-filled result.
func (s *Simulator) Simulate(profits []float64, initialCapital float64, runs int) types.SimulationResult {
	if len(profits) == 0 || runs <= 0 || initialCapital == 0 {
		return types.SimulationResult{}
	}

	finals := make([]float64, runs)
	drawdowns := make([]float64, runs)
	shuffled := make([]float64, len(profits))

	for i := 0; i < runs; i++ {
		copy(shuffled, profits)
		s.rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		final, maxDD := walkPath(shuffled, initialCapital)
		finals[i] = (final - initialCapital) / initialCapital
		drawdowns[i] = maxDD
	}

	var sum float64
	for _, f := range finals {
		sum += f
	}

	sorted := make([]float64, runs)
	copy(sorted, finals)
	sort.Float64s(sorted)

	return types.SimulationResult{
		Runs:         runs,
		BestCase:     sorted[runs-1],
		WorstCase:    sorted[0],
		Average:      sum / float64(runs),
		Median:       sorted[runs/2],
		Confidence95: sorted[int(0.05*float64(runs))],
		Drawdowns:    drawdowns,
	}
}

// walkPath accumulates capital over one profit ordering and measures the max
// drawdown from a running peak.
func walkPath(profits []float64, initialCapital float64) (final, maxDD float64) {
	capital := initialCapital
	peak := capital

	for _, profit := range profits {
		capital += profit

		if capital > peak {
			peak = capital
		}

		if peak > 0 {
			if dd := (peak - capital) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}

	return capital, maxDD
}
