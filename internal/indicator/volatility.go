package indicator

import "math"

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// Stdev returns the population standard deviation of values.
func Stdev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	mean := Mean(values)

	var sumSq float64
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return math.Sqrt(sumSq / float64(len(values)))
}

// StdevReturns computes the standard deviation of the last `period` simple
// returns of closes up to and including uptoIndex. ok is false when there is
// not enough history for a full window.
func StdevReturns(closes []float64, uptoIndex, period int) (stdev float64, ok bool) {
	if period <= 0 || uptoIndex >= len(closes) || uptoIndex < period {
		return 0, false
	}

	returns := make([]float64, 0, period)

	for i := uptoIndex - period + 1; i <= uptoIndex; i++ {
		if closes[i-1] == 0 {
			continue
		}

		returns = append(returns, closes[i]/closes[i-1]-1)
	}

	if len(returns) == 0 {
		return 0, false
	}

	return Stdev(returns), true
}
