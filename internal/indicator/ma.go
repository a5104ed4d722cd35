package indicator

import "math"

// SMA computes the simple moving average of values over the given period.
// The returned slice has the same length as the input; entries before the
// first full window are NaN.
func SMA(values []float64, period int) []float64 {
	result := make([]float64, len(values))
	for i := range result {
		result[i] = math.NaN()
	}

	if period <= 0 || len(values) < period {
		return result
	}

	var sum float64
	for i, v := range values {
		sum += v
		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}

	return result
}
