package indicator

import "math"

// RSISeries computes the Relative Strength Index over closes using Wilder's
// smoothing method. The returned slice has the same length as the input;
// entries before index `period` are NaN since RSI needs period+1 closes.
func RSISeries(closes []float64, period int) []float64 {
	result := make([]float64, len(closes))
	for i := range result {
		result[i] = math.NaN()
	}

	if period <= 0 || len(closes) < period+1 {
		return result
	}

	// First averages are plain means of the initial window.
	var avgGain, avgLoss float64

	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	result[period] = rsiValue(avgGain, avgLoss)

	// Subsequent averages use Wilder's smoothing.
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiValue(avgGain, avgLoss)
	}

	return result
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100 // perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}
