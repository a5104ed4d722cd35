package optimizer

import (
	"math"

	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

// stepEpsilon absorbs float accumulation error at the inclusive range end.
const stepEpsilon = 1e-9

// ParamRange sweeps one parameter key over the inclusive values
// Start, Start+Step, ..., End.
type ParamRange struct {
	// Key names the StrategyParams field being swept: shortPeriod,
	// longPeriod, lookback or threshold.
	Key string `yaml:"key" json:"key" validate:"required,oneof=shortPeriod longPeriod lookback threshold"`
	// Start is the first value of the sweep.
	Start float64 `yaml:"start" json:"start"`
	// End is the inclusive upper bound of the sweep.
	End float64 `yaml:"end" json:"end"`
	// Step is the sweep increment. Must be positive.
	Step float64 `yaml:"step" json:"step" validate:"gt=0"`
}

// values materializes the sweep. GenerateGrid has already rejected a
// non-positive step.
func (r ParamRange) values() []float64 {
	var out []float64
	for v := r.Start; v <= r.End+stepEpsilon; v += r.Step {
		out = append(out, v)
	}

	return out
}

// GenerateGrid enumerates the Cartesian product of the ranges in declaration
// order (outer loop = first range), merging each combination onto base. The
// order is deterministic; with no ranges the grid is just the base params.
func GenerateGrid(base types.StrategyParams, ranges []ParamRange) ([]types.StrategyParams, error) {
	grid := []types.StrategyParams{base}

	for _, paramRange := range ranges {
		if paramRange.Step <= 0 {
			return nil, errors.Newf(errors.ErrCodeInvalidRange,
				"param range %q step must be positive, got %g", paramRange.Key, paramRange.Step)
		}

		values := paramRange.values()
		next := make([]types.StrategyParams, 0, len(grid)*len(values))

		for _, params := range grid {
			for _, value := range values {
				merged := params
				if err := applyParam(&merged, paramRange.Key, value); err != nil {
					return nil, err
				}

				next = append(next, merged)
			}
		}

		grid = next
	}

	return grid, nil
}

// applyParam writes one swept value onto the named params field.
func applyParam(params *types.StrategyParams, key string, value float64) error {
	switch key {
	case "shortPeriod":
		params.ShortPeriod = int(math.Round(value))
	case "longPeriod":
		params.LongPeriod = int(math.Round(value))
	case "lookback":
		params.Lookback = int(math.Round(value))
	case "threshold":
		params.Threshold = value
	default:
		return errors.Newf(errors.ErrCodeInvalidParameter, "unknown parameter key %q", key)
	}

	return nil
}
