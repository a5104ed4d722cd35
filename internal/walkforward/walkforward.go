// Package walkforward evaluates strategies under rolling out-of-sample
// conditions: re-optimize on a training window, test on the following
// window, slide, and chain capital across segments.
package walkforward

import (
	"context"

	"github.com/moznion/go-optional"
	"github.com/quantrail/backtest/internal/analyzer"
	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/optimizer"
	"github.com/quantrail/backtest/internal/simulator"
	"github.com/quantrail/backtest/internal/stop"
	"github.com/quantrail/backtest/internal/strategy"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
	"go.uber.org/zap"
)

// Segment is one (train, test) pair of the walk. Indices are positions in
// the original bar series; the test result carries the carried-forward
// capital of the chain.
type Segment struct {
	TrainStart int `yaml:"train_start" json:"train_start"`
	TrainEnd   int `yaml:"train_end" json:"train_end"`
	TestStart  int `yaml:"test_start" json:"test_start"`
	TestEnd    int `yaml:"test_end" json:"test_end"`
	// Params is the best combination found on the training window.
	Params types.StrategyParams `yaml:"params" json:"params"`
	// Result is the out-of-sample performance on the test window.
	Result types.BacktestResult `yaml:"result" json:"result"`
}

// Analyzer wraps the parameter optimizer with the sliding-window walk.
type Analyzer struct {
	optimizer *optimizer.Optimizer
	log       *logger.Logger
}

// New creates a walk-forward Analyzer. A nil logger disables logging.
func New(opt *optimizer.Optimizer, log *logger.Logger) *Analyzer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Analyzer{
		optimizer: opt,
		log:       log,
	}
}

// Run slides the (train, test) window pair across the bar series, advancing
// by testWindow each step. Each segment optimizes on its training slice and
// applies the winning parameters to the following test slice with the
// capital carried forward from the previous segment. The overall return
// compares the final carried capital with the original initial capital.
//
// A series shorter than trainWindow+testWindow is a configuration error,
// surfaced immediately and never retried.
func (a *Analyzer) Run(ctx context.Context, bars []types.Bar, name strategy.Name, baseParams types.StrategyParams, ranges []optimizer.ParamRange, trainWindow, testWindow int) ([]Segment, float64, error) {
	if trainWindow <= 0 || testWindow <= 0 {
		return nil, 0, errors.Newf(errors.ErrCodeInvalidParameter,
			"walk-forward windows must be positive, got train=%d test=%d", trainWindow, testWindow)
	}

	if len(bars) < trainWindow+testWindow {
		return nil, 0, errors.Newf(errors.ErrCodeWindowTooLarge,
			"walk-forward needs at least %d bars (train=%d + test=%d), got %d",
			trainWindow+testWindow, trainWindow, testWindow, len(bars))
	}

	strat, err := strategy.FromName(name)
	if err != nil {
		return nil, 0, err
	}

	segments := []Segment{}
	capital := baseParams.InitialCapital

	for i := 0; i+trainWindow+testWindow <= len(bars); i += testWindow {
		trainSlice := bars[i : i+trainWindow]
		testSlice := bars[i+trainWindow : i+trainWindow+testWindow]

		best, _, err := a.optimizer.Optimize(ctx, trainSlice, name, baseParams, ranges)
		if err != nil {
			return nil, 0, err
		}

		// Apply the winning parameters out-of-sample with the chained
		// capital.
		params := best.Params
		params.InitialCapital = capital

		signals := strat.GenerateSignals(testSlice, params)
		trades, equity := simulator.Run(testSlice, signals, params, optional.None[stop.Config]())
		result := analyzer.Analyze(trades, equity, capital)

		segments = append(segments, Segment{
			TrainStart: i,
			TrainEnd:   i + trainWindow,
			TestStart:  i + trainWindow,
			TestEnd:    i + trainWindow + testWindow,
			Params:     best.Params,
			Result:     result,
		})

		capital = result.FinalCapital

		a.log.Debug("walk-forward segment complete",
			zap.Int("segment", len(segments)),
			zap.Float64("capital", capital),
		)
	}

	overallReturn := 0.0
	if baseParams.InitialCapital != 0 {
		overallReturn = (capital - baseParams.InitialCapital) / baseParams.InitialCapital
	}

	return segments, overallReturn, nil
}
