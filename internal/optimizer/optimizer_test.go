package optimizer

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/quantrail/backtest/internal/strategy"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type OptimizerTestSuite struct {
	suite.Suite
	bars []types.Bar
}

func TestOptimizerTestSuite(t *testing.T) {
	suite.Run(t, new(OptimizerTestSuite))
}

func (suite *OptimizerTestSuite) SetupSuite() {
	// A wavy but upward-drifting series so different momentum parameters
	// genuinely produce different scores.
	suite.bars = make([]types.Bar, 200)
	for i := range suite.bars {
		c := 100 + float64(i)*0.5 + 10*math.Sin(float64(i)/7)
		suite.bars[i] = types.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   c,
			High:   c + 1,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		}
	}
}

func (suite *OptimizerTestSuite) baseParams() types.StrategyParams {
	return types.StrategyParams{
		InitialCapital: 100000,
		Lookback:       5,
		Threshold:      0.02,
	}
}

func (suite *OptimizerTestSuite) TestGenerateGridNestedLoopOrder() {
	grid, err := GenerateGrid(suite.baseParams(), []ParamRange{
		{Key: "lookback", Start: 2, End: 4, Step: 1},
		{Key: "threshold", Start: 0.01, End: 0.02, Step: 0.01},
	})
	suite.Require().NoError(err)
	suite.Require().Len(grid, 6)

	// Outer loop is the first declared key.
	suite.Assert().Equal(2, grid[0].Lookback)
	suite.Assert().InDelta(0.01, grid[0].Threshold, 1e-9)
	suite.Assert().Equal(2, grid[1].Lookback)
	suite.Assert().InDelta(0.02, grid[1].Threshold, 1e-9)
	suite.Assert().Equal(3, grid[2].Lookback)
	suite.Assert().Equal(4, grid[5].Lookback)

	// Base values survive the merge.
	for _, params := range grid {
		suite.Assert().Equal(100000.0, params.InitialCapital)
	}
}

func (suite *OptimizerTestSuite) TestGenerateGridInclusiveEnd() {
	grid, err := GenerateGrid(types.StrategyParams{}, []ParamRange{
		{Key: "threshold", Start: 0.01, End: 0.03, Step: 0.01},
	})
	suite.Require().NoError(err)
	suite.Require().Len(grid, 3)
	suite.Assert().InDelta(0.03, grid[2].Threshold, 1e-9)
}

func (suite *OptimizerTestSuite) TestGenerateGridRejectsNonPositiveStep() {
	for _, step := range []float64{0, -1} {
		_, err := GenerateGrid(types.StrategyParams{}, []ParamRange{
			{Key: "lookback", Start: 2, End: 4, Step: step},
		})
		suite.Require().Error(err)
		suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidRange))
	}
}

func (suite *OptimizerTestSuite) TestGenerateGridUnknownKey() {
	_, err := GenerateGrid(types.StrategyParams{}, []ParamRange{
		{Key: "leverage", Start: 1, End: 2, Step: 1},
	})
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *OptimizerTestSuite) TestEmptyRangesEvaluateBaseOnly() {
	opt := New(Config{}, nil)

	best, all, err := opt.Optimize(context.Background(), suite.bars, strategy.NameMomentum, suite.baseParams(), nil)
	suite.Require().NoError(err)
	suite.Require().Len(all, 1)
	suite.Assert().Equal(suite.baseParams(), best.Params)
}

func (suite *OptimizerTestSuite) TestSequentialAndParallelSelectSameBest() {
	ranges := []ParamRange{
		{Key: "lookback", Start: 2, End: 9, Step: 1},
		{Key: "threshold", Start: 0.005, End: 0.03, Step: 0.005},
	}

	// Threshold above the grid size forces the sequential path.
	sequential := New(Config{ParallelThreshold: 1000}, nil)
	seqBest, seqAll, err := sequential.Optimize(context.Background(), suite.bars, strategy.NameMomentum, suite.baseParams(), ranges)
	suite.Require().NoError(err)

	parallel := New(Config{Workers: 4, ParallelThreshold: 1}, nil)
	parBest, parAll, err := parallel.Optimize(context.Background(), suite.bars, strategy.NameMomentum, suite.baseParams(), ranges)
	suite.Require().NoError(err)

	suite.Assert().Equal(seqBest.Params, parBest.Params)
	suite.Assert().Equal(seqBest.Score, parBest.Score)
	suite.Assert().Len(parAll, len(seqAll))
}

func (suite *OptimizerTestSuite) TestBestScoreIsMaximal() {
	ranges := []ParamRange{
		{Key: "lookback", Start: 2, End: 9, Step: 1},
	}

	opt := New(Config{}, nil)
	best, all, err := opt.Optimize(context.Background(), suite.bars, strategy.NameMomentum, suite.baseParams(), ranges)
	suite.Require().NoError(err)

	for _, result := range all {
		suite.Assert().GreaterOrEqual(best.Score, result.Score)
	}
}

func (suite *OptimizerTestSuite) TestUnknownStrategyFails() {
	opt := New(Config{}, nil)

	_, _, err := opt.Optimize(context.Background(), suite.bars, "martingale", suite.baseParams(), nil)
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *OptimizerTestSuite) TestCanceledContextAborts() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ranges := []ParamRange{
		{Key: "lookback", Start: 2, End: 30, Step: 1},
	}

	opt := New(Config{Workers: 2, ParallelThreshold: 1}, nil)

	_, _, err := opt.Optimize(ctx, suite.bars, strategy.NameMomentum, suite.baseParams(), ranges)
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeOptimizeAbort))
}

// panickingStrategy blows up on every evaluation.
type panickingStrategy struct{}

func (s *panickingStrategy) Name() strategy.Name {
	return "panicking"
}

func (s *panickingStrategy) GenerateSignals(bars []types.Bar, params types.StrategyParams) []types.Signal {
	panic("signal generation failed")
}

func (suite *OptimizerTestSuite) TestWorkerFailureFailsWholeOptimization() {
	grid, err := GenerateGrid(suite.baseParams(), []ParamRange{
		{Key: "lookback", Start: 2, End: 21, Step: 1},
	})
	suite.Require().NoError(err)
	suite.Require().Len(grid, 20)

	opt := New(Config{Workers: 4}, nil)

	// A dropped chunk would silently bias the winner, so one failed worker
	// must fail the whole call.
	_, _, err = opt.optimizeParallel(context.Background(), suite.bars, &panickingStrategy{}, grid)
	suite.Require().Error(err)
	suite.Assert().True(errors.HasCode(err, errors.ErrCodeWorkerFailed))
}
