package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (s *EngineTestSuite) SetupTest() {
	s.engine = NewEngine()
}

func ascendingBars(count int) []types.Bar {
	bars := make([]types.Bar, count)
	for i := range bars {
		price := float64(100 + i)
		bars[i] = types.Bar{
			Date:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   price,
			High:   price + 1,
			Low:    price - 1,
			Close:  price,
			Volume: 1000,
		}
	}

	return bars
}

func (s *EngineTestSuite) TestRunBuyAndHoldAscending() {
	s.Require().NoError(s.engine.Initialize(`
strategy: buy_and_hold
params:
  initial_capital: 100000
`))

	s.engine.SetBars(ascendingBars(100))

	run, err := s.engine.Run(optional.None[OnProgressCallback]())
	s.Require().NoError(err)

	s.Require().Len(run.Trades, 1)
	s.Equal(types.ActionBuy, run.Trades[0].Action)
	s.Len(run.Equity, 100)

	// All capital deployed at 100, held to the last close of 199.
	s.InDelta(199000.0, run.Result.FinalCapital, 1e-9)
	s.InDelta(0.99, run.Result.TotalReturn, 1e-9)
	s.Zero(run.Result.MaxDrawdown)
}

func (s *EngineTestSuite) TestRunWithoutBarsFails() {
	s.Require().NoError(s.engine.Initialize(`
strategy: buy_and_hold
`))

	_, err := s.engine.Run(optional.None[OnProgressCallback]())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInsufficientData))
}

func (s *EngineTestSuite) TestInitializeRejectsNewerMinVersion() {
	err := s.engine.Initialize(`
strategy: buy_and_hold
min_version: 99.0.0
`)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *EngineTestSuite) TestInitializeRejectsBadConfig() {
	err := s.engine.Initialize(`strategy: martingale`)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (s *EngineTestSuite) TestProgressCallbackPhases() {
	s.Require().NoError(s.engine.Initialize(`
strategy: buy_and_hold
`))

	s.engine.SetBars(ascendingBars(10))

	var calls []int

	callback := OnProgressCallback(func(current, total int) error {
		s.Equal(3, total)
		calls = append(calls, current)

		return nil
	})

	_, err := s.engine.Run(optional.Some(callback))
	s.Require().NoError(err)
	s.Equal([]int{1, 2, 3}, calls)
}

func (s *EngineTestSuite) TestProgressCallbackAbortsRun() {
	s.Require().NoError(s.engine.Initialize(`
strategy: buy_and_hold
`))

	s.engine.SetBars(ascendingBars(10))

	callback := OnProgressCallback(func(current, total int) error {
		return fmt.Errorf("aborted at phase %d", current)
	})

	_, err := s.engine.Run(optional.Some(callback))
	s.Require().Error(err)
	s.Contains(err.Error(), "aborted at phase 1")
}

func (s *EngineTestSuite) TestSetDataPathLoadsCSV() {
	path := filepath.Join(s.T().TempDir(), "bars.csv")
	content := "date,open,high,low,close,volume\n"

	for i := 0; i < 30; i++ {
		date := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
		price := 100 + i
		content += fmt.Sprintf("%s,%d,%d,%d,%d,1000\n", date.Format("2006-01-02"), price, price+1, price-1, price)
	}

	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	s.Require().NoError(s.engine.Initialize(`
strategy: buy_and_hold
params:
  initial_capital: 100000
`))
	s.Require().NoError(s.engine.SetDataPath(path))

	run, err := s.engine.Run(optional.None[OnProgressCallback]())
	s.Require().NoError(err)
	s.Len(run.Equity, 30)
	s.Require().Len(run.Trades, 1)
}
