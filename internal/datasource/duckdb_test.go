package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/pkg/errors"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	source DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (s *DuckDBDataSourceTestSuite) SetupTest() {
	source, err := NewDuckDBDataSource("", logger.NewNopLogger())
	s.Require().NoError(err)
	s.source = source
}

func (s *DuckDBDataSourceTestSuite) TearDownTest() {
	s.Require().NoError(s.source.Close())
}

func (s *DuckDBDataSourceTestSuite) writeCSV(content string) string {
	path := filepath.Join(s.T().TempDir(), "bars.csv")
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (s *DuckDBDataSourceTestSuite) TestLoadWithAmountColumn() {
	path := s.writeCSV(`date,open,high,low,close,volume,amount
2024-01-02,100,105,99,104,1000,104000
2024-01-03,104,108,103,107,1200,128400
2024-01-04,107,109,105,106,900,95400
`)

	s.Require().NoError(s.source.Initialize(path))

	bars, err := s.source.Bars(optional.None[time.Time](), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Require().Len(bars, 3)

	s.Equal(2024, bars[0].Date.Year())
	s.InDelta(104.0, bars[0].Close, 1e-9)
	s.InDelta(104000.0, bars[0].Amount, 1e-9)
	s.True(bars[0].Date.Before(bars[1].Date))
	s.True(bars[1].Date.Before(bars[2].Date))
}

func (s *DuckDBDataSourceTestSuite) TestLoadWithoutAmountColumn() {
	path := s.writeCSV(`date,open,high,low,close,volume
2024-01-02,100,105,99,104,1000
2024-01-03,104,108,103,107,1200
`)

	s.Require().NoError(s.source.Initialize(path))

	bars, err := s.source.Bars(optional.None[time.Time](), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Require().Len(bars, 2)
	s.Zero(bars[0].Amount)
	s.Zero(bars[1].Amount)
}

func (s *DuckDBDataSourceTestSuite) TestDateRangeFilter() {
	path := s.writeCSV(`date,open,high,low,close,volume
2024-01-02,100,105,99,104,1000
2024-01-03,104,108,103,107,1200
2024-01-04,107,109,105,106,900
2024-01-05,106,110,104,109,1100
`)

	s.Require().NoError(s.source.Initialize(path))

	start := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)

	bars, err := s.source.Bars(optional.Some(start), optional.Some(end))
	s.Require().NoError(err)
	s.Require().Len(bars, 2)
	s.InDelta(107.0, bars[0].Close, 1e-9)
	s.InDelta(106.0, bars[1].Close, 1e-9)

	count, err := s.source.Count(optional.Some(start), optional.None[time.Time]())
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *DuckDBDataSourceTestSuite) TestEmptyRangeReturnsNotFound() {
	path := s.writeCSV(`date,open,high,low,close,volume
2024-01-02,100,105,99,104,1000
`)

	s.Require().NoError(s.source.Initialize(path))

	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.source.Bars(optional.Some(start), optional.None[time.Time]())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (s *DuckDBDataSourceTestSuite) TestMissingFileFails() {
	err := s.source.Initialize(filepath.Join(s.T().TempDir(), "missing.csv"))
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeDataParseFailed))
}
