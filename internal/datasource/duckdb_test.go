package datasource

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

type DuckDBDataSourceTestSuite struct {
	suite.Suite
	source DataSource
}

func TestDuckDBDataSourceSuite(t *testing.T) {
	suite.Run(t, new(DuckDBDataSourceTestSuite))
}

func (suite *DuckDBDataSourceTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)

	source, err := NewDataSource(log)
	suite.Require().NoError(err)

	suite.source = source
}

func (suite *DuckDBDataSourceTestSuite) TearDownTest() {
	if suite.source != nil {
		suite.source.Close()
	}
}

func (suite *DuckDBDataSourceTestSuite) writeCSV(name string, content string) string {
	path := filepath.Join(suite.T().TempDir(), name)
	suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))

	return path
}

const capitalizedCSV = `Date,Open,High,Low,Close,Volume
2025-01-03,101,102,100,101.5,1200
2025-01-01,100,101,99,100.5,1000
2025-01-02,100.5,101.5,99.5,101,1100
`

func (suite *DuckDBDataSourceTestSuite) TestInitializeNormalizesAndSorts() {
	path := suite.writeCSV("AAPL.csv", capitalizedCSV)
	suite.Require().NoError(suite.source.Initialize(path, "AAPL"))

	suite.Equal("AAPL", suite.source.Symbol())

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(3, count)

	var bars []types.MarketData
	for bar, err := range suite.source.ReadAll(optional.None[time.Time](), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
	}

	suite.Require().Len(bars, 3)
	// rows come back time-ordered even though the file was shuffled
	suite.True(bars[0].Time.Before(bars[1].Time))
	suite.True(bars[1].Time.Before(bars[2].Time))
	suite.Equal(100.0, bars[0].Open)
	suite.Equal("AAPL", bars[0].Symbol)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeLowercaseHeaders() {
	path := suite.writeCSV("btc.csv", `time,open,high,low,close,volume
2025-01-01T00:00:00Z,42000,42500,41800,42100,10.5
`)
	suite.Require().NoError(suite.source.Initialize(path, "BTCUSD"))

	last, err := suite.source.ReadLastData("BTCUSD")
	suite.NoError(err)
	suite.Equal(42100.0, last.Close)
}

func (suite *DuckDBDataSourceTestSuite) TestInitializeMissingColumn() {
	path := suite.writeCSV("bad.csv", `Date,Open,High,Low,Close
2025-01-01,1,2,0.5,1.5
`)
	err := suite.source.Initialize(path, "BAD")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingColumn))
	suite.Contains(err.Error(), "volume")
}

func (suite *DuckDBDataSourceTestSuite) TestIncompleteRowsDropped() {
	path := suite.writeCSV("gaps.csv", `Date,Open,High,Low,Close,Volume
2025-01-01,100,101,99,100.5,1000
2025-01-02,,101.5,99.5,101,1100
2025-01-03,101,102,100,101.5,1200
`)
	suite.Require().NoError(suite.source.Initialize(path, "GAPS"))

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(2, count)
}

func (suite *DuckDBDataSourceTestSuite) TestTimeBounds() {
	path := suite.writeCSV("AAPL.csv", capitalizedCSV)
	suite.Require().NoError(suite.source.Initialize(path, "AAPL"))

	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	count, err := suite.source.Count(optional.Some(start), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(2, count)

	var bars []types.MarketData
	for bar, err := range suite.source.ReadAll(optional.Some(start), optional.None[time.Time]()) {
		suite.Require().NoError(err)

		bars = append(bars, bar)
	}
	suite.Len(bars, 2)
}

func (suite *DuckDBDataSourceTestSuite) TestGetPreviousNumberOfDataPoints() {
	path := suite.writeCSV("AAPL.csv", capitalizedCSV)
	suite.Require().NoError(suite.source.Initialize(path, "AAPL"))

	at := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)

	window, err := suite.source.GetPreviousNumberOfDataPoints(at, "AAPL", 2)
	suite.NoError(err)
	suite.Require().Len(window, 2)
	// oldest-first within the window
	suite.True(window[0].Time.Before(window[1].Time))
	suite.Equal(101.5, window[1].Close)

	// asking for more bars than exist returns what is available
	window, err = suite.source.GetPreviousNumberOfDataPoints(at, "AAPL", 10)
	suite.NoError(err)
	suite.Len(window, 3)

	_, err = suite.source.GetPreviousNumberOfDataPoints(at, "AAPL", 0)
	suite.Error(err)
}

func (suite *DuckDBDataSourceTestSuite) TestReadFirstAndLast() {
	path := suite.writeCSV("AAPL.csv", capitalizedCSV)
	suite.Require().NoError(suite.source.Initialize(path, "AAPL"))

	first, err := suite.source.ReadFirstData("AAPL")
	suite.NoError(err)
	suite.Equal(100.5, first.Close)

	last, err := suite.source.ReadLastData("AAPL")
	suite.NoError(err)
	suite.Equal(101.5, last.Close)
}

func (suite *DuckDBDataSourceTestSuite) TestReinitializeReplacesSeries() {
	first := suite.writeCSV("AAPL.csv", capitalizedCSV)
	suite.Require().NoError(suite.source.Initialize(first, "AAPL"))

	second := suite.writeCSV("MSFT.csv", `Date,Open,High,Low,Close,Volume
2025-02-01,400,404,399,402,5000
`)
	suite.Require().NoError(suite.source.Initialize(second, "MSFT"))

	suite.Equal("MSFT", suite.source.Symbol())

	count, err := suite.source.Count(optional.None[time.Time](), optional.None[time.Time]())
	suite.NoError(err)
	suite.Equal(1, count)
}
