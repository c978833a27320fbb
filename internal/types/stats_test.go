package types

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) TestWriteReadSummaryStats() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "summary_stats.json")

	stats := SummaryStats{
		RunID:            "run-1",
		GeneratedAt:      time.Date(2025, 4, 3, 12, 0, 0, 0, time.UTC),
		EngineVersion:    "1.0.0",
		Strategy:         "SmaCross",
		Asset:            "AAPL",
		Params:           map[string]float64{"n1": 10, "n2": 20},
		Start:            time.Date(2021, 8, 1, 0, 0, 0, 0, time.UTC),
		End:              time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC),
		Bars:             920,
		InitialCash:      100000,
		FinalEquity:      134000,
		ReturnPct:        34,
		BuyHoldReturnPct: 28.5,
		SharpeRatio:      1.1,
		MaxDrawdownPct:   -12.4,
		NumTrades:        18,
		WinRatePct:       55.6,
	}

	suite.NoError(WriteSummaryStats(path, stats))

	got, err := ReadSummaryStats(path)
	suite.NoError(err)
	suite.Equal(stats.Strategy, got.Strategy)
	suite.Equal(stats.Asset, got.Asset)
	suite.Equal(stats.Params, got.Params)
	suite.Equal(stats.ReturnPct, got.ReturnPct)
	suite.True(stats.GeneratedAt.Equal(got.GeneratedAt))
}

func (suite *StatsTestSuite) TestReadSummaryStatsMissingFile() {
	_, err := ReadSummaryStats(filepath.Join(suite.T().TempDir(), "nope.json"))
	suite.Error(err)
}

func (suite *StatsTestSuite) TestWriteReadEquityCurve() {
	dir := suite.T().TempDir()
	path := filepath.Join(dir, "equity_curve.json")

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := EquityCurve{
		{Time: start, Equity: 100000, DrawdownPct: 0},
		{Time: start.AddDate(0, 0, 1), Equity: 101000, DrawdownPct: 0},
		{Time: start.AddDate(0, 0, 2), Equity: 99000, DrawdownPct: -1.98},
	}

	suite.NoError(WriteEquityCurve(path, curve))

	got, err := ReadEquityCurve(path)
	suite.NoError(err)
	suite.Len(got, 3)
	suite.Equal(curve[2].Equity, got[2].Equity)
	suite.InDelta(curve[2].DrawdownPct, got[2].DrawdownPct, 1e-9)
}

func (suite *StatsTestSuite) TestPositionHelpers() {
	long := Position{Symbol: "AAPL", Quantity: 10}
	short := Position{Symbol: "AAPL", Quantity: -5}
	flat := Position{Symbol: "AAPL"}

	suite.True(long.IsOpen())
	suite.True(long.IsLong())
	suite.False(long.IsShort())

	suite.True(short.IsOpen())
	suite.True(short.IsShort())

	suite.False(flat.IsOpen())
}
