package engine

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/types"
)

type BacktestStateTestSuite struct {
	suite.Suite
	state *BacktestState
}

func TestBacktestStateSuite(t *testing.T) {
	suite.Run(t, new(BacktestStateTestSuite))
}

func (suite *BacktestStateTestSuite) SetupTest() {
	log, err := logger.NewLogger()
	suite.Require().NoError(err)

	state, err := NewBacktestState(log)
	suite.Require().NoError(err)
	suite.Require().NoError(state.Initialize())

	suite.state = state
}

func (suite *BacktestStateTestSuite) TearDownTest() {
	suite.NoError(suite.state.Close())
}

func (suite *BacktestStateTestSuite) sampleOrder(id string, side types.PurchaseType, at time.Time) types.Order {
	return types.Order{
		OrderID:      id,
		Symbol:       "AAPL",
		Side:         side,
		Quantity:     10,
		Price:        100,
		Timestamp:    at,
		Reason:       types.Reason{Reason: types.OrderReasonStrategy},
		StrategyName: "SmaCross",
		Fee:          1.5,
	}
}

func (suite *BacktestStateTestSuite) TestRecordExecution() {
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	trade, err := suite.state.RecordExecution(suite.sampleOrder("order-1", types.PurchaseTypeBuy, at), 0, false)
	suite.Require().NoError(err)

	suite.Equal("order-1", trade.Order.OrderID)
	suite.Equal(10.0, trade.ExecutedQty)
	suite.Equal(100.0, trade.ExecutedPrice)
	suite.Equal(1.5, trade.Fee)
	suite.Equal(0.0, trade.PnL)
	suite.False(trade.IsClosing)

	count, err := suite.state.CountTrades()
	suite.NoError(err)
	suite.Equal(1, count)
}

func (suite *BacktestStateTestSuite) TestRecordExecutionGeneratesOrderID() {
	at := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	order := suite.sampleOrder("", types.PurchaseTypeBuy, at)

	trade, err := suite.state.RecordExecution(order, 0, false)
	suite.Require().NoError(err)
	suite.NotEmpty(trade.Order.OrderID)
}

func (suite *BacktestStateTestSuite) TestGetAllTradesOrdering() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	// inserted newest first, must come back in execution order
	_, err := suite.state.RecordExecution(suite.sampleOrder("order-2", types.PurchaseTypeSell, base.AddDate(0, 0, 1)), 42.5, true)
	suite.Require().NoError(err)

	_, err = suite.state.RecordExecution(suite.sampleOrder("order-1", types.PurchaseTypeBuy, base), 0, false)
	suite.Require().NoError(err)

	trades, err := suite.state.GetAllTrades()
	suite.Require().NoError(err)
	suite.Require().Len(trades, 2)

	suite.Equal("order-1", trades[0].Order.OrderID)
	suite.Equal("order-2", trades[1].Order.OrderID)
	suite.Equal(42.5, trades[1].PnL)
	suite.Equal(types.PurchaseTypeSell, trades[1].Order.Side)
	suite.False(trades[0].IsClosing)
	suite.True(trades[1].IsClosing)
}

func (suite *BacktestStateTestSuite) TestTotalFees() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	fees, err := suite.state.TotalFees()
	suite.NoError(err)
	suite.Equal(0.0, fees)

	_, err = suite.state.RecordExecution(suite.sampleOrder("order-1", types.PurchaseTypeBuy, base), 0, false)
	suite.Require().NoError(err)

	_, err = suite.state.RecordExecution(suite.sampleOrder("order-2", types.PurchaseTypeSell, base.AddDate(0, 0, 1)), 10, true)
	suite.Require().NoError(err)

	fees, err = suite.state.TotalFees()
	suite.NoError(err)
	suite.InDelta(3.0, fees, 1e-9)
}

func (suite *BacktestStateTestSuite) TestReset() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := suite.state.RecordExecution(suite.sampleOrder("order-1", types.PurchaseTypeBuy, base), 0, false)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.state.Reset())

	count, err := suite.state.CountTrades()
	suite.NoError(err)
	suite.Equal(0, count)
}

func (suite *BacktestStateTestSuite) TestExportParquet() {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := suite.state.RecordExecution(suite.sampleOrder("order-1", types.PurchaseTypeBuy, base), 0, false)
	suite.Require().NoError(err)

	folder := suite.T().TempDir()
	suite.Require().NoError(suite.state.ExportParquet(folder))

	for _, name := range []string{"orders.parquet", "trades.parquet"} {
		info, err := os.Stat(filepath.Join(folder, name))
		suite.NoError(err, name)

		if err == nil {
			suite.Greater(info.Size(), int64(0), name)
		}
	}
}
