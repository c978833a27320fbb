package strategy

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/quantframe-lab/quantframe/internal/indicator"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// stubDataSource serves a fixed slice of bars, newest last.
type stubDataSource struct {
	bars   []types.MarketData
	symbol string
}

func newStubDataSource(symbol string, closes ...float64) *stubDataSource {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.MarketData, 0, len(closes))
	for i, close := range closes {
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		})
	}

	return &stubDataSource{bars: bars, symbol: symbol}
}

func (s *stubDataSource) Initialize(path string, symbol string) error { return nil }

func (s *stubDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool) {
	return func(yield func(types.MarketData, error) bool) {
		for _, bar := range s.bars {
			if !yield(bar, nil) {
				return
			}
		}
	}
}

func (s *stubDataSource) GetRange(start time.Time, end time.Time) ([]types.MarketData, error) {
	var out []types.MarketData

	for _, bar := range s.bars {
		if !bar.Time.Before(start) && !bar.Time.After(end) {
			out = append(out, bar)
		}
	}

	return out, nil
}

func (s *stubDataSource) GetPreviousNumberOfDataPoints(currentTime time.Time, symbol string, count int) ([]types.MarketData, error) {
	var window []types.MarketData

	for _, bar := range s.bars {
		if !bar.Time.After(currentTime) {
			window = append(window, bar)
		}
	}

	if len(window) > count {
		window = window[len(window)-count:]
	}

	return window, nil
}

func (s *stubDataSource) ReadLastData(symbol string) (types.MarketData, error) {
	if len(s.bars) == 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data for symbol %s", symbol)
	}

	return s.bars[len(s.bars)-1], nil
}

func (s *stubDataSource) ReadFirstData(symbol string) (types.MarketData, error) {
	if len(s.bars) == 0 {
		return types.MarketData{}, errors.Newf(errors.ErrCodeDataNotFound, "no data for symbol %s", symbol)
	}

	return s.bars[0], nil
}

func (s *stubDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	return len(s.bars), nil
}

func (s *stubDataSource) Symbol() string { return s.symbol }
func (s *stubDataSource) Close() error   { return nil }

// fakeTradingSystem records orders and tracks a single signed position.
type fakeTradingSystem struct {
	cash     float64
	orders   []types.ExecuteOrder
	position types.Position
	closes   []types.Reason
}

func newFakeTradingSystem(cash float64) *fakeTradingSystem {
	return &fakeTradingSystem{cash: cash}
}

func (f *fakeTradingSystem) PlaceOrder(order types.ExecuteOrder) error {
	f.orders = append(f.orders, order)

	delta := order.Quantity
	if order.Side == types.PurchaseTypeSell {
		delta = -delta
	}

	f.position.Symbol = order.Symbol
	f.position.Quantity += delta

	return nil
}

func (f *fakeTradingSystem) PlaceMultipleOrders(orders []types.ExecuteOrder) error {
	for _, order := range orders {
		if err := f.PlaceOrder(order); err != nil {
			return err
		}
	}

	return nil
}

func (f *fakeTradingSystem) GetPositions() ([]types.Position, error) {
	if f.position.IsOpen() {
		return []types.Position{f.position}, nil
	}

	return nil, nil
}

func (f *fakeTradingSystem) GetPosition(symbol string) (types.Position, error) {
	return f.position, nil
}

func (f *fakeTradingSystem) ClosePosition(symbol string, price float64, reason types.Reason) error {
	f.closes = append(f.closes, reason)
	f.position = types.Position{Symbol: symbol}

	return nil
}

func (f *fakeTradingSystem) GetAccountInfo() (types.AccountInfo, error) {
	return types.AccountInfo{Cash: f.cash, Equity: f.cash}, nil
}

func (f *fakeTradingSystem) GetTrades() ([]types.Trade, error) { return nil, nil }

func (f *fakeTradingSystem) GetMaxBuyQuantity(symbol string, price float64) (float64, error) {
	return f.cash / price, nil
}

func (f *fakeTradingSystem) GetMaxSellQuantity(symbol string, price float64) (float64, error) {
	return f.cash / price, nil
}

type StrategyTestSuite struct {
	suite.Suite
}

func TestStrategySuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) contextFor(source *stubDataSource, broker *fakeTradingSystem) StrategyContext {
	return StrategyContext{
		DataSource:        source,
		IndicatorRegistry: indicator.NewDefaultIndicatorRegistry(),
		TradingSystem:     broker,
	}
}

func (suite *StrategyTestSuite) runAll(s Strategy, source *stubDataSource, broker *fakeTradingSystem) {
	ctx := suite.contextFor(source, broker)

	full := source.bars

	for i := range full {
		// replay bar by bar so strategies only ever see the past
		source.bars = full[:i+1]
		suite.Require().NoError(s.OnBar(ctx, full[i]))
	}

	source.bars = full
}

func (suite *StrategyTestSuite) TestParamsAccessors() {
	p := Params{"n1": 10.4, "threshold": 0.5}
	suite.Equal(10, p.Int("n1", 0))
	suite.Equal(7, p.Int("missing", 7))
	suite.Equal(0.5, p.Float("threshold", 0))
	suite.Equal(1.5, p.Float("missing", 1.5))

	merged := Params{"a": 1}.Merge(Params{"a": 2, "b": 3})
	suite.Equal(2.0, merged["a"])
	suite.Equal(3.0, merged["b"])
}

func (suite *StrategyTestSuite) TestRegistryCreate() {
	registry := NewDefaultRegistry()
	suite.Len(registry.List(), 6)

	s, err := registry.Create(StrategySmaCross, Params{"n1": 5, "n2": 15})
	suite.NoError(err)
	suite.Equal(StrategySmaCross, s.Name())

	_, err = registry.Create("NoSuchStrategy", nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyNotFound))
}

func (suite *StrategyTestSuite) TestRegistryRejectsBadParams() {
	registry := NewDefaultRegistry()

	_, err := registry.Create(StrategySmaCross, Params{"n1": 30, "n2": 10})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeStrategyConfig))

	_, err = registry.Create(StrategyRsiMomentum, Params{"oversold": 80, "overbought": 20})
	suite.Error(err)
}

func (suite *StrategyTestSuite) TestBuyAndHoldEntersOnce() {
	source := newStubDataSource("AAPL", 100, 101, 102, 103)
	broker := newFakeTradingSystem(10000)

	s := NewBuyAndHold()
	suite.Require().NoError(s.Initialize(nil))

	suite.runAll(s, source, broker)

	suite.Require().Len(broker.orders, 1)
	suite.Equal(types.PurchaseTypeBuy, broker.orders[0].Side)
	suite.Equal(types.OrderReasonBenchmark, broker.orders[0].Reason.Reason)
	suite.InDelta(100.0, broker.orders[0].Price, 1e-9)
}

func (suite *StrategyTestSuite) TestSmaCrossGoldenCross() {
	// fast SMA(2) crosses above slow SMA(3) on the final bar
	source := newStubDataSource("AAPL", 10, 9, 8, 7, 6, 20)
	broker := newFakeTradingSystem(10000)

	s := NewSmaCross()
	suite.Require().NoError(s.Initialize(Params{"n1": 2, "n2": 3}))

	suite.runAll(s, source, broker)

	suite.Require().NotEmpty(broker.orders)
	last := broker.orders[len(broker.orders)-1]
	suite.Equal(types.PurchaseTypeBuy, last.Side)
	suite.Contains(last.Reason.Message, "golden cross")
}

func (suite *StrategyTestSuite) TestSmaCrossDeathCrossFlattens() {
	// golden cross on the 20-bar, death cross once the series collapses;
	// the death cross only exits, it never opens a short
	source := newStubDataSource("AAPL", 10, 9, 8, 7, 6, 20, 20, 5)
	broker := newFakeTradingSystem(10000)

	s := NewSmaCross()
	suite.Require().NoError(s.Initialize(Params{"n1": 2, "n2": 3}))

	suite.runAll(s, source, broker)

	suite.Require().Len(broker.orders, 1)
	suite.Equal(types.PurchaseTypeBuy, broker.orders[0].Side)

	suite.Require().NotEmpty(broker.closes)
	suite.Contains(broker.closes[0].Message, "death cross")
	suite.False(broker.position.IsOpen())
}

func (suite *StrategyTestSuite) TestRsiMomentumBuysOversoldCrossing() {
	// rally keeps the RSI high, then the sell-off drags it through the
	// oversold threshold on the final bar
	source := newStubDataSource("AAPL", 20, 21, 22, 23, 22, 21, 20)
	broker := newFakeTradingSystem(10000)

	s := NewRsiMomentum()
	suite.Require().NoError(s.Initialize(Params{"period": 3}))

	suite.runAll(s, source, broker)

	suite.Require().Len(broker.orders, 1)
	suite.Equal(types.PurchaseTypeBuy, broker.orders[0].Side)
	suite.Contains(broker.orders[0].Reason.Message, "crossed below")
}

func (suite *StrategyTestSuite) TestRsiMomentumIgnoresLingeringOversold() {
	// the RSI starts below the threshold and stays there; without a
	// crossing from above no entry may fire
	source := newStubDataSource("AAPL", 20, 19, 18, 17, 16, 15)
	broker := newFakeTradingSystem(10000)

	s := NewRsiMomentum()
	suite.Require().NoError(s.Initialize(Params{"period": 3}))

	suite.runAll(s, source, broker)

	suite.Empty(broker.orders)
}

func (suite *StrategyTestSuite) TestRsiMomentumClosesOverboughtCrossing() {
	// sell-off to trigger the entry, then a strong rally to exit
	source := newStubDataSource("AAPL", 20, 21, 22, 23, 22, 21, 20, 24, 28)
	broker := newFakeTradingSystem(10000)

	s := NewRsiMomentum()
	suite.Require().NoError(s.Initialize(Params{"period": 3}))

	suite.runAll(s, source, broker)

	suite.Require().Len(broker.orders, 1)
	suite.Equal(types.PurchaseTypeBuy, broker.orders[0].Side)
	suite.Require().NotEmpty(broker.closes)
	suite.Contains(broker.closes[0].Message, "crossed above")
	suite.False(broker.position.IsOpen())
}

func (suite *StrategyTestSuite) TestFVGTradesBullishPullback() {
	// gap up leaves a bullish FVG, later bars pull back into it
	source := newStubDataSource("AAPL", 100, 100, 100, 100, 100, 100, 100, 100, 100, 100,
		100, 100, 100, 100, 100, 110, 120, 115, 107)
	broker := newFakeTradingSystem(10000)

	s := NewFVG()
	suite.Require().NoError(s.Initialize(Params{"atr_period": 3}))

	suite.runAll(s, source, broker)

	suite.Require().NotEmpty(broker.orders)
	order := broker.orders[0]
	suite.Equal(types.PurchaseTypeBuy, order.Side)
	suite.True(order.StopLoss.IsSome())
	suite.True(order.TakeProfit.IsSome())
	suite.Less(order.StopLoss.Unwrap(), order.Price)
	suite.Greater(order.TakeProfit.Unwrap(), order.Price)
}

func (suite *StrategyTestSuite) TestIchimokuNeedsWarmup() {
	source := newStubDataSource("AAPL", 100, 101, 102)
	broker := newFakeTradingSystem(10000)

	s := NewIchimoku()
	suite.Require().NoError(s.Initialize(nil))

	suite.runAll(s, source, broker)

	// too little history for the cloud, so no trades
	suite.Empty(broker.orders)
}

func (suite *StrategyTestSuite) TestIchimokuRejectsBadPeriods() {
	s := NewIchimoku()
	err := s.Initialize(Params{"tenkan_period": 30, "kijun_period": 26})
	suite.Error(err)
}

func (suite *StrategyTestSuite) TestPriceLevelBuysRangeBottom() {
	// drift inside a range, then break through the lower quartile
	source := newStubDataSource("AAPL", 100, 101, 100, 101, 100, 101, 95)
	broker := newFakeTradingSystem(10000)

	s := NewPriceLevel()
	suite.Require().NoError(s.Initialize(Params{"lookback_period": 5}))

	suite.runAll(s, source, broker)

	suite.Require().NotEmpty(broker.orders)
	suite.Equal(types.PurchaseTypeBuy, broker.orders[0].Side)
}

func (suite *StrategyTestSuite) TestPriceLevelRejectsShortLookback() {
	s := NewPriceLevel()
	suite.Error(s.Initialize(Params{"lookback_period": 1}))
}
