package indicator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

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

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) context(source *stubDataSource) IndicatorContext {
	return IndicatorContext{
		DataSource:        source,
		IndicatorRegistry: NewDefaultIndicatorRegistry(),
	}
}

func (suite *IndicatorTestSuite) lastBarTime(source *stubDataSource) time.Time {
	last, err := source.ReadLastData(source.symbol)
	suite.Require().NoError(err)

	return last.Time
}

func (suite *IndicatorTestSuite) TestSMAValue() {
	source := newStubDataSource("AAPL", 1, 2, 3, 4, 5)
	ctx := suite.context(source)

	sma := NewSMA()
	value, err := sma.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	suite.InDelta(4.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAInsufficientData() {
	source := newStubDataSource("AAPL", 1, 2)
	ctx := suite.context(source)

	sma := NewSMA()
	_, err := sma.RawValue("AAPL", suite.lastBarTime(source), ctx, 5)
	suite.Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestEMAConstantSeries() {
	source := newStubDataSource("AAPL", 50, 50, 50, 50, 50, 50)
	ctx := suite.context(source)

	ema := NewEMA()
	value, err := ema.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	suite.InDelta(50.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestEMALeansTowardRecentPrices() {
	source := newStubDataSource("AAPL", 10, 10, 10, 10, 20, 30)
	ctx := suite.context(source)

	ema := NewEMA()
	emaValue, err := ema.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)

	sma := NewSMA()
	smaValue, err := sma.RawValue("AAPL", suite.lastBarTime(source), ctx, 6)
	suite.NoError(err)

	suite.Greater(emaValue, smaValue)
}

func (suite *IndicatorTestSuite) TestRSIPerfectUptrend() {
	source := newStubDataSource("AAPL", 1, 2, 3, 4, 5, 6, 7, 8)
	ctx := suite.context(source)

	rsi := NewRSI()
	value, err := rsi.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	suite.Equal(100.0, value)
}

func (suite *IndicatorTestSuite) TestRSIMixedSeries() {
	source := newStubDataSource("AAPL", 10, 11, 10.5, 11.5, 12)
	ctx := suite.context(source)

	rsi := NewRSI()
	value, err := rsi.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	// Wilder smoothing over changes +1, -0.5, +1, +0.5
	suite.InDelta(84.615, value, 0.01)
}

func (suite *IndicatorTestSuite) TestRSIBounds() {
	source := newStubDataSource("AAPL", 10, 9, 11, 8, 12, 7, 13, 6)
	ctx := suite.context(source)

	rsi := NewRSI()
	value, err := rsi.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	suite.GreaterOrEqual(value, 0.0)
	suite.LessOrEqual(value, 100.0)
}

func (suite *IndicatorTestSuite) TestATRConstantRange() {
	// every bar spans High-Low = 2 with no gaps between closes
	source := newStubDataSource("AAPL", 100, 100, 100, 100, 100, 100)
	ctx := suite.context(source)

	atr := NewATR()
	value, err := atr.RawValue("AAPL", suite.lastBarTime(source), ctx, 3)
	suite.NoError(err)
	suite.InDelta(2.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestATRInsufficientData() {
	source := newStubDataSource("AAPL", 100, 101)
	ctx := suite.context(source)

	atr := NewATR()
	_, err := atr.RawValue("AAPL", suite.lastBarTime(source), ctx, 5)
	suite.Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestRSIGetSignalOversold() {
	source := newStubDataSource("AAPL", 20, 19, 18, 17, 16, 15, 14, 13)
	ctx := suite.context(source)

	rsi := NewRSI()
	suite.Require().NoError(rsi.Config(3))

	last, err := source.ReadLastData("AAPL")
	suite.Require().NoError(err)

	signal, err := rsi.GetSignal(last, ctx)
	suite.NoError(err)
	suite.Equal(types.SignalTypeBuyLong, signal.Type)
	suite.Less(signal.RawValue["rsi"], 30.0)
}

func (suite *IndicatorTestSuite) TestConfigErrors() {
	suite.Error(NewSMA().Config())
	suite.Error(NewSMA().Config("ten"))
	suite.Error(NewSMA().Config(-1))
	suite.Error(NewRSI().Config(14, 80.0, 20.0))
	suite.Error(NewATR().Config(0))
}
