package provider

import (
	"testing"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/stretchr/testify/suite"

	"github.com/quantframe-lab/quantframe/pkg/errors"
)

type ProviderTestSuite struct {
	suite.Suite
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) TestFactoryCreatesBinance() {
	provider, err := NewMarketDataProvider(ProviderBinance, nil)
	suite.Require().NoError(err)
	suite.IsType(&BinanceClient{}, provider)
}

func (suite *ProviderTestSuite) TestFactoryCreatesPolygon() {
	provider, err := NewMarketDataProvider(ProviderPolygon, "test-key")
	suite.Require().NoError(err)
	suite.IsType(&PolygonClient{}, provider)
}

func (suite *ProviderTestSuite) TestFactoryRejectsPolygonWithoutKey() {
	_, err := NewMarketDataProvider(ProviderPolygon, nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))

	_, err = NewMarketDataProvider(ProviderPolygon, "")
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestFactoryRejectsUnknownProvider() {
	_, err := NewMarketDataProvider(ProviderType("yahoo"), nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidProvider))
}

func (suite *ProviderTestSuite) TestParseTimespan() {
	cases := map[string]models.Timespan{
		"minute": models.Minute,
		"hour":   models.Hour,
		"day":    models.Day,
		"week":   models.Week,
		"month":  models.Month,
	}

	for name, want := range cases {
		got, err := ParseTimespan(name)
		suite.NoError(err, name)
		suite.Equal(want, got, name)
	}

	_, err := ParseTimespan("fortnight")
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}

func (suite *ProviderTestSuite) TestBinanceIntervalConversion() {
	interval, err := binanceInterval(models.Minute, 5)
	suite.NoError(err)
	suite.Equal("5m", interval)

	interval, err = binanceInterval(models.Hour, 1)
	suite.NoError(err)
	suite.Equal("1h", interval)

	interval, err = binanceInterval(models.Day, 1)
	suite.NoError(err)
	suite.Equal("1d", interval)

	interval, err = binanceInterval(models.Week, 1)
	suite.NoError(err)
	suite.Equal("1w", interval)

	_, err = binanceInterval(models.Week, 2)
	suite.Error(err)

	_, err = binanceInterval(models.Timespan("quarter"), 1)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidInterval))
}
