package config

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/quantframe-lab/quantframe/internal/engine/engine_v1/commission"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

type ConfigTestSuite struct {
	suite.Suite
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

const validConfig = `
backtest_settings:
  data_source: data
  initial_cash: 100000
  commission_pct: 0.002
assets_to_run:
  - AAPL
strategies:
  - name: SmaCross
    params:
      n1: 10
      n2: 20
  - name: RsiMomentum
    optimize: true
    param_ranges:
      period:
        min: 7
        max: 21
        step: 7
`

func (suite *ConfigTestSuite) TestParseValidConfig() {
	cfg, err := Parse([]byte(validConfig))
	suite.NoError(err)
	suite.Equal("data", cfg.BacktestSettings.DataSource)
	suite.Equal(100000.0, cfg.BacktestSettings.InitialCash)
	suite.Equal(0.002, cfg.BacktestSettings.CommissionPct)
	suite.Equal([]string{"AAPL"}, cfg.AssetsToRun)
	suite.Len(cfg.Strategies, 2)
	suite.Equal(10.0, cfg.Strategies[0].Params["n1"])
	suite.True(cfg.Strategies[1].Optimize)
}

func (suite *ConfigTestSuite) TestDefaults() {
	cfg, err := Parse([]byte(validConfig))
	suite.NoError(err)
	suite.Equal("results", cfg.BacktestSettings.ResultsDir)
	suite.Equal(commission.BrokerPercentage, cfg.BacktestSettings.Broker)
	suite.True(cfg.BacktestSettings.StartTime.IsNone())
	suite.True(cfg.BacktestSettings.EndTime.IsNone())
}

func (suite *ConfigTestSuite) TestTimeBounds() {
	cfg, err := Parse([]byte(`
backtest_settings:
  data_source: data
  initial_cash: 10000
  start_time: 2021-08-01T00:00:00Z
  end_time: 2025-04-03T00:00:00Z
strategies:
  - name: BuyAndHold
`))
	suite.NoError(err)
	suite.True(cfg.BacktestSettings.StartTime.IsSome())
	suite.True(cfg.BacktestSettings.EndTime.IsSome())
	suite.Equal(2021, cfg.BacktestSettings.StartTime.Unwrap().Year())
}

func (suite *ConfigTestSuite) TestReversedTimeBoundsRejected() {
	_, err := Parse([]byte(`
backtest_settings:
  data_source: data
  initial_cash: 10000
  start_time: 2025-01-01T00:00:00Z
  end_time: 2021-01-01T00:00:00Z
strategies:
  - name: BuyAndHold
`))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidTimeRange))
}

func (suite *ConfigTestSuite) TestMissingStrategiesRejected() {
	_, err := Parse([]byte(`
backtest_settings:
  data_source: data
  initial_cash: 10000
`))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfig))
}

func (suite *ConfigTestSuite) TestMissingInitialCashRejected() {
	_, err := Parse([]byte(`
backtest_settings:
  data_source: data
strategies:
  - name: BuyAndHold
`))
	suite.Error(err)
}

func (suite *ConfigTestSuite) TestOptimizeWithoutRangesRejected() {
	_, err := Parse([]byte(`
backtest_settings:
  data_source: data
  initial_cash: 10000
strategies:
  - name: SmaCross
    optimize: true
`))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParamRange))
}

func (suite *ConfigTestSuite) TestParamRangeValues() {
	r := ParamRange{Min: 5, Max: 20, Step: 5}
	suite.Equal([]float64{5, 10, 15, 20}, r.Values())

	single := ParamRange{Min: 14, Max: 14, Step: 1}
	suite.Equal([]float64{14}, single.Values())
}

func (suite *ConfigTestSuite) TestGenerateSchemaJSON() {
	cfg, err := Parse([]byte(validConfig))
	suite.NoError(err)

	schema, err := cfg.GenerateSchemaJSON()
	suite.NoError(err)
	suite.Contains(schema, "quantframe-config")
	suite.Contains(schema, "backtest_settings")
}
