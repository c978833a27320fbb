// Package config defines the backtest run configuration loaded from YAML.
package config

import (
	"encoding/json"
	"os"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/quantframe-lab/quantframe/internal/engine/engine_v1/commission"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Config is the root run configuration.
type Config struct {
	BacktestSettings BacktestSettings `yaml:"backtest_settings" json:"backtest_settings" validate:"required"`
	// AssetsToRun limits the run to the named assets. Empty means every CSV
	// found in the data source directory.
	AssetsToRun []string `yaml:"assets_to_run" json:"assets_to_run"`
	Strategies  []StrategyConfig `yaml:"strategies" json:"strategies" validate:"required,min=1,dive"`
}

// BacktestSettings holds the engine-level settings shared by all pairs.
type BacktestSettings struct {
	// DataSource is the directory containing one OHLCV CSV file per asset.
	DataSource string `yaml:"data_source" json:"data_source" jsonschema:"title=Data Source,description=Directory containing one OHLCV CSV per asset" validate:"required"`
	// ResultsDir is where per-pair artifacts are written. Defaults to "results".
	ResultsDir string `yaml:"results_dir" json:"results_dir" jsonschema:"title=Results Directory"`
	// InitialCash is the starting capital in USD.
	InitialCash float64 `yaml:"initial_cash" json:"initial_cash" jsonschema:"title=Initial Cash,minimum=0" validate:"required,gt=0"`
	// CommissionPct is the per-fill commission as a fraction of notional,
	// e.g. 0.002 for 0.2%.
	CommissionPct float64 `yaml:"commission_pct" json:"commission_pct" jsonschema:"title=Commission Percentage,minimum=0,maximum=1" validate:"gte=0,lt=1"`
	// Broker selects the commission model.
	Broker commission.Broker `yaml:"broker" json:"broker" jsonschema:"title=Broker,description=Commission model to apply"`
	// StartTime and EndTime optionally bound the simulated period.
	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time"`
	EndTime   optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time"`
}

// StrategyConfig names a strategy to run with its parameters.
type StrategyConfig struct {
	Name   string             `yaml:"name" json:"name" jsonschema:"title=Strategy Name" validate:"required"`
	Params map[string]float64 `yaml:"params" json:"params" jsonschema:"title=Parameters"`
	// Optimize enables a grid search over ParamRanges before the final run.
	Optimize    bool                  `yaml:"optimize" json:"optimize"`
	ParamRanges map[string]ParamRange `yaml:"param_ranges" json:"param_ranges" validate:"omitempty,dive"`
}

// ParamRange is an inclusive grid of values for one optimizable parameter.
type ParamRange struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max" validate:"gtefield=Min"`
	Step float64 `yaml:"step" json:"step" validate:"gt=0"`
}

// Values expands the range into its grid points.
func (r ParamRange) Values() []float64 {
	var values []float64
	for v := r.Min; v <= r.Max+1e-9; v += r.Step {
		values = append(values, v)
	}

	return values
}

// UnmarshalYAML implements custom unmarshaling for BacktestSettings so the
// optional time bounds can be expressed as plain YAML timestamps.
func (s *BacktestSettings) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type settings struct {
		DataSource    string            `yaml:"data_source"`
		ResultsDir    string            `yaml:"results_dir"`
		InitialCash   float64           `yaml:"initial_cash"`
		CommissionPct float64           `yaml:"commission_pct"`
		Broker        commission.Broker `yaml:"broker"`
		StartTime     *time.Time        `yaml:"start_time"`
		EndTime       *time.Time        `yaml:"end_time"`
	}

	var raw settings
	if err := unmarshal(&raw); err != nil {
		return err
	}

	s.DataSource = raw.DataSource
	s.ResultsDir = raw.ResultsDir
	s.InitialCash = raw.InitialCash
	s.CommissionPct = raw.CommissionPct
	s.Broker = raw.Broker

	if raw.StartTime != nil {
		s.StartTime = optional.Some(*raw.StartTime)
	}

	if raw.EndTime != nil {
		s.EndTime = optional.Some(*raw.EndTime)
	}

	return nil
}

// Parse parses and validates a YAML configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, "failed to parse config", err)
	}

	if cfg.BacktestSettings.ResultsDir == "" {
		cfg.BacktestSettings.ResultsDir = "results"
	}

	if cfg.BacktestSettings.Broker == "" {
		cfg.BacktestSettings.Broker = commission.BrokerPercentage
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads and parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfig, err, "failed to read config %s", path)
	}

	return Parse(data)
}

// Validate checks structural constraints and the time range ordering.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, "invalid config", err)
	}

	s := c.BacktestSettings
	if s.StartTime.IsSome() && s.EndTime.IsSome() && s.EndTime.Unwrap().Before(s.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeInvalidTimeRange, "end_time is before start_time")
	}

	for _, sc := range c.Strategies {
		if sc.Optimize && len(sc.ParamRanges) == 0 {
			return errors.Newf(errors.ErrCodeInvalidParamRange,
				"strategy %s has optimize enabled but no param_ranges", sc.Name)
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the run configuration.
func (c *Config) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if t.String() == "commission.Broker" {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "quantframe-config"
	schema.Description = "Configuration schema for quantframe backtest runs"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates a JSON schema string for the run configuration.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
