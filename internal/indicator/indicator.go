// Package indicator implements the technical indicators strategies build
// their signals from.
package indicator

import (
	"time"

	"github.com/quantframe-lab/quantframe/internal/datasource"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// IndicatorContext carries the dependencies an indicator needs to compute
// its value at a point in time.
type IndicatorContext struct {
	DataSource        datasource.DataSource
	IndicatorRegistry IndicatorRegistry
}

// Indicator interface defines methods that any technical indicator must implement.
type Indicator interface {
	// GetSignal evaluates the indicator on the given bar.
	GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error)
	// Name returns the name of the indicator.
	Name() types.IndicatorType
	// RawValue returns the raw value of the indicator. The leading
	// parameters are symbol (string), currentTime (time.Time), and
	// ctx (IndicatorContext); extra parameters are indicator specific.
	RawValue(params ...any) (float64, error)
	Config(params ...any) error
}

// resolveRawValueParams extracts the common leading RawValue parameters.
func resolveRawValueParams(params []any) (string, time.Time, IndicatorContext, error) {
	if len(params) < 3 {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeMissingParameter,
			"RawValue requires at least 3 parameters: symbol (string), currentTime (time.Time), ctx (IndicatorContext)")
	}

	symbol, ok := params[0].(string)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter,
			"first parameter must be of type string (symbol)")
	}

	currentTime, ok := params[1].(time.Time)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter,
			"second parameter must be of type time.Time")
	}

	ctx, ok := params[2].(IndicatorContext)
	if !ok {
		return "", time.Time{}, IndicatorContext{}, errors.New(errors.ErrCodeInvalidParameter,
			"third parameter must be of type IndicatorContext")
	}

	return symbol, currentTime, ctx, nil
}

// configPeriod parses the single period parameter shared by the window
// based indicators.
func configPeriod(params []any) (int, error) {
	if len(params) != 1 {
		return 0, errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	return period, nil
}
