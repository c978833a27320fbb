package indicator

import (
	"fmt"
	"math"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// GetSignal reports the volatility reading. ATR does not emit directional
// signals on its own.
func (a *ATR) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	atrValue, err := a.RawValue(marketData.Symbol, marketData.Time, ctx, a.period)
	if err != nil {
		return types.Signal{}, err
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   types.SignalTypeNoAction,
		Name:   string(a.Name()),
		Reason: fmt.Sprintf("ATR value: %.4f", atrValue),
		RawValue: map[string]float64{
			"atr": atrValue,
		},
		Symbol: marketData.Symbol,
	}, nil
}

// RawValue implements the Indicator interface. An optional fourth
// parameter overrides the configured period.
func (a *ATR) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := resolveRawValueParams(params)
	if err != nil {
		return 0, err
	}

	period := a.period

	if len(params) > 3 {
		p, ok := params[3].(int)
		if !ok {
			return 0, errors.New(errors.ErrCodeInvalidParameter, "fourth parameter must be of type int (period)")
		}

		period = p
	}

	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	// One extra bar so every true range has a previous close.
	window, err := ctx.DataSource.GetPreviousNumberOfDataPoints(currentTime, symbol, period*2+1)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to get historical data for symbol %s", symbol)
	}

	if len(window) < period+1 {
		return 0, errors.NewInsufficientDataError(period+1, len(window), symbol,
			fmt.Sprintf("insufficient historical data for ATR(%d) on %s", period, symbol))
	}

	trueRanges := make([]float64, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		tr := math.Max(
			window[i].High-window[i].Low,
			math.Max(
				math.Abs(window[i].High-window[i-1].Close),
				math.Abs(window[i].Low-window[i-1].Close),
			),
		)
		trueRanges = append(trueRanges, tr)
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}

	atr /= float64(period)

	// Wilder's smoothing over the remaining true ranges.
	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}

	return atr, nil
}
