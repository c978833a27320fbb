package indicator

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// EMA represents the Exponential Moving Average indicator.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// GetSignal compares the close against the moving average.
func (e *EMA) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	emaValue, err := e.RawValue(marketData.Symbol, marketData.Time, ctx, e.period)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No signal"

	if marketData.Close > emaValue {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Close above EMA(%d) (value=%.4f)", e.period, emaValue)
	} else if marketData.Close < emaValue {
		signalType = types.SignalTypeSellShort
		reason = fmt.Sprintf("Close below EMA(%d) (value=%.4f)", e.period, emaValue)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(e.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"ema": emaValue,
		},
		Symbol: marketData.Symbol,
	}, nil
}

// RawValue implements the Indicator interface. An optional fourth
// parameter overrides the configured period. The EMA seeds from the SMA
// of the first period closes and smooths over twice the period of
// history when available.
func (e *EMA) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := resolveRawValueParams(params)
	if err != nil {
		return 0, err
	}

	period := e.period

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

	window, err := ctx.DataSource.GetPreviousNumberOfDataPoints(currentTime, symbol, period*2)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to get historical data for symbol %s", symbol)
	}

	if len(window) < period {
		return 0, errors.NewInsufficientDataError(period, len(window), symbol,
			fmt.Sprintf("insufficient historical data for EMA(%d) on %s", period, symbol))
	}

	// Seed with the SMA of the first period closes.
	seed := 0.0
	for i := 0; i < period; i++ {
		seed += window[i].Close
	}

	ema := seed / float64(period)
	multiplier := 2.0 / (float64(period) + 1.0)

	for i := period; i < len(window); i++ {
		ema = (window[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}
