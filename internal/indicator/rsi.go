package indicator

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period         int
	lowerThreshold float64
	upperThreshold float64
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period:         14, // Default period
		lowerThreshold: 30,
		upperThreshold: 70,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int),
// optionally followed by lower and upper thresholds (float64).
func (r *RSI) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects at least 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidParameter, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	r.period = period

	if len(params) >= 2 {
		threshold, ok := params[1].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidParameter, "invalid type for lower threshold parameter, expected float64")
		}

		r.lowerThreshold = threshold
	}

	if len(params) >= 3 {
		threshold, ok := params[2].(float64)
		if !ok {
			return errors.New(errors.ErrCodeInvalidParameter, "invalid type for upper threshold parameter, expected float64")
		}

		r.upperThreshold = threshold
	}

	if r.lowerThreshold >= r.upperThreshold {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"lower threshold %.2f must be below upper threshold %.2f", r.lowerThreshold, r.upperThreshold)
	}

	return nil
}

// GetSignal calculates the RSI signal.
func (r *RSI) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	rsiValue, err := r.RawValue(marketData.Symbol, marketData.Time, ctx, r.period)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No signal"

	if rsiValue < r.lowerThreshold {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("RSI oversold (value=%.2f)", rsiValue)
	} else if rsiValue > r.upperThreshold {
		signalType = types.SignalTypeSellShort
		reason = fmt.Sprintf("RSI overbought (value=%.2f)", rsiValue)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(r.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"rsi": rsiValue,
		},
		Symbol: marketData.Symbol,
	}, nil
}

// RawValue implements the Indicator interface. An optional fourth
// parameter overrides the configured period.
func (r *RSI) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := resolveRawValueParams(params)
	if err != nil {
		return 0, err
	}

	period := r.period

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

	// One extra bar so the first change has a predecessor.
	window, err := ctx.DataSource.GetPreviousNumberOfDataPoints(currentTime, symbol, period*2+1)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to get historical data for symbol %s", symbol)
	}

	if len(window) < period+1 {
		return 0, errors.NewInsufficientDataError(period+1, len(window), symbol,
			fmt.Sprintf("insufficient historical data for RSI(%d) on %s", period, symbol))
	}

	gains := make([]float64, 0, len(window)-1)
	losses := make([]float64, 0, len(window)-1)

	for i := 1; i < len(window); i++ {
		change := window[i].Close - window[i-1].Close
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0

	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)

	// Wilder's smoothing over the remaining changes.
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		return 100, nil // Perfect uptrend
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs)), nil
}
