package indicator

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// SMA represents the Simple Moving Average indicator.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() Indicator {
	return &SMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (s *SMA) Name() types.IndicatorType {
	return types.IndicatorTypeSMA
}

// Config configures the SMA indicator. Expected parameters: period (int).
func (s *SMA) Config(params ...any) error {
	period, err := configPeriod(params)
	if err != nil {
		return err
	}

	s.period = period

	return nil
}

// GetSignal compares the close against the moving average.
func (s *SMA) GetSignal(marketData types.MarketData, ctx IndicatorContext) (types.Signal, error) {
	smaValue, err := s.RawValue(marketData.Symbol, marketData.Time, ctx, s.period)
	if err != nil {
		return types.Signal{}, err
	}

	signalType := types.SignalTypeNoAction
	reason := "No signal"

	if marketData.Close > smaValue {
		signalType = types.SignalTypeBuyLong
		reason = fmt.Sprintf("Close above SMA(%d) (value=%.4f)", s.period, smaValue)
	} else if marketData.Close < smaValue {
		signalType = types.SignalTypeSellShort
		reason = fmt.Sprintf("Close below SMA(%d) (value=%.4f)", s.period, smaValue)
	}

	return types.Signal{
		Time:   marketData.Time,
		Type:   signalType,
		Name:   string(s.Name()),
		Reason: reason,
		RawValue: map[string]float64{
			"sma": smaValue,
		},
		Symbol: marketData.Symbol,
	}, nil
}

// RawValue implements the Indicator interface. An optional fourth
// parameter overrides the configured period.
func (s *SMA) RawValue(params ...any) (float64, error) {
	symbol, currentTime, ctx, err := resolveRawValueParams(params)
	if err != nil {
		return 0, err
	}

	period := s.period

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

	window, err := ctx.DataSource.GetPreviousNumberOfDataPoints(currentTime, symbol, period)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to get historical data for symbol %s", symbol)
	}

	if len(window) < period {
		return 0, errors.NewInsufficientDataError(period, len(window), symbol,
			fmt.Sprintf("insufficient historical data for SMA(%d) on %s", period, symbol))
	}

	sum := 0.0
	for _, bar := range window {
		sum += bar.Close
	}

	return sum / float64(period), nil
}
