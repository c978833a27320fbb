package strategy

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// RsiMomentum goes long when the RSI crosses below the oversold threshold
// and exits when it crosses above the overbought threshold. Entries and
// exits fire on the crossing bar only, not while the RSI lingers beyond a
// threshold.
type RsiMomentum struct {
	period     int
	oversold   float64
	overbought float64

	prevRSI float64
	hasPrev bool
}

// NewRsiMomentum creates the strategy with its default thresholds.
func NewRsiMomentum() *RsiMomentum {
	return &RsiMomentum{period: 14, oversold: 30, overbought: 70}
}

// Name returns the name of the strategy.
func (s *RsiMomentum) Name() string {
	return StrategyRsiMomentum
}

// DefaultParams returns the strategy's default parameters.
func (s *RsiMomentum) DefaultParams() Params {
	return Params{"period": 14, "oversold": 30, "overbought": 70}
}

// Initialize applies the given parameters.
func (s *RsiMomentum) Initialize(params Params) error {
	merged := s.DefaultParams().Merge(params)

	s.period = merged.Int("period", 14)
	s.oversold = merged.Float("oversold", 30)
	s.overbought = merged.Float("overbought", 70)

	if s.period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be positive, got %d", s.period)
	}

	if s.oversold >= s.overbought {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"oversold threshold %.2f must be below overbought threshold %.2f", s.oversold, s.overbought)
	}

	return nil
}

// OnBar evaluates the RSI threshold crossings.
func (s *RsiMomentum) OnBar(ctx StrategyContext, data types.MarketData) error {
	rsi, err := ctx.IndicatorRegistry.GetIndicator(types.IndicatorTypeRSI)
	if err != nil {
		return err
	}

	value, err := rsi.RawValue(data.Symbol, data.Time, ctx.IndicatorContext(), s.period)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	crossedBelow := s.hasPrev && s.prevRSI >= s.oversold && value < s.oversold
	crossedAbove := s.hasPrev && s.prevRSI <= s.overbought && value > s.overbought

	s.prevRSI = value
	s.hasPrev = true

	position, err := ctx.TradingSystem.GetPosition(data.Symbol)
	if err != nil {
		return err
	}

	switch {
	case crossedBelow && !position.IsOpen():
		return enterLong(ctx, data, s.Name(), types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: fmt.Sprintf("RSI(%d)=%.2f crossed below oversold threshold %.2f", s.period, value, s.oversold),
		})
	case crossedAbove && position.IsLong():
		return closeIfOpen(ctx, data,
			fmt.Sprintf("RSI(%d)=%.2f crossed above overbought threshold %.2f", s.period, value, s.overbought))
	}

	return nil
}
