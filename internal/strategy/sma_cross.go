package strategy

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// SmaCross is the classic dual moving average crossover. A golden cross
// (fast SMA crossing above the slow SMA) enters long, a death cross
// flattens the position.
type SmaCross struct {
	n1 int
	n2 int
}

// NewSmaCross creates the strategy with its default windows.
func NewSmaCross() *SmaCross {
	return &SmaCross{n1: 10, n2: 20}
}

// Name returns the name of the strategy.
func (s *SmaCross) Name() string {
	return StrategySmaCross
}

// DefaultParams returns the strategy's default parameters.
func (s *SmaCross) DefaultParams() Params {
	return Params{"n1": 10, "n2": 20}
}

// Initialize applies the given parameters.
func (s *SmaCross) Initialize(params Params) error {
	merged := s.DefaultParams().Merge(params)

	s.n1 = merged.Int("n1", 10)
	s.n2 = merged.Int("n2", 20)

	if s.n1 <= 0 || s.n2 <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "windows must be positive, got n1=%d n2=%d", s.n1, s.n2)
	}

	if s.n1 >= s.n2 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "fast window n1=%d must be shorter than slow window n2=%d", s.n1, s.n2)
	}

	return nil
}

// OnBar evaluates the crossover on the current and previous bar.
func (s *SmaCross) OnBar(ctx StrategyContext, data types.MarketData) error {
	sma, err := ctx.IndicatorRegistry.GetIndicator(types.IndicatorTypeSMA)
	if err != nil {
		return err
	}

	indicatorCtx := ctx.IndicatorContext()

	// One extra bar so the crossover can be evaluated against the
	// previous bar's averages.
	window, err := ctx.DataSource.GetPreviousNumberOfDataPoints(data.Time, data.Symbol, 2)
	if err != nil {
		return err
	}

	if len(window) < 2 {
		return nil
	}

	prevTime := window[0].Time

	fast, err := sma.RawValue(data.Symbol, data.Time, indicatorCtx, s.n1)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	slow, err := sma.RawValue(data.Symbol, data.Time, indicatorCtx, s.n2)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	prevFast, err := sma.RawValue(data.Symbol, prevTime, indicatorCtx, s.n1)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	prevSlow, err := sma.RawValue(data.Symbol, prevTime, indicatorCtx, s.n2)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	goldenCross := fast > slow && prevFast <= prevSlow
	deathCross := fast < slow && prevFast >= prevSlow

	switch {
	case goldenCross:
		message := fmt.Sprintf("golden cross: SMA(%d)=%.4f above SMA(%d)=%.4f", s.n1, fast, s.n2, slow)

		if err := closeIfOpen(ctx, data, message); err != nil {
			return err
		}

		return enterLong(ctx, data, s.Name(), types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: message,
		})
	case deathCross:
		message := fmt.Sprintf("death cross: SMA(%d)=%.4f below SMA(%d)=%.4f", s.n1, fast, s.n2, slow)

		return closeIfOpen(ctx, data, message)
	}

	return nil
}
