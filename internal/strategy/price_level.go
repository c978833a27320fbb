package strategy

import (
	"fmt"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// PriceLevel is a mean-reversion strategy around the recent trading range.
// It derives five levels (0/25/50/75/100%) from the rolling min and max of
// the close over a lookback window, buys when price drops through the
// lower levels, shorts when it drops through the upper ones, and closes
// positions when price crosses back.
type PriceLevel struct {
	lookback int

	wentLong  bool
	wentShort bool
}

// NewPriceLevel creates the strategy with its default lookback.
func NewPriceLevel() *PriceLevel {
	return &PriceLevel{lookback: 7}
}

// Name returns the name of the strategy.
func (s *PriceLevel) Name() string {
	return StrategyPriceLevel
}

// DefaultParams returns the strategy's default parameters.
func (s *PriceLevel) DefaultParams() Params {
	return Params{"lookback_period": 7}
}

// Initialize applies the given parameters.
func (s *PriceLevel) Initialize(params Params) error {
	merged := s.DefaultParams().Merge(params)

	s.lookback = merged.Int("lookback_period", 7)
	if s.lookback <= 1 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "lookback_period must be greater than 1, got %d", s.lookback)
	}

	s.wentLong = false
	s.wentShort = false

	return nil
}

// rangeLevels holds the five price levels for one bar.
type rangeLevels struct {
	l0, l25, l75, l100 float64
}

// OnBar evaluates level crossings between the previous and current bar.
func (s *PriceLevel) OnBar(ctx StrategyContext, data types.MarketData) error {
	// One extra bar so levels exist for the previous bar too.
	bars, err := ctx.DataSource.GetPreviousNumberOfDataPoints(data.Time, data.Symbol, s.lookback+1)
	if err != nil {
		return err
	}

	if len(bars) < 2 {
		return nil
	}

	last := len(bars) - 1
	close := bars[last].Close
	prevClose := bars[last-1].Close

	levels := levelsAt(bars, last, s.lookback)
	prevLevels := levelsAt(bars, last-1, s.lookback)

	// crossedBelow: price fell through the level between the two bars.
	crossedBelow := func(level, prevLevel float64) bool {
		return prevClose >= prevLevel && close < level
	}
	// crossedAbove: price rose through the level between the two bars.
	crossedAbove := func(level, prevLevel float64) bool {
		return prevClose <= prevLevel && close > level
	}

	position, err := ctx.TradingSystem.GetPosition(data.Symbol)
	if err != nil {
		return err
	}

	if !position.IsOpen() {
		switch {
		case crossedBelow(levels.l25, prevLevels.l25) || crossedBelow(levels.l0, prevLevels.l0):
			s.wentLong = true
			s.wentShort = false

			return enterLong(ctx, data, s.Name(), types.Reason{
				Reason:  types.OrderReasonStrategy,
				Message: fmt.Sprintf("close %.4f fell through lower range level %.4f", close, levels.l25),
			})
		case crossedBelow(levels.l75, prevLevels.l75) || crossedBelow(levels.l100, prevLevels.l100):
			s.wentLong = false
			s.wentShort = true

			return enterShort(ctx, data, s.Name(), types.Reason{
				Reason:  types.OrderReasonStrategy,
				Message: fmt.Sprintf("close %.4f fell through upper range level %.4f", close, levels.l75),
			})
		}

		return nil
	}

	switch {
	case s.wentLong && (crossedAbove(levels.l75, prevLevels.l75) || crossedBelow(levels.l100, prevLevels.l100)):
		return closeIfOpen(ctx, data, fmt.Sprintf("close %.4f reached upper range level %.4f", close, levels.l75))
	case s.wentShort && (crossedAbove(levels.l25, prevLevels.l25) || crossedBelow(levels.l0, prevLevels.l0)):
		return closeIfOpen(ctx, data, fmt.Sprintf("close %.4f reached lower range level %.4f", close, levels.l25))
	}

	return nil
}

// levelsAt computes the range levels from the closes over the lookback
// window ending at endIdx inclusive. A partially filled window still
// produces levels, matching a rolling window with a minimum of one bar.
func levelsAt(bars []types.MarketData, endIdx int, lookback int) rangeLevels {
	start := endIdx - lookback + 1
	if start < 0 {
		start = 0
	}

	min := bars[start].Close
	max := bars[start].Close

	for i := start + 1; i <= endIdx; i++ {
		if bars[i].Close < min {
			min = bars[i].Close
		}

		if bars[i].Close > max {
			max = bars[i].Close
		}
	}

	priceRange := max - min

	return rangeLevels{
		l0:   min,
		l25:  min + priceRange*0.25,
		l75:  min + priceRange*0.75,
		l100: max,
	}
}
