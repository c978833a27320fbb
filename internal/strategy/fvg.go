package strategy

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

type fvgKind string

const (
	fvgBullish fvgKind = "bullish"
	fvgBearish fvgKind = "bearish"
)

// fairValueGap is a three-candle imbalance zone. A bullish gap spans from
// the first candle's high (bottom) to the third candle's low (top); a
// bearish gap is the mirror image.
type fairValueGap struct {
	kind      fvgKind
	top       float64
	bottom    float64
	createdAt int
	used      bool
}

// FVG trades pullbacks into fair value gaps. When price retraces into a
// still-valid bullish gap it opens a long with an ATR-based stop loss and
// take profit; bearish gaps open shorts. Each gap is traded at most once
// and expires after a fixed number of bars.
type FVG struct {
	atrPeriod       int
	slATRMultiplier float64
	tpATRMultiplier float64
	expiry          int

	barIndex   int
	prev1      optional.Option[types.MarketData]
	prev2      optional.Option[types.MarketData]
	activeFVGs []fairValueGap
}

// NewFVG creates the strategy with its default parameters.
func NewFVG() *FVG {
	return &FVG{
		atrPeriod:       14,
		slATRMultiplier: 2.0,
		tpATRMultiplier: 4.0,
		expiry:          15,
	}
}

// Name returns the name of the strategy.
func (s *FVG) Name() string {
	return StrategyFVG
}

// DefaultParams returns the strategy's default parameters.
func (s *FVG) DefaultParams() Params {
	return Params{
		"atr_period":        14,
		"sl_atr_multiplier": 2.0,
		"tp_atr_multiplier": 4.0,
		"fvg_expiry":        15,
	}
}

// Initialize applies the given parameters and resets the gap state.
func (s *FVG) Initialize(params Params) error {
	merged := s.DefaultParams().Merge(params)

	s.atrPeriod = merged.Int("atr_period", 14)
	s.slATRMultiplier = merged.Float("sl_atr_multiplier", 2.0)
	s.tpATRMultiplier = merged.Float("tp_atr_multiplier", 4.0)
	s.expiry = merged.Int("fvg_expiry", 15)

	if s.atrPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "atr_period must be positive, got %d", s.atrPeriod)
	}

	if s.slATRMultiplier <= 0 || s.tpATRMultiplier <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"ATR multipliers must be positive, got sl=%.2f tp=%.2f", s.slATRMultiplier, s.tpATRMultiplier)
	}

	if s.expiry <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "fvg_expiry must be positive, got %d", s.expiry)
	}

	s.barIndex = 0
	s.prev1 = optional.None[types.MarketData]()
	s.prev2 = optional.None[types.MarketData]()
	s.activeFVGs = nil

	return nil
}

// OnBar maintains the gap list and trades pullbacks into valid gaps.
func (s *FVG) OnBar(ctx StrategyContext, data types.MarketData) error {
	defer func() {
		s.prev2 = s.prev1
		s.prev1 = optional.Some(data)
		s.barIndex++
	}()

	// Expire, invalidate, and drop used gaps before looking for entries.
	kept := s.activeFVGs[:0]

	for _, gap := range s.activeFVGs {
		expired := s.barIndex > gap.createdAt+s.expiry

		invalidated := (gap.kind == fvgBullish && data.Low < gap.bottom) ||
			(gap.kind == fvgBearish && data.High > gap.top)

		if !gap.used && !expired && !invalidated {
			kept = append(kept, gap)
		}
	}

	s.activeFVGs = kept

	if s.prev1.IsNone() || s.prev2.IsNone() {
		return nil
	}

	prev1 := s.prev1.Unwrap()
	prev2 := s.prev2.Unwrap()

	// Bullish gap: the high two bars back sits below the current low.
	if prev2.High < data.Low && s.isNewGap(fvgBullish, prev2.High) {
		s.activeFVGs = append(s.activeFVGs, fairValueGap{
			kind:      fvgBullish,
			top:       data.Low,
			bottom:    prev2.High,
			createdAt: s.barIndex,
		})
	}

	// Bearish gap: the low two bars back sits above the current high.
	if prev2.Low > data.High && s.isNewGap(fvgBearish, prev2.Low) {
		s.activeFVGs = append(s.activeFVGs, fairValueGap{
			kind:      fvgBearish,
			top:       prev2.Low,
			bottom:    data.High,
			createdAt: s.barIndex,
		})
	}

	position, err := ctx.TradingSystem.GetPosition(data.Symbol)
	if err != nil {
		return err
	}

	if position.IsOpen() {
		return nil
	}

	atr, err := ctx.IndicatorRegistry.GetIndicator(types.IndicatorTypeATR)
	if err != nil {
		return err
	}

	atrValue, err := atr.RawValue(data.Symbol, data.Time, ctx.IndicatorContext(), s.atrPeriod)
	if err != nil {
		if isWarmup(err) {
			return nil
		}

		return err
	}

	for i := range s.activeFVGs {
		gap := &s.activeFVGs[i]
		if gap.used {
			continue
		}

		switch gap.kind {
		case fvgBullish:
			// Pullback from above into the gap zone.
			if prev1.Low > gap.top && data.Low <= gap.top {
				gap.used = true

				return enterLong(ctx, data, s.Name(), types.Reason{
					Reason:  types.OrderReasonStrategy,
					Message: fmt.Sprintf("pullback into bullish FVG [%.4f, %.4f]", gap.bottom, gap.top),
				}, func(order *types.ExecuteOrder) {
					order.StopLoss = optional.Some(data.Close - atrValue*s.slATRMultiplier)
					order.TakeProfit = optional.Some(data.Close + atrValue*s.tpATRMultiplier)
				})
			}
		case fvgBearish:
			// Pullback from below into the gap zone.
			if prev1.High < gap.bottom && data.High >= gap.bottom {
				gap.used = true

				return enterShort(ctx, data, s.Name(), types.Reason{
					Reason:  types.OrderReasonStrategy,
					Message: fmt.Sprintf("pullback into bearish FVG [%.4f, %.4f]", gap.bottom, gap.top),
				}, func(order *types.ExecuteOrder) {
					order.StopLoss = optional.Some(data.Close + atrValue*s.slATRMultiplier)
					order.TakeProfit = optional.Some(data.Close - atrValue*s.tpATRMultiplier)
				})
			}
		}
	}

	return nil
}

// isNewGap rejects gaps that overlap the most recent gap of the same kind.
func (s *FVG) isNewGap(kind fvgKind, edge float64) bool {
	if len(s.activeFVGs) == 0 {
		return true
	}

	last := s.activeFVGs[len(s.activeFVGs)-1]
	if last.kind != kind {
		return true
	}

	switch kind {
	case fvgBullish:
		return math.Abs(last.bottom-edge) >= 1e-9
	default:
		return math.Abs(last.top-edge) >= 1e-9
	}
}
