package strategy

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Ichimoku trades the Ichimoku cloud with an ATR volatility filter.
// Longs require price above the cloud, a Tenkan/Kijun bullish crossover,
// and a rising Chikou span; shorts are the mirror image. The stop loss
// sits at the far cloud edge with the take profit at 1.5x the risk, and
// no trade is taken when ATR relative to price is below the threshold.
type Ichimoku struct {
	tenkanPeriod  int
	kijunPeriod   int
	senkouBPeriod int
	atrPeriod     int
	atrThreshold  float64
}

// NewIchimoku creates the strategy with the conventional 9/26/52 windows.
func NewIchimoku() *Ichimoku {
	return &Ichimoku{
		tenkanPeriod:  9,
		kijunPeriod:   26,
		senkouBPeriod: 52,
		atrPeriod:     14,
		atrThreshold:  0.005,
	}
}

// Name returns the name of the strategy.
func (s *Ichimoku) Name() string {
	return StrategyIchimoku
}

// DefaultParams returns the strategy's default parameters.
func (s *Ichimoku) DefaultParams() Params {
	return Params{
		"tenkan_period":   9,
		"kijun_period":    26,
		"senkou_b_period": 52,
		"atr_period":      14,
		"atr_threshold":   0.005,
	}
}

// Initialize applies the given parameters.
func (s *Ichimoku) Initialize(params Params) error {
	merged := s.DefaultParams().Merge(params)

	s.tenkanPeriod = merged.Int("tenkan_period", 9)
	s.kijunPeriod = merged.Int("kijun_period", 26)
	s.senkouBPeriod = merged.Int("senkou_b_period", 52)
	s.atrPeriod = merged.Int("atr_period", 14)
	s.atrThreshold = merged.Float("atr_threshold", 0.005)

	for name, period := range map[string]int{
		"tenkan_period":   s.tenkanPeriod,
		"kijun_period":    s.kijunPeriod,
		"senkou_b_period": s.senkouBPeriod,
		"atr_period":      s.atrPeriod,
	} {
		if period <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be positive, got %d", name, period)
		}
	}

	if s.tenkanPeriod >= s.kijunPeriod || s.kijunPeriod >= s.senkouBPeriod {
		return errors.Newf(errors.ErrCodeInvalidParameter,
			"periods must satisfy tenkan < kijun < senkou_b, got %d/%d/%d",
			s.tenkanPeriod, s.kijunPeriod, s.senkouBPeriod)
	}

	if s.atrThreshold < 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "atr_threshold must not be negative, got %f", s.atrThreshold)
	}

	return nil
}

// OnBar evaluates the cloud on the current bar.
func (s *Ichimoku) OnBar(ctx StrategyContext, data types.MarketData) error {
	// The cloud is projected kijun_period bars forward, so the spans at
	// the current bar derive from windows ending kijun_period bars ago.
	// One extra bar covers the crossover lookback.
	required := s.senkouBPeriod + s.kijunPeriod + 1

	bars, err := ctx.DataSource.GetPreviousNumberOfDataPoints(data.Time, data.Symbol, required)
	if err != nil {
		return err
	}

	if len(bars) < required {
		return nil
	}

	last := len(bars) - 1
	shift := s.kijunPeriod

	price := bars[last].Close

	tenkan := midpoint(bars, last, s.tenkanPeriod)
	kijun := midpoint(bars, last, s.kijunPeriod)
	prevTenkan := midpoint(bars, last-1, s.tenkanPeriod)
	prevKijun := midpoint(bars, last-1, s.kijunPeriod)

	senkouA := (midpoint(bars, last-shift, s.tenkanPeriod) + midpoint(bars, last-shift, s.kijunPeriod)) / 2
	senkouB := midpoint(bars, last-shift, s.senkouBPeriod)

	cloudTop := math.Max(senkouA, senkouB)
	cloudBottom := math.Min(senkouA, senkouB)
	inCloud := price >= cloudBottom && price <= cloudTop

	// Chikou span: compare today's close against the close shift bars ago.
	chikouRising := price > bars[last-shift].Close
	chikouFalling := price < bars[last-shift].Close

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

	// Volatility filter: stand aside in quiet markets.
	if atrValue/price < s.atrThreshold {
		return nil
	}

	bullishCross := tenkan > kijun && prevTenkan <= prevKijun
	bearishCross := tenkan < kijun && prevTenkan >= prevKijun

	position, err := ctx.TradingSystem.GetPosition(data.Symbol)
	if err != nil {
		return err
	}

	switch {
	case !position.IsOpen() && price > cloudTop && bullishCross && chikouRising:
		risk := price - cloudBottom

		return enterLong(ctx, data, s.Name(), types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: fmt.Sprintf("bullish Tenkan/Kijun cross above cloud (top=%.4f)", cloudTop),
		}, func(order *types.ExecuteOrder) {
			order.StopLoss = optional.Some(cloudBottom)
			order.TakeProfit = optional.Some(price + 1.5*risk)
		})
	case !position.IsOpen() && price < cloudBottom && bearishCross && chikouFalling:
		risk := cloudTop - price

		return enterShort(ctx, data, s.Name(), types.Reason{
			Reason:  types.OrderReasonStrategy,
			Message: fmt.Sprintf("bearish Tenkan/Kijun cross below cloud (bottom=%.4f)", cloudBottom),
		}, func(order *types.ExecuteOrder) {
			order.StopLoss = optional.Some(cloudTop)
			order.TakeProfit = optional.Some(price - 1.5*risk)
		})
	case position.IsLong() && (inCloud || bearishCross):
		return closeIfOpen(ctx, data, "price back in cloud or bearish cross")
	case position.IsShort() && (inCloud || bullishCross):
		return closeIfOpen(ctx, data, "price back in cloud or bullish cross")
	}

	return nil
}

// midpoint returns (highest high + lowest low) / 2 over the period bars
// ending at endIdx inclusive.
func midpoint(bars []types.MarketData, endIdx int, period int) float64 {
	start := endIdx - period + 1
	if start < 0 {
		start = 0
	}

	high := bars[start].High
	low := bars[start].Low

	for i := start + 1; i <= endIdx; i++ {
		high = math.Max(high, bars[i].High)
		low = math.Min(low, bars[i].Low)
	}

	return (high + low) / 2
}
