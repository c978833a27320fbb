// Package strategy contains the trading strategy runtime and the built-in
// strategies.
package strategy

import (
	"math"

	"github.com/quantframe-lab/quantframe/internal/datasource"
	"github.com/quantframe-lab/quantframe/internal/indicator"
	"github.com/quantframe-lab/quantframe/internal/trading"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Params holds a strategy's tunable parameters. Every parameter is a
// float64 so the optimizer can sweep them uniformly; integer parameters
// are rounded on access.
type Params map[string]float64

// Int returns the parameter rounded to an int, or def when absent.
func (p Params) Int(key string, def int) int {
	if v, ok := p[key]; ok {
		return int(math.Round(v))
	}

	return def
}

// Float returns the parameter, or def when absent.
func (p Params) Float(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}

	return def
}

// Merge returns a copy of p overlaid with the entries of other.
func (p Params) Merge(other Params) Params {
	merged := make(Params, len(p)+len(other))

	for k, v := range p {
		merged[k] = v
	}

	for k, v := range other {
		merged[k] = v
	}

	return merged
}

// StrategyContext carries everything a strategy needs to make decisions
// on a bar.
type StrategyContext struct {
	// DataSource provides the market data as well as the historical data.
	DataSource datasource.DataSource
	// IndicatorRegistry is the registry of all indicators.
	IndicatorRegistry indicator.IndicatorRegistry
	// TradingSystem is used to place orders.
	TradingSystem trading.TradingSystem
}

// IndicatorContext derives the indicator context from the strategy context.
func (c StrategyContext) IndicatorContext() indicator.IndicatorContext {
	return indicator.IndicatorContext{
		DataSource:        c.DataSource,
		IndicatorRegistry: c.IndicatorRegistry,
	}
}

// Strategy interface defines methods that any trading strategy must
// implement. Strategies may keep per-run state; the engine creates a
// fresh instance for every (strategy, asset) pair.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// DefaultParams returns the strategy's default parameters.
	DefaultParams() Params
	// Initialize validates and applies the given parameters on top of
	// the defaults.
	Initialize(params Params) error
	// OnBar processes one bar of market data and places any resulting
	// orders through the context's trading system. Bars inside the
	// warmup window of the strategy's indicators are skipped.
	OnBar(ctx StrategyContext, data types.MarketData) error
}

// isWarmup reports whether err only signals that the indicator lookback
// window is not filled yet. Strategies skip those bars silently.
func isWarmup(err error) bool {
	return errors.IsInsufficientDataError(err)
}
