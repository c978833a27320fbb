// Package engine defines the backtest engine interface and its lifecycle
// callbacks.
package engine

import (
	"context"

	"github.com/quantframe-lab/quantframe/internal/config"
	"github.com/quantframe-lab/quantframe/internal/strategy"
	"github.com/quantframe-lab/quantframe/internal/types"
)

// Lifecycle callback types for backtest phases.
// All callbacks with an error return can abort execution by returning one.

// OnBacktestStartCallback is called when the entire backtest begins.
type OnBacktestStartCallback func(totalRuns int) error

// OnBacktestEndCallback is called when the entire backtest completes (always called via defer).
type OnBacktestEndCallback func(err error)

// OnRunStartCallback is called when a (strategy, asset) run begins.
// runID is a unique identifier generated before processing starts.
type OnRunStartCallback func(runID string, strategyName string, asset string, totalBars int) error

// OnRunEndCallback is called when a (strategy, asset) run ends. err is nil
// on success; a failed run does not abort the remaining runs.
type OnRunEndCallback func(strategyName string, asset string, resultFolder string, err error)

// OnProcessDataCallback is called for each bar processed.
type OnProcessDataCallback func(current int, total int) error

// LifecycleCallbacks holds all lifecycle callback functions for the
// backtest engine. Nil fields mean no callback is invoked.
type LifecycleCallbacks struct {
	OnBacktestStart OnBacktestStartCallback
	OnBacktestEnd   OnBacktestEndCallback
	OnRunStart      OnRunStartCallback
	OnRunEnd        OnRunEndCallback
	OnProcessData   OnProcessDataCallback
}

// RunResult summarizes one (strategy, asset) run.
type RunResult struct {
	RunID        string
	Strategy     string
	Asset        string
	Params       map[string]float64
	ResultFolder string
	Stats        types.SummaryStats
	// Err is set when this run failed. Other runs are unaffected.
	Err error
}

type Engine interface {
	// Initialize configures the engine from a parsed config.
	Initialize(cfg *config.Config) error
	// SetStrategyRegistry overrides the default strategy registry.
	SetStrategyRegistry(registry *strategy.Registry)
	// Run executes every configured (strategy, asset) pair, writes the
	// result artifacts, and returns one result per run. A failing pair
	// is reported in its RunResult and does not abort the others.
	// The context can be used to cancel the backtest operation.
	Run(ctx context.Context, callbacks LifecycleCallbacks) ([]RunResult, error)
}
