package engine

import (
	"context"
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantframe-lab/quantframe/internal/datasource"
	baseengine "github.com/quantframe-lab/quantframe/internal/engine"
	"github.com/quantframe-lab/quantframe/internal/engine/engine_v1/commission"
	"github.com/quantframe-lab/quantframe/internal/indicator"
	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/strategy"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// datasourceHandle is the data access surface the engine needs per asset.
type datasourceHandle = datasource.DataSource

// datasourceFor loads one asset's CSV into a fresh in-memory data source.
func datasourceFor(log *logger.Logger, file dataFile) (datasourceHandle, error) {
	source, err := datasource.NewDataSource(log)
	if err != nil {
		return nil, err
	}

	if err := source.Initialize(file.path, file.asset); err != nil {
		_ = source.Close()

		return nil, err
	}

	return source, nil
}

// simulationRun is the raw output of one bar-by-bar replay. benchmark is
// the Buy & Hold equity over the same bars: the initial cash scaled by
// each close relative to the first close.
type simulationRun struct {
	state      *BacktestState
	curve      types.EquityCurve
	benchmark  types.EquityCurve
	trades     []types.Trade
	firstClose float64
	lastClose  float64
	totalFees  float64
}

// simulate replays the bounded series through a fresh strategy instance
// and a fresh broker, collecting the equity curve and trade ledger. The
// caller owns the returned state and must close it.
func (e *BacktestEngineV1) simulate(ctx context.Context, source datasourceHandle, strategyName string, params strategy.Params, start, end optional.Option[time.Time], onProcess baseengine.OnProcessDataCallback) (*simulationRun, error) {
	settings := e.config.BacktestSettings

	strat, err := e.registry.Create(strategyName, params)
	if err != nil {
		return nil, err
	}

	state, err := NewBacktestState(e.logger)
	if err != nil {
		return nil, err
	}

	if err := state.Initialize(); err != nil {
		_ = state.Close()

		return nil, err
	}

	broker := NewBacktestTrading(state, settings.InitialCash,
		commission.GetModel(settings.Broker, settings.CommissionPct), e.logger)

	strategyCtx := strategy.StrategyContext{
		DataSource:        source,
		IndicatorRegistry: indicator.NewDefaultIndicatorRegistry(),
		TradingSystem:     broker,
	}

	total, err := source.Count(start, end)
	if err != nil {
		_ = state.Close()

		return nil, err
	}

	run := &simulationRun{
		state:     state,
		curve:     make(types.EquityCurve, 0, total),
		benchmark: make(types.EquityCurve, 0, total),
	}

	processed := 0

	for bar, err := range source.ReadAll(start, end) {
		if err != nil {
			_ = state.Close()

			return nil, err
		}

		if ctx.Err() != nil {
			_ = state.Close()

			return nil, ctx.Err()
		}

		// fills pending exit levels before the strategy sees the bar
		if err := broker.UpdateCurrentMarketData(bar); err != nil {
			_ = state.Close()

			return nil, err
		}

		if err := strat.OnBar(strategyCtx, bar); err != nil {
			_ = state.Close()

			return nil, errors.Wrapf(errors.ErrCodeStrategyRuntime, err,
				"strategy %s failed on bar %s", strategyName, bar.Time.Format(time.RFC3339))
		}

		account, err := broker.GetAccountInfo()
		if err != nil {
			_ = state.Close()

			return nil, err
		}

		run.curve = append(run.curve, types.EquityPoint{Time: bar.Time, Equity: account.Equity})

		if run.firstClose == 0 {
			run.firstClose = bar.Close
		}

		benchmarkEquity := settings.InitialCash
		if run.firstClose > 0 {
			benchmarkEquity = settings.InitialCash * bar.Close / run.firstClose
		}

		run.benchmark = append(run.benchmark, types.EquityPoint{Time: bar.Time, Equity: benchmarkEquity})

		run.lastClose = bar.Close
		processed++

		if onProcess != nil {
			if err := onProcess(processed, total); err != nil {
				_ = state.Close()

				return nil, err
			}
		}
	}

	trades, err := state.GetAllTrades()
	if err != nil {
		_ = state.Close()

		return nil, err
	}

	fees, err := state.TotalFees()
	if err != nil {
		_ = state.Close()

		return nil, err
	}

	run.trades = trades
	run.totalFees = fees

	return run, nil
}
