// Package engine implements the v1 backtest engine: a bar-by-bar replay
// of historical data through the configured strategies, producing result
// artifacts per (strategy, asset) pair.
package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/config"
	baseengine "github.com/quantframe-lab/quantframe/internal/engine"
	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/optimizer"
	"github.com/quantframe-lab/quantframe/internal/report"
	"github.com/quantframe-lab/quantframe/internal/stats"
	"github.com/quantframe-lab/quantframe/internal/strategy"
	"github.com/quantframe-lab/quantframe/internal/version"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// BacktestEngineV1 implements engine.Engine.
type BacktestEngineV1 struct {
	logger       *logger.Logger
	config       *config.Config
	registry     *strategy.Registry
	reportWriter *report.Writer
	optimizer    *optimizer.Optimizer
}

// NewBacktestEngineV1 creates the engine with the default strategy
// registry.
func NewBacktestEngineV1(log *logger.Logger) (*BacktestEngineV1, error) {
	writer, err := report.NewWriter(log)
	if err != nil {
		return nil, err
	}

	return &BacktestEngineV1{
		logger:       log,
		registry:     strategy.NewDefaultRegistry(),
		reportWriter: writer,
		optimizer:    optimizer.NewOptimizer(log),
	}, nil
}

var _ baseengine.Engine = (*BacktestEngineV1)(nil)

// Initialize implements engine.Engine.
func (e *BacktestEngineV1) Initialize(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.ErrCodeInvalidConfig, "config is nil")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	e.config = cfg

	return nil
}

// SetStrategyRegistry implements engine.Engine.
func (e *BacktestEngineV1) SetStrategyRegistry(registry *strategy.Registry) {
	e.registry = registry
}

// Run implements engine.Engine.
func (e *BacktestEngineV1) Run(ctx context.Context, callbacks baseengine.LifecycleCallbacks) (results []baseengine.RunResult, err error) {
	if e.config == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "engine is not initialized")
	}

	defer func() {
		if callbacks.OnBacktestEnd != nil {
			callbacks.OnBacktestEnd(err)
		}
	}()

	dataFiles, err := resolveDataFiles(e.config.BacktestSettings.DataSource, e.config.AssetsToRun)
	if err != nil {
		return nil, err
	}

	totalRuns := len(e.config.Strategies) * len(dataFiles)

	if callbacks.OnBacktestStart != nil {
		if err = callbacks.OnBacktestStart(totalRuns); err != nil {
			return nil, err
		}
	}

	for _, strategyCfg := range e.config.Strategies {
		for _, file := range dataFiles {
			if ctx.Err() != nil {
				err = ctx.Err()

				return results, err
			}

			result := e.runPair(ctx, strategyCfg, file, callbacks)
			results = append(results, result)

			if callbacks.OnRunEnd != nil {
				callbacks.OnRunEnd(strategyCfg.Name, file.asset, result.ResultFolder, result.Err)
			}

			if result.Err != nil {
				// one bad pair must not sink the rest of the run
				e.logger.Error("Run failed",
					zap.String("strategy", strategyCfg.Name),
					zap.String("asset", file.asset),
					zap.Error(result.Err),
				)
			}
		}
	}

	return results, nil
}

// dataFile pairs an asset symbol with its CSV path.
type dataFile struct {
	asset string
	path  string
}

// resolveDataFiles maps the requested assets onto the CSV files in the
// data directory, matching file names case-insensitively. An empty asset
// list selects every CSV in the directory.
func resolveDataFiles(dir string, assets []string) ([]dataFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceFailed, err, "failed to read data directory %s", dir)
	}

	byUpper := make(map[string]string)

	var all []dataFile

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			continue
		}

		asset := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		path := filepath.Join(dir, entry.Name())

		byUpper[strings.ToUpper(asset)] = path
		all = append(all, dataFile{asset: strings.ToUpper(asset), path: path})
	}

	if len(all) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataDirEmpty, "no CSV files found in %s", dir)
	}

	if len(assets) == 0 {
		return all, nil
	}

	files := make([]dataFile, 0, len(assets))

	for _, asset := range assets {
		path, ok := byUpper[strings.ToUpper(asset)]
		if !ok {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "no CSV file for asset %s in %s", asset, dir)
		}

		files = append(files, dataFile{asset: strings.ToUpper(asset), path: path})
	}

	return files, nil
}

// runPair executes one (strategy, asset) pair end to end: optional
// parameter optimization, the full simulation, and artifact writing.
// Failures are captured in the result instead of propagating.
func (e *BacktestEngineV1) runPair(ctx context.Context, strategyCfg config.StrategyConfig, file dataFile, callbacks baseengine.LifecycleCallbacks) baseengine.RunResult {
	runID := uuid.New().String()
	settings := e.config.BacktestSettings

	resultFolder := filepath.Join(settings.ResultsDir, strategyCfg.Name, file.asset)

	result := baseengine.RunResult{
		RunID:        runID,
		Strategy:     strategyCfg.Name,
		Asset:        file.asset,
		ResultFolder: resultFolder,
	}

	source, err := datasourceFor(e.logger, file)
	if err != nil {
		result.Err = err

		return result
	}
	defer source.Close()

	totalBars, err := source.Count(settings.StartTime, settings.EndTime)
	if err != nil {
		result.Err = err

		return result
	}

	if totalBars == 0 {
		result.Err = errors.Newf(errors.ErrCodeBacktestNoData, "no bars for %s in the configured time range", file.asset)

		return result
	}

	if callbacks.OnRunStart != nil {
		if err := callbacks.OnRunStart(runID, strategyCfg.Name, file.asset, totalBars); err != nil {
			result.Err = err

			return result
		}
	}

	params := strategy.Params(strategyCfg.Params)

	if strategyCfg.Optimize {
		best, err := e.optimizeParams(ctx, strategyCfg, file, source, resultFolder)
		if err != nil {
			result.Err = err

			return result
		}

		params = params.Merge(best)
	}

	run, err := e.simulate(ctx, source, strategyCfg.Name, params, settings.StartTime, settings.EndTime, callbacks.OnProcessData)
	if err != nil {
		result.Err = err

		return result
	}
	defer run.state.Close()

	summary, err := stats.Compute(stats.Input{
		Strategy:    strategyCfg.Name,
		Asset:       file.asset,
		Params:      params,
		InitialCash: settings.InitialCash,
		Curve:       run.curve,
		Trades:      run.trades,
		FirstClose:  run.firstClose,
		LastClose:   run.lastClose,
		TotalFees:   run.totalFees,
	})
	if err != nil {
		result.Err = err

		return result
	}

	summary.RunID = runID
	summary.GeneratedAt = time.Now().UTC()
	summary.EngineVersion = version.Version

	if err := e.reportWriter.Write(resultFolder, summary, run.curve, run.benchmark, run.trades); err != nil {
		result.Err = err

		return result
	}

	if err := run.state.ExportParquet(resultFolder); err != nil {
		// the parquet export is supplementary; the JSON artifacts are
		// already on disk
		e.logger.Warn("Failed to export parquet", zap.Error(err))
	}

	result.Params = params
	result.Stats = summary

	return result
}

// optimizeParams grid-searches the strategy's parameter ranges on the
// first half of the data, maximizing the Sharpe ratio, and writes the
// optimization artifacts. Best parameters persisted by an earlier run are
// reused instead of re-running the sweep.
func (e *BacktestEngineV1) optimizeParams(ctx context.Context, strategyCfg config.StrategyConfig, file dataFile, source datasourceHandle, resultFolder string) (strategy.Params, error) {
	settings := e.config.BacktestSettings

	persisted, found, err := e.optimizer.LoadBestParams(resultFolder)
	if err != nil {
		return nil, err
	}

	if found {
		e.logger.Info("Reusing optimized parameters",
			zap.String("strategy", strategyCfg.Name),
			zap.String("asset", file.asset),
			zap.Any("params", persisted),
		)

		return persisted, nil
	}

	splitTime, err := halfwayTime(source, settings.StartTime, settings.EndTime)
	if err != nil {
		return nil, err
	}

	outcome, err := e.optimizer.Run(strategyCfg.Name, file.asset, strategyCfg.ParamRanges, func(params strategy.Params) (float64, error) {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}

		merged := strategy.Params(strategyCfg.Params).Merge(params)

		run, err := e.simulate(ctx, source, strategyCfg.Name, merged, settings.StartTime, optional.Some(splitTime), nil)
		if err != nil {
			return 0, err
		}

		defer run.state.Close()

		summary, err := stats.Compute(stats.Input{
			Strategy:    strategyCfg.Name,
			Asset:       file.asset,
			InitialCash: settings.InitialCash,
			Curve:       run.curve,
			Trades:      run.trades,
			FirstClose:  run.firstClose,
			LastClose:   run.lastClose,
		})
		if err != nil {
			return 0, err
		}

		return summary.SharpeRatio, nil
	})
	if err != nil {
		return nil, err
	}

	if err := e.optimizer.WriteArtifacts(resultFolder, outcome); err != nil {
		return nil, err
	}

	return outcome.BestParams, nil
}

// halfwayTime returns the timestamp of the middle bar of the bounded
// series. The optimizer trains on the first half so the reported run
// still contains unseen data.
func halfwayTime(source datasourceHandle, start, end optional.Option[time.Time]) (time.Time, error) {
	total, err := source.Count(start, end)
	if err != nil {
		return time.Time{}, err
	}

	if total < 4 {
		return time.Time{}, errors.Newf(errors.ErrCodeInsufficientData,
			"need at least 4 bars to optimize, got %d", total)
	}

	target := total / 2
	index := 0

	var splitTime time.Time

	for bar, err := range source.ReadAll(start, end) {
		if err != nil {
			return time.Time{}, err
		}

		if index == target {
			splitTime = bar.Time

			break
		}

		index++
	}

	return splitTime, nil
}
