// Package optimizer implements parameter grid search. The engine feeds it
// an evaluation function that scores one parameter set; the optimizer
// sweeps the grid, keeps the best score, and writes the optimization
// artifacts.
package optimizer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/config"
	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/strategy"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// Evaluation is the outcome of scoring one parameter set.
type Evaluation struct {
	Params map[string]float64 `json:"params"`
	Score  float64            `json:"sharpe_ratio"`
	// Failed parameter sets keep their slot so the search space stays
	// visible in the artifacts.
	Error string `json:"error,omitempty"`
}

// Outcome is the result of a full grid search.
type Outcome struct {
	Strategy    string             `json:"strategy"`
	Asset       string             `json:"asset"`
	BestParams  map[string]float64 `json:"best_params"`
	BestScore   float64            `json:"best_sharpe_ratio"`
	Evaluations []Evaluation       `json:"evaluations"`
}

// EvaluateFunc scores one parameter set. Higher is better.
type EvaluateFunc func(params strategy.Params) (float64, error)

// Optimizer sweeps a parameter grid and picks the best-scoring set.
type Optimizer struct {
	logger *logger.Logger
}

// NewOptimizer creates a grid search optimizer.
func NewOptimizer(log *logger.Logger) *Optimizer {
	return &Optimizer{logger: log}
}

// Grid expands the parameter ranges into the cartesian product of their
// values. Key order is fixed alphabetically so runs are reproducible.
func Grid(ranges map[string]config.ParamRange) []strategy.Params {
	if len(ranges) == 0 {
		return nil
	}

	keys := make([]string, 0, len(ranges))
	for key := range ranges {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	grid := []strategy.Params{{}}

	for _, key := range keys {
		values := ranges[key].Values()

		next := make([]strategy.Params, 0, len(grid)*len(values))

		for _, base := range grid {
			for _, value := range values {
				combo := make(strategy.Params, len(base)+1)
				for k, v := range base {
					combo[k] = v
				}

				combo[key] = value
				next = append(next, combo)
			}
		}

		grid = next
	}

	return grid
}

// Run scores every parameter set in the grid and returns the outcome.
// Individual evaluation failures are recorded but do not stop the sweep;
// the search fails only when no parameter set could be scored.
func (o *Optimizer) Run(strategyName string, asset string, ranges map[string]config.ParamRange, evaluate EvaluateFunc) (Outcome, error) {
	grid := Grid(ranges)
	if len(grid) == 0 {
		return Outcome{}, errors.Newf(errors.ErrCodeInvalidParamRange,
			"strategy %s has no parameter ranges to optimize", strategyName)
	}

	outcome := Outcome{
		Strategy:    strategyName,
		Asset:       asset,
		Evaluations: make([]Evaluation, 0, len(grid)),
	}

	scored := false

	for _, params := range grid {
		score, err := evaluate(params)

		evaluation := Evaluation{Params: params, Score: score}
		if err != nil {
			evaluation.Error = err.Error()
			evaluation.Score = 0

			o.logger.Warn("Parameter set failed",
				zap.String("strategy", strategyName),
				zap.String("asset", asset),
				zap.Any("params", params),
				zap.Error(err),
			)
		}

		outcome.Evaluations = append(outcome.Evaluations, evaluation)

		if err == nil && (!scored || score > outcome.BestScore) {
			outcome.BestScore = score
			outcome.BestParams = params
			scored = true
		}
	}

	if !scored {
		return Outcome{}, errors.Newf(errors.ErrCodeStrategyRuntime,
			"every parameter set failed for strategy %s on %s", strategyName, asset)
	}

	o.logger.Info("Optimization finished",
		zap.String("strategy", strategyName),
		zap.String("asset", asset),
		zap.Int("evaluated", len(outcome.Evaluations)),
		zap.Any("best_params", outcome.BestParams),
		zap.Float64("best_sharpe", outcome.BestScore),
	)

	return outcome, nil
}
