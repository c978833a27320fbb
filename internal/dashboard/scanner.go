// Package dashboard serves backtest results over HTTP: a JSON API on top
// of the results directory plus a small plotly page to compare runs.
package dashboard

import (
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/report"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/internal/version"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// ResultEntry is one (strategy, asset) run found in the results directory.
type ResultEntry struct {
	Strategy string             `json:"strategy"`
	Asset    string             `json:"asset"`
	Stats    types.SummaryStats `json:"stats"`
}

// Scanner discovers result artifacts under a results directory laid out as
// <resultsDir>/<strategy>/<asset>/summary_stats.json.
type Scanner struct {
	resultsDir string
	logger     *logger.Logger
}

// NewScanner creates a scanner over resultsDir.
func NewScanner(resultsDir string, log *logger.Logger) *Scanner {
	return &Scanner{resultsDir: resultsDir, logger: log}
}

// Scan walks the results directory and loads every readable summary.
// Entries written by an incompatible engine major version are skipped with
// a warning. The entries come back sorted by strategy, then asset.
func (s *Scanner) Scan() ([]ResultEntry, error) {
	strategies, err := os.ReadDir(s.resultsDir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeResultsNotFound, err,
			"failed to read results directory %s", s.resultsDir)
	}

	var entries []ResultEntry

	for _, strategyDir := range strategies {
		if !strategyDir.IsDir() {
			continue
		}

		assets, err := os.ReadDir(filepath.Join(s.resultsDir, strategyDir.Name()))
		if err != nil {
			continue
		}

		for _, assetDir := range assets {
			if !assetDir.IsDir() {
				continue
			}

			entry, ok := s.loadEntry(strategyDir.Name(), assetDir.Name())
			if ok {
				entries = append(entries, entry)
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Strategy != entries[j].Strategy {
			return entries[i].Strategy < entries[j].Strategy
		}

		return entries[i].Asset < entries[j].Asset
	})

	return entries, nil
}

func (s *Scanner) loadEntry(strategy string, asset string) (ResultEntry, bool) {
	path := filepath.Join(s.resultsDir, strategy, asset, report.SummaryStatsFile)

	stats, err := types.ReadSummaryStats(path)
	if err != nil {
		s.logger.Warn("Skipping unreadable result",
			zap.String("path", path),
			zap.Error(err),
		)

		return ResultEntry{}, false
	}

	compatible, err := version.IsCompatible(stats.EngineVersion)
	if err != nil || !compatible {
		s.logger.Warn("Skipping result from incompatible engine version",
			zap.String("path", path),
			zap.String("engine_version", stats.EngineVersion),
		)

		return ResultEntry{}, false
	}

	return ResultEntry{Strategy: strategy, Asset: asset, Stats: stats}, true
}

// EquityCurve loads the equity curve artifact of one (strategy, asset)
// pair.
func (s *Scanner) EquityCurve(strategy string, asset string) (types.EquityCurve, error) {
	path := filepath.Join(s.resultsDir, strategy, asset, report.EquityCurveFile)

	curve, err := types.ReadEquityCurve(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeResultsNotFound, err,
			"no equity curve for %s/%s", strategy, asset)
	}

	return curve, nil
}
