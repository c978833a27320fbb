// Package report writes the per-run result artifacts: summary_stats.json,
// equity_curve.json, and a self-contained report.html.
package report

import (
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

const (
	SummaryStatsFile = "summary_stats.json"
	EquityCurveFile  = "equity_curve.json"
	ReportFile       = "report.html"
)

// Writer renders the result artifacts for one run into a folder.
type Writer struct {
	logger   *logger.Logger
	template *template.Template
}

// NewWriter creates a report writer.
func NewWriter(log *logger.Logger) (*Writer, error) {
	tmpl, err := template.New("report").Parse(reportTemplate)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to parse report template", err)
	}

	return &Writer{logger: log, template: tmpl}, nil
}

// reportData feeds the HTML template. The JSON payloads are rendered into
// inline scripts for the plotly charts.
type reportData struct {
	Stats         types.SummaryStats
	CurveJSON     template.JS
	BenchmarkJSON template.JS
	Trades        []types.Trade
}

// Write renders all artifacts for one run into folder, creating it if
// needed. benchmark is the Buy & Hold equity over the same bars, charted
// against the strategy's curve.
func (w *Writer) Write(folder string, stats types.SummaryStats, curve types.EquityCurve, benchmark types.EquityCurve, trades []types.Trade) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create result folder %s", folder)
	}

	if err := types.WriteSummaryStats(filepath.Join(folder, SummaryStatsFile), stats); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write summary stats", err)
	}

	if err := types.WriteEquityCurve(filepath.Join(folder, EquityCurveFile), curve); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write equity curve", err)
	}

	if err := w.writeHTML(filepath.Join(folder, ReportFile), stats, curve, benchmark, trades); err != nil {
		return err
	}

	w.logger.Debug("Wrote result artifacts",
		zap.String("folder", folder),
		zap.String("strategy", stats.Strategy),
		zap.String("asset", stats.Asset),
	)

	return nil
}

func (w *Writer) writeHTML(path string, stats types.SummaryStats, curve types.EquityCurve, benchmark types.EquityCurve, trades []types.Trade) error {
	curveJSON, err := json.Marshal(curve)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal equity curve", err)
	}

	if benchmark == nil {
		benchmark = types.EquityCurve{}
	}

	benchmarkJSON, err := json.Marshal(benchmark)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal benchmark curve", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	data := reportData{
		Stats:         stats,
		CurveJSON:     template.JS(curveJSON),
		BenchmarkJSON: template.JS(benchmarkJSON),
		Trades:        trades,
	}

	if err := w.template.Execute(file, data); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to render report", err)
	}

	return nil
}
