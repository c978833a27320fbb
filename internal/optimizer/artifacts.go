package optimizer

import (
	"encoding/json"
	"html/template"
	"os"
	"path/filepath"
	"sort"

	"github.com/quantframe-lab/quantframe/internal/strategy"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

const (
	ParamsFile  = "optimized_params.json"
	HeatmapFile = "heatmap.html"
)

// WriteArtifacts persists the outcome of a grid search into folder:
// optimized_params.json with the full sweep and heatmap.html visualizing
// the scores.
func (o *Optimizer) WriteArtifacts(folder string, outcome Outcome) error {
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create folder %s", folder)
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal optimization outcome", err)
	}

	if err := os.WriteFile(filepath.Join(folder, ParamsFile), data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write optimized params", err)
	}

	return o.writeHeatmap(filepath.Join(folder, HeatmapFile), outcome)
}

// LoadBestParams returns the best parameters a previous grid search
// persisted into folder. A missing artifact is not an error; the caller
// falls back to running the search.
func (o *Optimizer) LoadBestParams(folder string) (strategy.Params, bool, error) {
	data, err := os.ReadFile(filepath.Join(folder, ParamsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}

		return nil, false, errors.Wrapf(errors.ErrCodeResultsIncompatible, err,
			"failed to read optimized params in %s", folder)
	}

	var outcome Outcome

	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, false, errors.Wrapf(errors.ErrCodeResultsIncompatible, err,
			"failed to parse optimized params in %s", folder)
	}

	if len(outcome.BestParams) == 0 {
		return nil, false, nil
	}

	return strategy.Params(outcome.BestParams), true, nil
}

// heatmapData feeds the heatmap template. With exactly two swept
// parameters the scores render as a 2D heatmap; any other dimensionality
// falls back to a sorted score table.
type heatmapData struct {
	Outcome     Outcome
	TwoParams   bool
	XName       string
	YName       string
	PayloadJSON template.JS
}

type heatmapPayload struct {
	X []float64   `json:"x"`
	Y []float64   `json:"y"`
	Z [][]float64 `json:"z"`
}

func (o *Optimizer) writeHeatmap(path string, outcome Outcome) error {
	data := heatmapData{Outcome: outcome}

	if names := sweptParams(outcome); len(names) == 2 {
		payload := buildHeatmapPayload(outcome, names[0], names[1])

		encoded, err := json.Marshal(payload)
		if err != nil {
			return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to marshal heatmap payload", err)
		}

		data.TwoParams = true
		data.XName = names[0]
		data.YName = names[1]
		data.PayloadJSON = template.JS(encoded)
	}

	// evaluations sorted best-first for the fallback table
	sort.SliceStable(data.Outcome.Evaluations, func(i, j int) bool {
		return data.Outcome.Evaluations[i].Score > data.Outcome.Evaluations[j].Score
	})

	tmpl, err := template.New("heatmap").Parse(heatmapTemplate)
	if err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to parse heatmap template", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := tmpl.Execute(file, data); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to render heatmap", err)
	}

	return nil
}

// sweptParams returns the parameter names that actually vary across the
// evaluations, sorted.
func sweptParams(outcome Outcome) []string {
	values := make(map[string]map[float64]struct{})

	for _, evaluation := range outcome.Evaluations {
		for name, value := range evaluation.Params {
			if _, ok := values[name]; !ok {
				values[name] = make(map[float64]struct{})
			}

			values[name][value] = struct{}{}
		}
	}

	var names []string

	for name, seen := range values {
		if len(seen) > 1 {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return names
}

func buildHeatmapPayload(outcome Outcome, xName, yName string) heatmapPayload {
	xs := sortedValues(outcome, xName)
	ys := sortedValues(outcome, yName)

	xIndex := indexOf(xs)
	yIndex := indexOf(ys)

	z := make([][]float64, len(ys))
	for i := range z {
		z[i] = make([]float64, len(xs))
	}

	for _, evaluation := range outcome.Evaluations {
		xi, xok := xIndex[evaluation.Params[xName]]
		yi, yok := yIndex[evaluation.Params[yName]]

		if xok && yok {
			z[yi][xi] = evaluation.Score
		}
	}

	return heatmapPayload{X: xs, Y: ys, Z: z}
}

func sortedValues(outcome Outcome, name string) []float64 {
	seen := make(map[float64]struct{})

	for _, evaluation := range outcome.Evaluations {
		if value, ok := evaluation.Params[name]; ok {
			seen[value] = struct{}{}
		}
	}

	values := make([]float64, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}

	sort.Float64s(values)

	return values
}

func indexOf(values []float64) map[float64]int {
	index := make(map[float64]int, len(values))
	for i, value := range values {
		index[value] = i
	}

	return index
}

const heatmapTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Optimization: {{.Outcome.Strategy}} on {{.Outcome.Asset}}</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2430; }
  h1 { font-size: 1.4rem; }
  table { border-collapse: collapse; margin: 1rem 0; }
  th, td { border: 1px solid #d7dbe0; padding: 0.35rem 0.8rem; font-size: 0.85rem; text-align: right; }
  th { background: #f3f5f7; }
  .chart { width: 100%; height: 480px; }
</style>
</head>
<body>
<h1>Optimization: {{.Outcome.Strategy}} on {{.Outcome.Asset}}</h1>
<p>Best Sharpe {{printf "%.3f" .Outcome.BestScore}} at {{range $k, $v := .Outcome.BestParams}}{{$k}}={{$v}} {{end}}</p>

{{if .TwoParams}}
<div id="heatmap" class="chart"></div>
<script>
  const payload = {{.PayloadJSON}};

  Plotly.newPlot("heatmap", [{
    x: payload.x,
    y: payload.y,
    z: payload.z,
    type: "heatmap",
    colorscale: "Viridis",
    colorbar: { title: "Sharpe" }
  }], {
    title: "Sharpe ratio by parameter",
    xaxis: { title: "{{.XName}}" },
    yaxis: { title: "{{.YName}}" },
    margin: { t: 40 }
  });
</script>
{{end}}

<h2>All evaluations</h2>
<table>
  <tr><th>Params</th><th>Sharpe</th><th>Error</th></tr>
  {{range .Outcome.Evaluations}}
  <tr>
    <td>{{range $k, $v := .Params}}{{$k}}={{$v}} {{end}}</td>
    <td>{{printf "%.3f" .Score}}</td>
    <td>{{.Error}}</td>
  </tr>
  {{end}}
</table>
</body>
</html>
`
