package report

// reportTemplate is the self-contained run report. Charts render with
// plotly loaded from its CDN; everything else is inline.
const reportTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Stats.Strategy}} on {{.Stats.Asset}}</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2430; }
  h1 { font-size: 1.4rem; }
  .meta { color: #6a7280; font-size: 0.85rem; margin-bottom: 1.5rem; }
  table { border-collapse: collapse; margin: 1rem 0; }
  th, td { border: 1px solid #d7dbe0; padding: 0.35rem 0.8rem; font-size: 0.85rem; text-align: right; }
  th { background: #f3f5f7; text-align: left; }
  .chart { width: 100%; height: 420px; margin-bottom: 1.5rem; }
  .negative { color: #c0392b; }
  .positive { color: #1e8449; }
</style>
</head>
<body>
<h1>{{.Stats.Strategy}} on {{.Stats.Asset}}</h1>
<div class="meta">
  Run {{.Stats.RunID}} &middot; engine {{.Stats.EngineVersion}} &middot; generated {{.Stats.GeneratedAt.Format "2006-01-02 15:04:05 MST"}}<br>
  {{.Stats.Start.Format "2006-01-02"}} to {{.Stats.End.Format "2006-01-02"}} &middot; {{.Stats.Bars}} bars
</div>

<div id="equity" class="chart"></div>
<div id="drawdown" class="chart"></div>

<h2>Summary</h2>
<table>
  <tr><th>Initial cash</th><td>{{printf "%.2f" .Stats.InitialCash}}</td></tr>
  <tr><th>Final equity</th><td>{{printf "%.2f" .Stats.FinalEquity}}</td></tr>
  <tr><th>Return</th><td>{{printf "%.2f%%" .Stats.ReturnPct}}</td></tr>
  <tr><th>Buy &amp; Hold return</th><td>{{printf "%.2f%%" .Stats.BuyHoldReturnPct}}</td></tr>
  <tr><th>Annual return</th><td>{{printf "%.2f%%" .Stats.AnnualReturnPct}}</td></tr>
  <tr><th>Annual volatility</th><td>{{printf "%.2f%%" .Stats.AnnualVolatilityPct}}</td></tr>
  <tr><th>Sharpe ratio</th><td>{{printf "%.3f" .Stats.SharpeRatio}}</td></tr>
  <tr><th>Calmar ratio</th><td>{{printf "%.3f" .Stats.CalmarRatio}}</td></tr>
  <tr><th>Max drawdown</th><td>{{printf "%.2f%%" .Stats.MaxDrawdownPct}}</td></tr>
  <tr><th>Trades</th><td>{{.Stats.NumTrades}}</td></tr>
  <tr><th>Win rate</th><td>{{printf "%.2f%%" .Stats.WinRatePct}}</td></tr>
  <tr><th>Best trade</th><td>{{printf "%.2f" .Stats.BestTradePnL}}</td></tr>
  <tr><th>Worst trade</th><td>{{printf "%.2f" .Stats.WorstTradePnL}}</td></tr>
  <tr><th>Total fees</th><td>{{printf "%.2f" .Stats.TotalFees}}</td></tr>
</table>

{{if .Trades}}
<h2>Trades</h2>
<table>
  <tr><th>Executed at</th><th>Side</th><th>Quantity</th><th>Price</th><th>Fee</th><th>PnL</th><th>Reason</th></tr>
  {{range .Trades}}
  <tr>
    <td>{{.ExecutedAt.Format "2006-01-02 15:04"}}</td>
    <td>{{.Order.Side}}</td>
    <td>{{printf "%.4f" .ExecutedQty}}</td>
    <td>{{printf "%.4f" .ExecutedPrice}}</td>
    <td>{{printf "%.4f" .Fee}}</td>
    <td class="{{if lt .PnL 0.0}}negative{{else}}positive{{end}}">{{printf "%.2f" .PnL}}</td>
    <td>{{.Order.Reason.Reason}}</td>
  </tr>
  {{end}}
</table>
{{end}}

<script>
  const curve = {{.CurveJSON}};
  const benchmark = {{.BenchmarkJSON}};
  const times = curve.map(p => p.time);

  Plotly.newPlot("equity", [{
    x: times,
    y: curve.map(p => p.equity),
    type: "scatter",
    mode: "lines",
    name: "Equity",
    line: { color: "#2c6fbb" }
  }, {
    x: benchmark.map(p => p.time),
    y: benchmark.map(p => p.equity),
    type: "scatter",
    mode: "lines",
    name: "Buy & Hold",
    line: { color: "#8a93a0", dash: "dot" }
  }], { title: "Equity curve vs Buy & Hold", margin: { t: 40 } });

  Plotly.newPlot("drawdown", [{
    x: times,
    y: curve.map(p => -p.drawdown_pct),
    type: "scatter",
    mode: "lines",
    fill: "tozeroy",
    name: "Drawdown",
    line: { color: "#c0392b" }
  }], { title: "Drawdown (%)", margin: { t: 40 } });
</script>
</body>
</html>
`
