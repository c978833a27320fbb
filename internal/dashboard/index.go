package dashboard

// indexHTML is the single-page comparison UI. It talks to the JSON API and
// renders overlaid equity curves with plotly.
const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>quantframe dashboard</title>
<script src="https://cdn.plot.ly/plotly-2.35.2.min.js"></script>
<style>
  body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem; color: #1f2430; }
  h1 { font-size: 1.4rem; }
  .controls { display: flex; gap: 2rem; margin-bottom: 1rem; }
  .controls label { display: block; font-size: 0.8rem; color: #5c6570; margin-bottom: 0.25rem; }
  select { min-width: 14rem; font-size: 0.9rem; }
  table { border-collapse: collapse; margin-top: 1rem; }
  th, td { border: 1px solid #d7dbe0; padding: 0.35rem 0.8rem; font-size: 0.85rem; text-align: right; }
  th { background: #f3f5f7; }
  td:first-child, th:first-child { text-align: left; }
  #chart { width: 100%; height: 480px; }
  .empty { color: #5c6570; margin: 2rem 0; }
</style>
</head>
<body>
<h1>Backtest results</h1>

<div class="controls">
  <div>
    <label for="asset">Asset</label>
    <select id="asset"></select>
  </div>
  <div>
    <label for="strategies">Strategies (multi-select)</label>
    <select id="strategies" multiple size="6"></select>
  </div>
</div>

<div id="chart"></div>
<div id="stats"></div>

<script>
let results = [];

const assetSelect = document.getElementById("asset");
const strategySelect = document.getElementById("strategies");

async function load() {
  const response = await fetch("/api/results");
  results = await response.json();

  if (results.length === 0) {
    document.getElementById("chart").innerHTML =
      '<p class="empty">No results found. Run a backtest first.</p>';
    return;
  }

  const assets = [...new Set(results.map(r => r.asset))].sort();
  assetSelect.innerHTML = assets
    .map(a => '<option value="' + a + '">' + a + '</option>').join("");

  assetSelect.addEventListener("change", onAssetChange);
  strategySelect.addEventListener("change", render);

  onAssetChange();
}

function onAssetChange() {
  const asset = assetSelect.value;
  const strategies = results
    .filter(r => r.asset === asset)
    .map(r => r.strategy)
    .sort();

  strategySelect.innerHTML = strategies
    .map(s => '<option value="' + s + '" selected>' + s + '</option>').join("");

  render();
}

async function render() {
  const asset = assetSelect.value;
  const selected = [...strategySelect.selectedOptions].map(o => o.value);

  const traces = [];
  for (const strategy of selected) {
    const response = await fetch(
      "/api/equity/" + encodeURIComponent(strategy) + "/" + encodeURIComponent(asset));
    if (!response.ok) continue;

    const curve = await response.json();
    traces.push({
      x: curve.map(p => p.time),
      y: curve.map(p => p.equity),
      mode: "lines",
      name: strategy
    });
  }

  Plotly.newPlot("chart", traces, {
    title: "Equity curves on " + asset,
    yaxis: { title: "Equity" },
    margin: { t: 40 }
  });

  renderStats(asset, selected);
}

function renderStats(asset, selected) {
  const rows = results.filter(r => r.asset === asset && selected.includes(r.strategy));

  const fmt = (v) => typeof v === "number" ? v.toFixed(2) : v;

  const header = "<tr><th>Strategy</th><th>Return %</th><th>Buy &amp; Hold %</th>" +
    "<th>Max DD %</th><th>Sharpe</th><th>Trades</th><th>Win rate %</th></tr>";

  const body = rows.map(r =>
    "<tr><td>" + r.strategy + "</td>" +
    "<td>" + fmt(r.stats.return_pct) + "</td>" +
    "<td>" + fmt(r.stats.buy_hold_return_pct) + "</td>" +
    "<td>" + fmt(r.stats.max_drawdown_pct) + "</td>" +
    "<td>" + fmt(r.stats.sharpe_ratio) + "</td>" +
    "<td>" + r.stats.num_trades + "</td>" +
    "<td>" + fmt(r.stats.win_rate_pct) + "</td></tr>").join("");

  document.getElementById("stats").innerHTML = "<table>" + header + body + "</table>";
}

load();
</script>
</body>
</html>
`
