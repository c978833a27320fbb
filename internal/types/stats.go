package types

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// SummaryStats is the flat performance record written to
// summary_stats.json for each (strategy, asset) pair. The dashboard and the
// HTML report both render from this structure.
type SummaryStats struct {
	// RunID is the unique identifier for this backtest run.
	RunID string `json:"run_id" yaml:"run_id"`
	// GeneratedAt is when this backtest run was executed.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	// EngineVersion is the engine version that produced this record.
	EngineVersion string `json:"engine_version" yaml:"engine_version"`

	Strategy string             `json:"strategy" yaml:"strategy"`
	Asset    string             `json:"asset" yaml:"asset"`
	Params   map[string]float64 `json:"params,omitempty" yaml:"params,omitempty"`

	// Start and End bound the simulated period.
	Start time.Time `json:"start" yaml:"start"`
	End   time.Time `json:"end" yaml:"end"`
	Bars  int       `json:"bars" yaml:"bars"`

	InitialCash float64 `json:"initial_cash" yaml:"initial_cash"`
	FinalEquity float64 `json:"final_equity" yaml:"final_equity"`

	ReturnPct           float64 `json:"return_pct" yaml:"return_pct"`
	BuyHoldReturnPct    float64 `json:"buy_hold_return_pct" yaml:"buy_hold_return_pct"`
	AnnualReturnPct     float64 `json:"annual_return_pct" yaml:"annual_return_pct"`
	AnnualVolatilityPct float64 `json:"annual_volatility_pct" yaml:"annual_volatility_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio" yaml:"sharpe_ratio"`
	CalmarRatio         float64 `json:"calmar_ratio" yaml:"calmar_ratio"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`

	NumTrades     int     `json:"num_trades" yaml:"num_trades"`
	WinRatePct    float64 `json:"win_rate_pct" yaml:"win_rate_pct"`
	BestTradePnL  float64 `json:"best_trade_pnl" yaml:"best_trade_pnl"`
	WorstTradePnL float64 `json:"worst_trade_pnl" yaml:"worst_trade_pnl"`
	TotalFees     float64 `json:"total_fees" yaml:"total_fees"`
}

// EquityPoint is a single sample of the portfolio value.
type EquityPoint struct {
	Time        time.Time `json:"time" yaml:"time"`
	Equity      float64   `json:"equity" yaml:"equity"`
	DrawdownPct float64   `json:"drawdown_pct" yaml:"drawdown_pct"`
}

// EquityCurve is the per-bar series of portfolio values for a run.
type EquityCurve []EquityPoint

// WriteSummaryStats writes stats as indented JSON to path.
func WriteSummaryStats(path string, stats SummaryStats) error {
	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary stats: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write summary stats: %w", err)
	}

	return nil
}

// ReadSummaryStats reads a summary_stats.json file.
func ReadSummaryStats(path string) (SummaryStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SummaryStats{}, fmt.Errorf("failed to read summary stats: %w", err)
	}

	var stats SummaryStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return SummaryStats{}, fmt.Errorf("failed to parse summary stats: %w", err)
	}

	return stats, nil
}

// WriteEquityCurve writes the equity curve as JSON to path.
func WriteEquityCurve(path string, curve EquityCurve) error {
	data, err := json.Marshal(curve)
	if err != nil {
		return fmt.Errorf("failed to marshal equity curve: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write equity curve: %w", err)
	}

	return nil
}

// ReadEquityCurve reads an equity_curve.json file.
func ReadEquityCurve(path string) (EquityCurve, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read equity curve: %w", err)
	}

	var curve EquityCurve
	if err := json.Unmarshal(data, &curve); err != nil {
		return nil, fmt.Errorf("failed to parse equity curve: %w", err)
	}

	return curve, nil
}
