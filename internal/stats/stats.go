// Package stats computes summary performance metrics from an equity curve
// and the trades that produced it.
package stats

import (
	"math"
	"time"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// tradingDaysPerYear is the annualization base used when the bar interval
// cannot be inferred from the curve itself.
const tradingDaysPerYear = 252.0

// Input bundles everything one run produced.
type Input struct {
	Strategy    string
	Asset       string
	Params      map[string]float64
	InitialCash float64
	// Curve is the per-bar equity, oldest first. DrawdownPct is filled
	// in by Compute.
	Curve []types.EquityPoint
	// Trades are the executed fills. Fills flagged IsClosing reduced a
	// position and carry the realized PnL of the round trip.
	Trades []types.Trade
	// FirstClose and LastClose bound the Buy & Hold benchmark.
	FirstClose float64
	LastClose  float64
	TotalFees  float64
}

// Compute fills the drawdown column of the curve and derives the summary
// statistics for one run.
func Compute(in Input) (types.SummaryStats, error) {
	if len(in.Curve) < 2 {
		return types.SummaryStats{}, errors.Newf(errors.ErrCodeInsufficientData,
			"equity curve needs at least 2 points, got %d", len(in.Curve))
	}

	if in.InitialCash <= 0 {
		return types.SummaryStats{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"initial cash must be positive, got %f", in.InitialCash)
	}

	final := in.Curve[len(in.Curve)-1].Equity
	start := in.Curve[0].Time
	end := in.Curve[len(in.Curve)-1].Time

	maxDrawdown := fillDrawdowns(in.Curve)

	returns := barReturns(in.Curve)
	periodsPerYear := annualPeriods(start, end, len(returns))

	mean, std := meanStd(returns)

	annualReturn := cagr(in.InitialCash, final, start, end)

	annualVolatility := std * math.Sqrt(periodsPerYear)

	sharpe := 0.0
	if std > 0 {
		sharpe = mean / std * math.Sqrt(periodsPerYear)
	}

	calmar := 0.0
	if maxDrawdown > 0 {
		calmar = annualReturn / maxDrawdown
	}

	buyHold := 0.0
	if in.FirstClose > 0 {
		buyHold = (in.LastClose/in.FirstClose - 1) * 100
	}

	closed := closingTrades(in.Trades)

	wins := 0
	best := math.Inf(-1)
	worst := math.Inf(1)

	for _, trade := range closed {
		if trade.PnL > 0 {
			wins++
		}

		best = math.Max(best, trade.PnL)
		worst = math.Min(worst, trade.PnL)
	}

	winRate := 0.0
	if len(closed) > 0 {
		winRate = float64(wins) / float64(len(closed)) * 100
	} else {
		best = 0
		worst = 0
	}

	return types.SummaryStats{
		Strategy:            in.Strategy,
		Asset:               in.Asset,
		Params:              in.Params,
		Start:               start,
		End:                 end,
		Bars:                len(in.Curve),
		InitialCash:         in.InitialCash,
		FinalEquity:         final,
		ReturnPct:           (final/in.InitialCash - 1) * 100,
		BuyHoldReturnPct:    buyHold,
		AnnualReturnPct:     annualReturn * 100,
		AnnualVolatilityPct: annualVolatility * 100,
		SharpeRatio:         sharpe,
		CalmarRatio:         calmar,
		MaxDrawdownPct:      maxDrawdown * 100,
		NumTrades:           len(closed),
		WinRatePct:          winRate,
		BestTradePnL:        best,
		WorstTradePnL:       worst,
		TotalFees:           in.TotalFees,
	}, nil
}

// fillDrawdowns sets DrawdownPct on every point and returns the maximum
// drawdown as a fraction.
func fillDrawdowns(curve []types.EquityPoint) float64 {
	peak := curve[0].Equity
	maxDrawdown := 0.0

	for i := range curve {
		if curve[i].Equity > peak {
			peak = curve[i].Equity
		}

		drawdown := 0.0
		if peak > 0 {
			drawdown = (peak - curve[i].Equity) / peak
		}

		curve[i].DrawdownPct = drawdown * 100
		maxDrawdown = math.Max(maxDrawdown, drawdown)
	}

	return maxDrawdown
}

// barReturns computes the per-bar simple returns of the curve.
func barReturns(curve []types.EquityPoint) []float64 {
	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev <= 0 {
			returns = append(returns, 0)

			continue
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	return returns
}

// annualPeriods estimates how many bars make up a year. When the curve
// spans less than a day the daily-bar default applies.
func annualPeriods(start, end time.Time, bars int) float64 {
	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 1.0/365.25 || bars == 0 {
		return tradingDaysPerYear
	}

	return float64(bars) / years
}

// cagr is the compound annual growth rate between the initial cash and
// the final equity.
func cagr(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / (24 * 365.25)
	if years <= 0 || initial <= 0 || final <= 0 {
		return 0
	}

	return math.Pow(final/initial, 1/years) - 1
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}

	variance /= float64(len(values) - 1)

	return mean, math.Sqrt(variance)
}

// closingTrades selects the fills that reduced a position. The broker
// flags them on execution, so a break-even exit still counts as a trade.
func closingTrades(trades []types.Trade) []types.Trade {
	var closed []types.Trade

	for _, trade := range trades {
		if trade.IsClosing {
			closed = append(closed, trade)
		}
	}

	return closed
}
