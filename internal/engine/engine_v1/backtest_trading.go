package engine

import (
	"math"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantframe-lab/quantframe/internal/engine/engine_v1/commission"
	"github.com/quantframe-lab/quantframe/internal/logger"
	"github.com/quantframe-lab/quantframe/internal/trading"
	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
)

// BacktestTrading simulates a broker against historical bars. It keeps a
// single signed position per run (positive long, negative short), applies
// the commission model on every fill, and checks stop loss and take
// profit levels against each bar's range.
type BacktestTrading struct {
	state      *BacktestState
	logger     *logger.Logger
	cash       float64
	totalFees  float64
	marketData types.MarketData
	position   types.Position
	commission commission.Model
}

// NewBacktestTrading creates a broker with the given starting cash.
func NewBacktestTrading(state *BacktestState, initialCash float64, model commission.Model, log *logger.Logger) *BacktestTrading {
	return &BacktestTrading{
		state:      state,
		logger:     log,
		cash:       initialCash,
		commission: model,
	}
}

var _ trading.TradingSystem = (*BacktestTrading)(nil)

// UpdateCurrentMarketData advances the broker to the next bar and fires
// any stop loss or take profit the bar's range traded through.
func (b *BacktestTrading) UpdateCurrentMarketData(marketData types.MarketData) error {
	b.marketData = marketData

	return b.checkExitLevels(marketData)
}

// checkExitLevels closes the position when the bar trades through its
// stop loss or take profit. The stop loss is checked first; when a bar
// spans both levels the conservative outcome wins. A gap beyond the level
// fills at the bar open.
func (b *BacktestTrading) checkExitLevels(bar types.MarketData) error {
	if !b.position.IsOpen() {
		return nil
	}

	long := b.position.IsLong()

	if b.position.StopLoss.IsSome() {
		stop := b.position.StopLoss.Unwrap()

		if long && bar.Low <= stop {
			return b.exitAt(math.Min(stop, bar.Open), bar, types.OrderReasonStopLoss)
		}

		if !long && bar.High >= stop {
			return b.exitAt(math.Max(stop, bar.Open), bar, types.OrderReasonStopLoss)
		}
	}

	if b.position.TakeProfit.IsSome() {
		target := b.position.TakeProfit.Unwrap()

		if long && bar.High >= target {
			return b.exitAt(math.Max(target, bar.Open), bar, types.OrderReasonTakeProfit)
		}

		if !long && bar.Low <= target {
			return b.exitAt(math.Min(target, bar.Open), bar, types.OrderReasonTakeProfit)
		}
	}

	return nil
}

func (b *BacktestTrading) exitAt(price float64, bar types.MarketData, reason string) error {
	side := types.PurchaseTypeSell
	if b.position.IsShort() {
		side = types.PurchaseTypeBuy
	}

	return b.executeOrder(types.ExecuteOrder{
		ID:           uuid.New().String(),
		Symbol:       b.position.Symbol,
		Side:         side,
		Reason:       types.Reason{Reason: reason},
		Price:        price,
		Quantity:     math.Abs(b.position.Quantity),
		StrategyName: b.position.StrategyName,
	}, bar)
}

// PlaceOrder implements trading.TradingSystem. Orders fill immediately at
// the order's reference price with commission applied.
func (b *BacktestTrading) PlaceOrder(order types.ExecuteOrder) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	if err := order.Validate(); err != nil {
		return err
	}

	return b.executeOrder(order, b.marketData)
}

// PlaceMultipleOrders implements trading.TradingSystem.
func (b *BacktestTrading) PlaceMultipleOrders(orders []types.ExecuteOrder) error {
	for _, order := range orders {
		if err := b.PlaceOrder(order); err != nil {
			return err
		}
	}

	return nil
}

func (b *BacktestTrading) executeOrder(order types.ExecuteOrder, bar types.MarketData) error {
	price := order.Price
	if price <= 0 {
		return errors.Newf(errors.ErrCodeInvalidOrder, "execution price must be positive, got %f", price)
	}

	quantity := order.Quantity
	fee := b.commission.Calculate(quantity, price)

	delta := quantity
	if order.Side == types.PurchaseTypeSell {
		delta = -quantity
	}

	current := b.position.Quantity

	// A single fill never flips the position through zero; reversals
	// close first and then open the other way.
	if current != 0 && current*delta < 0 && math.Abs(delta) > math.Abs(current)+1e-9 {
		return errors.Newf(errors.ErrCodeInvalidOrder,
			"order for %.4f would flip a position of %.4f through zero; close it first", delta, current)
	}

	var pnl float64

	reducing := current != 0 && current*delta < 0

	if reducing {
		closed := math.Min(quantity, math.Abs(current))

		// realized = (exit - entry) * qty for longs, inverted for
		// shorts, net of the closing commission
		entry := decimal.NewFromFloat(b.position.AvgEntryPrice)
		exit := decimal.NewFromFloat(price)
		qty := decimal.NewFromFloat(closed)

		gross := exit.Sub(entry).Mul(qty)
		if current < 0 {
			gross = gross.Neg()
		}

		pnl, _ = gross.Sub(decimal.NewFromFloat(fee)).Float64()

		if current > 0 {
			// selling a long returns proceeds
			b.cash += closed*price - fee
		} else {
			// covering a short costs cash
			b.cash -= closed*price + fee
		}
	} else {
		if order.Side == types.PurchaseTypeBuy {
			cost := quantity*price + fee
			if cost > b.cash+1e-9 {
				return errors.Newf(errors.ErrCodeInsufficientBuyingPower,
					"order cost %.2f exceeds available cash %.2f", cost, b.cash)
			}

			b.cash -= cost
		} else {
			// opening or extending a short credits the proceeds
			b.cash += quantity*price - fee
		}

		// weighted average entry across increases
		total := math.Abs(current) + quantity
		b.position.AvgEntryPrice = (math.Abs(current)*b.position.AvgEntryPrice + quantity*price) / total

		if current == 0 {
			b.position.Symbol = order.Symbol
			b.position.OpenTimestamp = bar.Time
			b.position.StrategyName = order.StrategyName
			b.position.StopLoss = order.StopLoss
			b.position.TakeProfit = order.TakeProfit
		}
	}

	b.position.Quantity = current + delta
	if b.position.Quantity == 0 {
		b.position = types.Position{Symbol: order.Symbol}
	}

	b.totalFees += fee

	executed := types.Order{
		OrderID:      order.ID,
		Symbol:       order.Symbol,
		Side:         order.Side,
		Quantity:     quantity,
		Price:        price,
		Timestamp:    bar.Time,
		Reason:       order.Reason,
		StrategyName: order.StrategyName,
		Fee:          fee,
	}

	if _, err := b.state.RecordExecution(executed, pnl, reducing); err != nil {
		return err
	}

	b.logger.Debug("Executed order",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.Float64("fee", fee),
		zap.Float64("pnl", pnl),
	)

	return nil
}

// GetPosition implements trading.TradingSystem. A flat symbol returns a
// zero-quantity position.
func (b *BacktestTrading) GetPosition(symbol string) (types.Position, error) {
	if b.position.Symbol == symbol {
		return b.position, nil
	}

	return types.Position{Symbol: symbol}, nil
}

// GetPositions implements trading.TradingSystem.
func (b *BacktestTrading) GetPositions() ([]types.Position, error) {
	if b.position.IsOpen() {
		return []types.Position{b.position}, nil
	}

	return nil, nil
}

// ClosePosition implements trading.TradingSystem.
func (b *BacktestTrading) ClosePosition(symbol string, price float64, reason types.Reason) error {
	position, err := b.GetPosition(symbol)
	if err != nil {
		return err
	}

	if !position.IsOpen() {
		return nil
	}

	side := types.PurchaseTypeSell
	if position.IsShort() {
		side = types.PurchaseTypeBuy
	}

	return b.executeOrder(types.ExecuteOrder{
		ID:           uuid.New().String(),
		Symbol:       symbol,
		Side:         side,
		Reason:       reason,
		Price:        price,
		Quantity:     math.Abs(position.Quantity),
		StrategyName: position.StrategyName,
	}, b.marketData)
}

// GetAccountInfo implements trading.TradingSystem. Equity marks the open
// position to the current bar close.
func (b *BacktestTrading) GetAccountInfo() (types.AccountInfo, error) {
	equity := b.cash + b.position.Quantity*b.marketData.Close

	return types.AccountInfo{
		Cash:      b.cash,
		Equity:    equity,
		TotalFees: b.totalFees,
	}, nil
}

// GetTrades implements trading.TradingSystem.
func (b *BacktestTrading) GetTrades() ([]types.Trade, error) {
	return b.state.GetAllTrades()
}

// GetMaxBuyQuantity implements trading.TradingSystem.
func (b *BacktestTrading) GetMaxBuyQuantity(symbol string, price float64) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidOrder, "price must be positive, got %f", price)
	}

	if b.position.IsShort() {
		return math.Abs(b.position.Quantity), nil
	}

	return b.affordableQuantity(price), nil
}

// GetMaxSellQuantity implements trading.TradingSystem. For a long position
// this is the held quantity; when flat it is the short capacity backed by
// the available cash.
func (b *BacktestTrading) GetMaxSellQuantity(symbol string, price float64) (float64, error) {
	if price <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidOrder, "price must be positive, got %f", price)
	}

	if b.position.IsLong() {
		return b.position.Quantity, nil
	}

	if b.position.IsShort() {
		return 0, nil
	}

	return b.affordableQuantity(price), nil
}

// affordableQuantity solves for the quantity whose notional plus
// commission fits in the available cash.
func (b *BacktestTrading) affordableQuantity(price float64) float64 {
	if b.cash <= 0 {
		return 0
	}

	estimate := b.cash / price
	fee := b.commission.Calculate(estimate, price)

	quantity := (b.cash - fee) / price
	if quantity < 0 {
		return 0
	}

	return quantity
}
