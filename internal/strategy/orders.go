package strategy

import (
	"github.com/google/uuid"

	"github.com/quantframe-lab/quantframe/internal/types"
)

// enterLong opens a long position with all available cash at the bar close.
// A zero max quantity (no buying power) is not an error; the order is
// simply not placed.
func enterLong(ctx StrategyContext, data types.MarketData, strategyName string, reason types.Reason, opts ...func(*types.ExecuteOrder)) error {
	quantity, err := ctx.TradingSystem.GetMaxBuyQuantity(data.Symbol, data.Close)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return nil
	}

	order := types.ExecuteOrder{
		ID:           uuid.New().String(),
		Symbol:       data.Symbol,
		Side:         types.PurchaseTypeBuy,
		Reason:       reason,
		Price:        data.Close,
		Quantity:     quantity,
		StrategyName: strategyName,
	}

	for _, opt := range opts {
		opt(&order)
	}

	return ctx.TradingSystem.PlaceOrder(order)
}

// enterShort opens a short position at the bar close.
func enterShort(ctx StrategyContext, data types.MarketData, strategyName string, reason types.Reason, opts ...func(*types.ExecuteOrder)) error {
	quantity, err := ctx.TradingSystem.GetMaxSellQuantity(data.Symbol, data.Close)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		return nil
	}

	order := types.ExecuteOrder{
		ID:           uuid.New().String(),
		Symbol:       data.Symbol,
		Side:         types.PurchaseTypeSell,
		Reason:       reason,
		Price:        data.Close,
		Quantity:     quantity,
		StrategyName: strategyName,
	}

	for _, opt := range opts {
		opt(&order)
	}

	return ctx.TradingSystem.PlaceOrder(order)
}

// closeIfOpen flattens any open position for the bar's symbol.
func closeIfOpen(ctx StrategyContext, data types.MarketData, message string) error {
	position, err := ctx.TradingSystem.GetPosition(data.Symbol)
	if err != nil {
		return err
	}

	if !position.IsOpen() {
		return nil
	}

	return ctx.TradingSystem.ClosePosition(data.Symbol, data.Close, types.Reason{
		Reason:  types.OrderReasonStrategy,
		Message: message,
	})
}
