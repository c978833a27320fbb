// Package trading defines the order placement interface strategies trade
// through. The backtest broker implements it against simulated fills.
package trading

import "github.com/quantframe-lab/quantframe/internal/types"

type TradingSystem interface {
	// PlaceOrder places a single market order. Orders execute at the
	// order's reference price with commission applied.
	PlaceOrder(order types.ExecuteOrder) error
	// PlaceMultipleOrders places multiple orders in sequence.
	PlaceMultipleOrders(orders []types.ExecuteOrder) error
	// GetPositions returns all open positions.
	GetPositions() ([]types.Position, error)
	// GetPosition returns the current position for a symbol. A flat
	// symbol returns a zero-quantity position, not an error.
	GetPosition(symbol string) (types.Position, error)
	// ClosePosition flattens the position for a symbol at the given price.
	ClosePosition(symbol string, price float64, reason types.Reason) error
	// GetAccountInfo returns the current account state.
	GetAccountInfo() (types.AccountInfo, error)
	// GetTrades returns the executed trades so far.
	GetTrades() ([]types.Trade, error)
	// GetMaxBuyQuantity returns the maximum quantity that can be bought
	// at the given price, accounting for commission.
	GetMaxBuyQuantity(symbol string, price float64) (float64, error)
	// GetMaxSellQuantity returns the maximum quantity that can be sold
	// short at the given price, accounting for commission.
	GetMaxSellQuantity(symbol string, price float64) (float64, error)
}
