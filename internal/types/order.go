package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/quantframe-lab/quantframe/pkg/errors"
)

type PurchaseType string

type PositionType string

const (
	PurchaseTypeBuy  PurchaseType = "BUY"
	PurchaseTypeSell PurchaseType = "SELL"
)

const (
	PositionTypeLong  PositionType = "LONG"
	PositionTypeShort PositionType = "SHORT"
)

const (
	OrderReasonStrategy   string = "strategy"
	OrderReasonStopLoss   string = "stop_loss"
	OrderReasonTakeProfit string = "take_profit"
	OrderReasonBenchmark  string = "benchmark"
)

// Reason records why an order was placed.
type Reason struct {
	Reason  string `yaml:"reason" json:"reason" validate:"required"`
	Message string `yaml:"message" json:"message"`
}

// ExecuteOrder is a market order request submitted by a strategy.
// Price is the reference price of the current bar; execution happens at
// this price with commission applied by the broker.
type ExecuteOrder struct {
	ID           string       `yaml:"id" json:"id"`
	Symbol       string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side         PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Reason       Reason       `yaml:"reason" json:"reason" validate:"required"`
	Price        float64      `yaml:"price" json:"price" validate:"required,gt=0"`
	Quantity     float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" validate:"required"`
	// StopLoss closes the resulting position when price trades through it.
	StopLoss optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	// TakeProfit closes the resulting position when price trades through it.
	TakeProfit optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
}

// Validate validates the ExecuteOrder struct.
func (eo *ExecuteOrder) Validate() error {
	validate := validator.New()
	if err := validate.Struct(eo); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid execute order", err)
	}

	return nil
}

// Order is an accepted order as recorded by the backtest state.
type Order struct {
	OrderID      string       `yaml:"order_id" json:"order_id"`
	Symbol       string       `yaml:"symbol" json:"symbol" validate:"required"`
	Side         PurchaseType `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity     float64      `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Price        float64      `yaml:"price" json:"price" validate:"required,gt=0"`
	Timestamp    time.Time    `yaml:"timestamp" json:"timestamp" validate:"required"`
	Reason       Reason       `yaml:"reason" json:"reason"`
	StrategyName string       `yaml:"strategy_name" json:"strategy_name" validate:"required"`
	Fee          float64      `yaml:"fee" json:"fee" validate:"gte=0"`
}

// Trade is an executed order. IsClosing marks fills that reduced or closed
// an existing position; only those carry a realized PnL, net of commission
// on the closing leg.
type Trade struct {
	Order         Order     `yaml:"order" json:"order"`
	ExecutedAt    time.Time `yaml:"executed_at" json:"executed_at"`
	ExecutedQty   float64   `yaml:"executed_qty" json:"executed_qty"`
	ExecutedPrice float64   `yaml:"executed_price" json:"executed_price"`
	Fee           float64   `yaml:"fee" json:"fee"`
	PnL           float64   `yaml:"pnl" json:"pnl"`
	IsClosing     bool      `yaml:"is_closing" json:"is_closing"`
}

// Position is an open holding for a symbol. Quantity is signed: positive
// for long positions, negative for short positions.
type Position struct {
	Symbol        string                   `yaml:"symbol" json:"symbol"`
	Quantity      float64                  `yaml:"quantity" json:"quantity"`
	AvgEntryPrice float64                  `yaml:"avg_entry_price" json:"avg_entry_price"`
	OpenTimestamp time.Time                `yaml:"open_timestamp" json:"open_timestamp"`
	StrategyName  string                   `yaml:"strategy_name" json:"strategy_name"`
	StopLoss      optional.Option[float64] `yaml:"stop_loss" json:"stop_loss"`
	TakeProfit    optional.Option[float64] `yaml:"take_profit" json:"take_profit"`
}

// IsOpen reports whether the position holds any quantity.
func (p Position) IsOpen() bool {
	return p.Quantity != 0
}

// IsLong reports whether the position is long.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// IsShort reports whether the position is short.
func (p Position) IsShort() bool {
	return p.Quantity < 0
}
