package strategy

import (
	"github.com/quantframe-lab/quantframe/internal/types"
)

// BuyAndHold buys with all available cash on the first bar and never
// trades again. It doubles as the benchmark every other strategy's return
// is compared against.
type BuyAndHold struct {
	entered bool
}

// NewBuyAndHold creates the benchmark strategy.
func NewBuyAndHold() *BuyAndHold {
	return &BuyAndHold{}
}

// Name returns the name of the strategy.
func (s *BuyAndHold) Name() string {
	return StrategyBuyAndHold
}

// DefaultParams returns the strategy's default parameters. BuyAndHold has
// none.
func (s *BuyAndHold) DefaultParams() Params {
	return Params{}
}

// Initialize applies the given parameters.
func (s *BuyAndHold) Initialize(params Params) error {
	s.entered = false

	return nil
}

// OnBar enters once and holds.
func (s *BuyAndHold) OnBar(ctx StrategyContext, data types.MarketData) error {
	if s.entered {
		return nil
	}

	err := enterLong(ctx, data, s.Name(), types.Reason{
		Reason:  types.OrderReasonBenchmark,
		Message: "buy and hold entry",
	})
	if err != nil {
		return err
	}

	s.entered = true

	return nil
}
