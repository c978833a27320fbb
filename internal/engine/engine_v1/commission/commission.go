// Package commission provides the commission models applied to fills.
package commission

// Model computes the commission fee in USD for a fill of the given
// quantity at the given price.
type Model interface {
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	BrokerPercentage Broker = "percentage"
	BrokerZero       Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerPercentage,
	BrokerZero,
}

// GetModel returns the commission model for the configured broker.
// pct is only used by the percentage model.
func GetModel(broker Broker, pct float64) Model {
	switch broker {
	case BrokerPercentage:
		return NewPercentageCommission(pct)
	case BrokerZero:
		return NewZeroCommission()
	default:
		return NewZeroCommission()
	}
}
