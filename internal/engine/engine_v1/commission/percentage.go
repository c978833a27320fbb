package commission

// PercentageCommission charges a fixed fraction of the fill notional,
// matching brokers that price commission as basis points of trade value.
type PercentageCommission struct {
	pct float64
}

// NewPercentageCommission creates a percentage commission model.
// pct is a fraction, e.g. 0.002 for 0.2% per fill.
func NewPercentageCommission(pct float64) Model {
	return &PercentageCommission{pct: pct}
}

// Calculate returns pct * quantity * price.
func (c *PercentageCommission) Calculate(quantity float64, price float64) float64 {
	return c.pct * quantity * price
}
