package commission

// ZeroCommission implements Model with no fees.
type ZeroCommission struct{}

// NewZeroCommission creates a zero commission model.
func NewZeroCommission() Model {
	return &ZeroCommission{}
}

// Calculate returns 0 for any fill.
func (c *ZeroCommission) Calculate(quantity float64, price float64) float64 {
	return 0.0
}
