package types

// AccountInfo is a snapshot of the trading account at a point in time.
type AccountInfo struct {
	// Cash is the free balance not tied up in positions.
	Cash float64 `yaml:"cash" json:"cash"`
	// Equity is cash plus the mark-to-market value of open positions.
	Equity float64 `yaml:"equity" json:"equity"`
	// TotalFees is the cumulative commission paid so far.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`
}
