// Package datasource provides read access to historical OHLCV series.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantframe-lab/quantframe/internal/types"
)

// DataSource is the read interface the engine, indicators, and strategies
// use to consume one asset's price history.
type DataSource interface {
	// Initialize loads the CSV file at path as the series for symbol.
	// Column names are matched case-insensitively; rows with missing
	// values are dropped and the series is ordered by time.
	Initialize(path string, symbol string) error
	// ReadAll yields every bar in time order, optionally bounded.
	ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.MarketData, error) bool)
	// GetRange returns the bars between start and end inclusive.
	GetRange(start time.Time, end time.Time) ([]types.MarketData, error)
	// GetPreviousNumberOfDataPoints returns up to count bars ending at
	// currentTime inclusive, in time order. Indicators use this for their
	// lookback windows.
	GetPreviousNumberOfDataPoints(currentTime time.Time, symbol string, count int) ([]types.MarketData, error)
	// ReadLastData returns the most recent bar for symbol.
	ReadLastData(symbol string) (types.MarketData, error)
	// ReadFirstData returns the oldest bar for symbol.
	ReadFirstData(symbol string) (types.MarketData, error)
	// Count returns the number of bars, optionally bounded.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Symbol returns the symbol of the loaded series.
	Symbol() string
	// Close closes the data source and releases any resources.
	Close() error
}
