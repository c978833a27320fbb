// Package writer persists downloaded market data into the CSV layout the
// backtest data directory expects: one <SYMBOL>.csv per asset with
// time/open/high/low/close/volume columns ordered by time.
package writer

import (
	"github.com/quantframe-lab/quantframe/internal/types"
)

// MarketDataWriter defines the interface for writing market data to a
// destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single market data point.
	Write(data types.MarketData) error
	// Finalize completes the writing process and returns the output path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
