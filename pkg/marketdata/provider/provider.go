// Package provider downloads historical bars from market data vendors
// into the writer-backed CSV data directory.
package provider

import (
	"context"
	"time"

	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantframe-lab/quantframe/pkg/errors"
	"github.com/quantframe-lab/quantframe/pkg/marketdata/writer"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// OnDownloadProgress reports download progress. current and total are in
// the provider's own unit (days or milliseconds of range covered).
type OnDownloadProgress = func(current float64, total float64, message string)

// Provider downloads historical bars for one ticker.
type Provider interface {
	// ConfigWriter configures the writer the downloaded bars go to.
	ConfigWriter(writer writer.MarketDataWriter)
	// Download fetches bars for ticker between startDate and endDate at the
	// given resolution and writes them through the configured writer. It
	// returns the output path reported by the writer. The context cancels
	// the download.
	Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (path string, err error)
}

// NewMarketDataProvider creates a market data provider of the given type.
// The polygon provider requires an API key as config.
func NewMarketDataProvider(providerType ProviderType, config any) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		apiKey, ok := config.(string)
		if !ok || apiKey == "" {
			return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
		}

		return NewPolygonClient(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider: %s", providerType)
	}
}

// ParseTimespan maps an interval keyword onto the vendor-neutral timespan.
func ParseTimespan(name string) (models.Timespan, error) {
	switch name {
	case "minute":
		return models.Minute, nil
	case "hour":
		return models.Hour, nil
	case "day":
		return models.Day, nil
	case "week":
		return models.Week, nil
	case "month":
		return models.Month, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported timespan: %s", name)
	}
}
