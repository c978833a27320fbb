package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
	"github.com/quantframe-lab/quantframe/pkg/marketdata/writer"
)

// PolygonClient downloads aggregates from the Polygon.io REST API.
type PolygonClient struct {
	client *polygon.Client
	writer writer.MarketDataWriter
}

// NewPolygonClient creates a Polygon provider with the given API key.
func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon API key is empty")
	}

	return &PolygonClient{client: polygon.New(apiKey)}, nil
}

// ConfigWriter implements Provider.
func (c *PolygonClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider. It pages through the aggregates day by day
// so progress maps onto calendar days.
func (c *PolygonClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	if c.writer == nil {
		return "", errors.New(errors.ErrCodeDownloadFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to initialize writer", err)
	}

	totalDays := endDate.Sub(startDate).Hours() / 24
	day := 0

	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		params := models.ListAggsParams{
			Ticker:     ticker,
			From:       models.Millis(date),
			To:         models.Millis(date.Add(24*time.Hour - time.Second)),
			Multiplier: multiplier,
			Timespan:   timespan,
		}

		iter := c.client.ListAggs(ctx, &params)

		for iter.Next() {
			agg := iter.Item()

			bar := types.MarketData{
				Symbol: ticker,
				Time:   time.Time(agg.Timestamp),
				Open:   agg.Open,
				High:   agg.High,
				Low:    agg.Low,
				Close:  agg.Close,
				Volume: agg.Volume,
			}

			if err := c.writer.Write(bar); err != nil {
				return "", err
			}
		}

		if err := iter.Err(); err != nil {
			return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err,
				"failed to list aggregates for %s on %s", ticker, date.Format("2006-01-02"))
		}

		day++

		if onProgress != nil {
			onProgress(float64(day), totalDays, fmt.Sprintf("Downloading %s from Polygon", ticker))
		}
	}

	path, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to finalize writer", err)
	}

	return path, nil
}
