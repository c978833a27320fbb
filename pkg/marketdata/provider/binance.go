package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/quantframe-lab/quantframe/internal/types"
	"github.com/quantframe-lab/quantframe/pkg/errors"
	"github.com/quantframe-lab/quantframe/pkg/marketdata/writer"
)

// binancePageSize is the kline page limit of the Binance REST API.
const binancePageSize = 500

// BinanceClient downloads klines from the public Binance REST API. No API
// key is needed for historical market data.
type BinanceClient struct {
	client *binance.Client
	writer writer.MarketDataWriter
}

// NewBinanceClient creates a Binance provider.
func NewBinanceClient() (Provider, error) {
	return &BinanceClient{client: binance.NewClient("", "")}, nil
}

// ConfigWriter implements Provider.
func (c *BinanceClient) ConfigWriter(w writer.MarketDataWriter) {
	c.writer = w
}

// Download implements Provider. It pages through the klines using the
// close time of the last kline as the cursor.
func (c *BinanceClient) Download(ctx context.Context, ticker string, startDate time.Time, endDate time.Time, multiplier int, timespan models.Timespan, onProgress OnDownloadProgress) (string, error) {
	interval, err := binanceInterval(timespan, multiplier)
	if err != nil {
		return "", err
	}

	if c.writer == nil {
		return "", errors.New(errors.ErrCodeDownloadFailed, "writer is not configured")
	}

	if err := c.writer.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to initialize writer", err)
	}

	startMillis := startDate.UnixMilli()
	endMillis := endDate.UnixMilli()
	cursor := startMillis

	for {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		klines, err := c.client.NewKlinesService().
			Symbol(ticker).
			Interval(interval).
			StartTime(cursor).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return "", errors.Wrapf(errors.ErrCodeDownloadFailed, err,
				"failed to fetch %s klines from Binance", ticker)
		}

		if err := c.writeKlines(ticker, klines); err != nil {
			return "", err
		}

		if onProgress != nil {
			onProgress(float64(cursor-startMillis), float64(endMillis-startMillis),
				fmt.Sprintf("Downloading %s from Binance", ticker))
		}

		if len(klines) < binancePageSize {
			break
		}

		cursor = klines[len(klines)-1].CloseTime + 1
		if cursor >= endMillis {
			break
		}
	}

	path, err := c.writer.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeDownloadFailed, "failed to finalize writer", err)
	}

	return path, nil
}

func (c *BinanceClient) writeKlines(ticker string, klines []*binance.Kline) error {
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bar := types.MarketData{
			Symbol: ticker,
			Time:   time.UnixMilli(k.OpenTime),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		}

		if err := c.writer.Write(bar); err != nil {
			return err
		}
	}

	return nil
}

// binanceInterval converts the vendor-neutral timespan and multiplier to a
// Binance interval string (1m, 5m, 1h, 1d, 1w, 1M, ...).
func binanceInterval(timespan models.Timespan, multiplier int) (string, error) {
	switch timespan {
	case models.Minute:
		return fmt.Sprintf("%dm", multiplier), nil
	case models.Hour:
		return fmt.Sprintf("%dh", multiplier), nil
	case models.Day:
		return fmt.Sprintf("%dd", multiplier), nil
	case models.Week:
		if multiplier == 1 {
			return "1w", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported weekly multiplier for Binance: %d", multiplier)
	case models.Month:
		if multiplier == 1 {
			return "1M", nil
		}

		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported monthly multiplier for Binance: %d", multiplier)
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "unsupported timespan for Binance: %s", timespan)
	}
}
