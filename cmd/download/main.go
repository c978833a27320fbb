package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantframe-lab/quantframe/pkg/marketdata/provider"
	"github.com/quantframe-lab/quantframe/pkg/marketdata/writer"
)

func downloadAction(ctx context.Context, cmd *cli.Command) error {
	ticker := cmd.String("ticker")
	startDate := cmd.Timestamp("start")
	endDate := cmd.Timestamp("end")
	providerType := provider.ProviderType(cmd.String("provider"))
	dataDir := cmd.String("data")

	timespan, err := provider.ParseTimespan(cmd.String("timespan"))
	if err != nil {
		return err
	}

	client, err := provider.NewMarketDataProvider(providerType, os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return err
	}

	client.ConfigWriter(writer.NewCSVWriter(dataDir, ticker))

	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", ticker)),
		progressbar.OptionClearOnFinish(),
	)

	onProgress := func(current, total float64, _ string) {
		if total > 0 {
			_ = bar.Set(int(current / total * 100))
		}
	}

	path, err := client.Download(ctx, ticker, startDate, endDate,
		int(cmd.Int("multiplier")), timespan, onProgress)
	if err != nil {
		return err
	}

	_ = bar.Finish()
	fmt.Printf("Downloaded %s to %s\n", ticker, path)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "download",
		Usage: "Download historical bars into the backtest data directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Ticker symbol (e.g. AAPL, BTCUSDT)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider (%s or %s)", provider.ProviderPolygon, provider.ProviderBinance),
				Value:   string(provider.ProviderBinance),
			},
			&cli.StringFlag{
				Name:  "timespan",
				Usage: "Bar timespan: minute, hour, day, week, month",
				Value: "day",
			},
			&cli.IntFlag{
				Name:    "multiplier",
				Aliases: []string{"m"},
				Usage:   "Timespan multiplier (e.g. 5 with minute for 5m bars)",
				Value:   1,
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
