package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantframe-lab/quantframe/internal/config"
	baseengine "github.com/quantframe-lab/quantframe/internal/engine"
	enginev1 "github.com/quantframe-lab/quantframe/internal/engine/engine_v1"
	"github.com/quantframe-lab/quantframe/internal/logger"
)

func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := newLogger(cmd.Bool("verbose"))
	if err != nil {
		return err
	}
	defer log.Sync()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	engine, err := enginev1.NewBacktestEngineV1(log)
	if err != nil {
		return err
	}

	if err := engine.Initialize(cfg); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	callbacks := baseengine.LifecycleCallbacks{
		OnRunStart: func(runID, strategyName, asset string, totalBars int) error {
			bar = progressbar.NewOptions(totalBars,
				progressbar.OptionSetDescription(fmt.Sprintf("%s on %s", strategyName, asset)),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			return nil
		},
		OnProcessData: func(current, total int) error {
			if bar != nil {
				_ = bar.Set(current)
			}

			return nil
		},
		OnRunEnd: func(strategyName, asset, resultFolder string, err error) {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}

			if err != nil {
				fmt.Fprintf(os.Stderr, "FAILED  %s on %s: %v\n", strategyName, asset, err)

				return
			}

			fmt.Printf("done    %s on %s -> %s\n", strategyName, asset, resultFolder)
		},
	}

	results, err := engine.Run(ctx, callbacks)
	if err != nil {
		return err
	}

	failed := 0

	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d runs failed", failed, len(results))
	}

	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := (&config.Config{}).GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func newLogger(verbose bool) (*logger.Logger, error) {
	if verbose {
		return logger.NewDebugLogger()
	}

	return logger.NewLogger()
}

func main() {
	cmd := &cli.Command{
		Name:  "backtest",
		Usage: "Run strategy backtests from a YAML configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "config",
				Aliases:  []string{"c"},
				Usage:    "Path to the run configuration YAML",
				Value:    "config.yaml",
				Required: false,
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: runAction,
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
