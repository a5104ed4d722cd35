package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/quantrail/backtest/internal/engine"
	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/montecarlo"
	"github.com/quantrail/backtest/internal/optimizer"
	"github.com/quantrail/backtest/internal/store"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/internal/version"
	"github.com/quantrail/backtest/internal/walkforward"
)

// parseParamRanges parses repeated --param flags of the form
// "key=start:end:step" into optimizer ranges.
func parseParamRanges(specs []string) ([]optimizer.ParamRange, error) {
	ranges := make([]optimizer.ParamRange, 0, len(specs))

	for _, spec := range specs {
		key, bounds, found := strings.Cut(spec, "=")
		if !found {
			return nil, fmt.Errorf("invalid param range %q, expected key=start:end:step", spec)
		}

		parts := strings.Split(bounds, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid param range %q, expected key=start:end:step", spec)
		}

		values := make([]float64, 3)

		for i, part := range parts {
			value, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q in param range %q", part, spec)
			}

			values[i] = value
		}

		ranges = append(ranges, optimizer.ParamRange{
			Key:   key,
			Start: values[0],
			End:   values[1],
			Step:  values[2],
		})
	}

	return ranges, nil
}

// setupEngine reads the config file, initializes the engine and loads bars
// from the data file.
func setupEngine(configPath, dataPath string) (*engine.Engine, error) {
	config, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	backtester := engine.NewEngine()
	if err := backtester.Initialize(string(config)); err != nil {
		return nil, fmt.Errorf("failed to initialize engine: %w", err)
	}

	if err := backtester.SetDataPath(dataPath); err != nil {
		return nil, fmt.Errorf("failed to load bar data: %w", err)
	}

	return backtester, nil
}

func printResult(result types.BacktestResult) {
	fmt.Printf("Initial capital:  %.2f\n", result.InitialCapital)
	fmt.Printf("Final capital:    %.2f\n", result.FinalCapital)
	fmt.Printf("Total return:     %.2f%%\n", result.TotalReturn*100)
	fmt.Printf("Max drawdown:     %.2f%%\n", result.MaxDrawdown*100)
	fmt.Printf("Sharpe ratio:     %.4f\n", result.SharpeRatio)
	fmt.Printf("Trades:           %d\n", result.TradesCount)
	fmt.Printf("Win rate:         %.2f%%\n", result.WinRate*100)
	fmt.Printf("Profit factor:    %.2f\n", result.ProfitFactor)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := setupEngine(cmd.String("config"), cmd.String("data"))
	if err != nil {
		return err
	}

	bar := progressbar.Default(3, "backtesting")

	callback := engine.OnProgressCallback(func(current, total int) error {
		return bar.Set(current)
	})

	run, err := backtester.Run(optional.Some(callback))
	if err != nil {
		return err
	}

	printResult(run.Result)

	if output := cmd.String("output"); output != "" {
		if err := types.WriteBacktestReport(output, run.Result); err != nil {
			return err
		}

		log.Printf("Report written to %s", output)
	}

	if dbPath := cmd.String("db"); dbPath != "" {
		db, err := store.NewStore(dbPath, logger.NewNopLogger())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.Initialize(); err != nil {
			return err
		}

		runID, err := db.SaveRun(string(backtester.Config().Strategy), run.Result, run.Trades, run.Equity)
		if err != nil {
			return err
		}

		log.Printf("Run saved as %s", runID)
	}

	return nil
}

func optimizeAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := setupEngine(cmd.String("config"), cmd.String("data"))
	if err != nil {
		return err
	}

	ranges, err := parseParamRanges(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}

	opt := optimizer.New(optimizer.Config{
		Workers: int(cmd.Int("workers")),
	}, appLogger)

	config := backtester.Config()

	best, all, err := opt.Optimize(ctx, backtester.Bars(), config.Strategy, config.Params, ranges)
	if err != nil {
		return err
	}

	fmt.Printf("Evaluated %d combinations\n\n", len(all))
	fmt.Printf("Best score: %.4f\n", best.Score)
	fmt.Printf("Best params: short=%d long=%d lookback=%d threshold=%.4f\n\n",
		best.Params.ShortPeriod, best.Params.LongPeriod, best.Params.Lookback, best.Params.Threshold)
	printResult(best.Result)

	top := int(cmd.Int("top"))
	if top > 0 {
		sort.SliceStable(all, func(i, j int) bool { return all[i].Score > all[j].Score })

		if top > len(all) {
			top = len(all)
		}

		fmt.Printf("\nTop %d combinations:\n", top)

		for _, result := range all[:top] {
			fmt.Printf("  score=%.4f short=%d long=%d lookback=%d threshold=%.4f\n",
				result.Score, result.Params.ShortPeriod, result.Params.LongPeriod,
				result.Params.Lookback, result.Params.Threshold)
		}
	}

	return nil
}

func walkforwardAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := setupEngine(cmd.String("config"), cmd.String("data"))
	if err != nil {
		return err
	}

	ranges, err := parseParamRanges(cmd.StringSlice("param"))
	if err != nil {
		return err
	}

	appLogger, err := logger.NewLogger()
	if err != nil {
		return err
	}

	opt := optimizer.New(optimizer.Config{
		Workers: int(cmd.Int("workers")),
	}, appLogger)

	config := backtester.Config()
	analyzer := walkforward.New(opt, appLogger)

	segments, overallReturn, err := analyzer.Run(ctx, backtester.Bars(), config.Strategy,
		config.Params, ranges, int(cmd.Int("train")), int(cmd.Int("test")))
	if err != nil {
		return err
	}

	for i, segment := range segments {
		fmt.Printf("Segment %d: train [%d,%d) test [%d,%d) return %.2f%%\n",
			i, segment.TrainStart, segment.TrainEnd, segment.TestStart, segment.TestEnd,
			segment.Result.TotalReturn*100)
	}

	fmt.Printf("\nOverall out-of-sample return: %.2f%%\n", overallReturn*100)

	return nil
}

func montecarloAction(ctx context.Context, cmd *cli.Command) error {
	backtester, err := setupEngine(cmd.String("config"), cmd.String("data"))
	if err != nil {
		return err
	}

	run, err := backtester.Run(optional.None[engine.OnProgressCallback]())
	if err != nil {
		return err
	}

	var profits []float64

	for _, trade := range run.Trades {
		if trade.Action == types.ActionSell {
			profits = append(profits, trade.Profit)
		}
	}

	if len(profits) == 0 {
		return fmt.Errorf("no closed trades to resample")
	}

	simulator := montecarlo.New()
	if cmd.IsSet("seed") {
		simulator = montecarlo.NewWithSeed(cmd.Int("seed"))
	}

	result := simulator.Simulate(profits, backtester.Config().Params.InitialCapital, int(cmd.Int("runs")))

	fmt.Printf("Runs:           %d\n", result.Runs)
	fmt.Printf("Best case:      %.2f%%\n", result.BestCase*100)
	fmt.Printf("Worst case:     %.2f%%\n", result.WorstCase*100)
	fmt.Printf("Average:        %.2f%%\n", result.Average*100)
	fmt.Printf("Median:         %.2f%%\n", result.Median*100)
	fmt.Printf("95%% confidence: %.2f%%\n", result.Confidence95*100)

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := engine.EmptyConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func runsAction(ctx context.Context, cmd *cli.Command) error {
	db, err := store.NewStore(cmd.String("db"), logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		return err
	}

	if runID := cmd.String("id"); runID != "" {
		run, err := db.LoadRun(runID)
		if err != nil {
			return err
		}

		fmt.Printf("Run %s (%s, saved %s)\n\n", run.ID, run.Strategy, run.CreatedAt.Format("2006-01-02 15:04:05"))
		printResult(run.Result)

		return nil
	}

	summaries, err := db.ListRuns()
	if err != nil {
		return err
	}

	for _, summary := range summaries {
		fmt.Printf("%s  %-14s %s\n", summary.ID, summary.Strategy, summary.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	return nil
}

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Path to the backtest YAML configuration file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "data",
			Aliases:  []string{"d"},
			Usage:    "Path to the CSV bar file",
			Required: true,
		},
	}
}

func optimizerFlags() []cli.Flag {
	return append(configFlags(),
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Parameter range to sweep, as key=start:end:step (repeatable)",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "Number of parallel workers",
			Value: 4,
		},
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "backtest",
		Usage:   "Run trading strategy backtests over daily bar data",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a single backtest",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write a YAML report to this path",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "Save the run into this DuckDB database",
					},
				),
				Action: runAction,
			},
			{
				Name:  "optimize",
				Usage: "Grid search strategy parameters",
				Flags: append(optimizerFlags(),
					&cli.IntFlag{
						Name:  "top",
						Usage: "Print the N best combinations",
						Value: 5,
					},
				),
				Action: optimizeAction,
			},
			{
				Name:  "walkforward",
				Usage: "Walk-forward analysis with per-window re-optimization",
				Flags: append(optimizerFlags(),
					&cli.IntFlag{
						Name:     "train",
						Usage:    "Training window length in bars",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "test",
						Usage:    "Test window length in bars",
						Required: true,
					},
				),
				Action: walkforwardAction,
			},
			{
				Name:  "montecarlo",
				Usage: "Monte Carlo resampling of realized trade profits",
				Flags: append(configFlags(),
					&cli.IntFlag{
						Name:  "runs",
						Usage: "Number of shuffled paths",
						Value: 1000,
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Seed for reproducible resampling",
					},
				),
				Action: montecarloAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
			{
				Name:  "runs",
				Usage: "List or inspect saved runs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "db",
						Usage:    "Path to the DuckDB database",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Usage: "Show one run in detail",
					},
				},
				Action: runsAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
