// Package optimizer searches a strategy parameter grid for the combination
// with the best composite score, either sequentially or distributed across
// share-nothing workers.
package optimizer

import (
	"context"
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/quantrail/backtest/internal/analyzer"
	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/simulator"
	"github.com/quantrail/backtest/internal/stop"
	"github.com/quantrail/backtest/internal/strategy"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
	"go.uber.org/zap"
)

const (
	defaultWorkers = 4
	// defaultParallelThreshold is the combination count below which the
	// search runs sequentially to avoid worker overhead.
	defaultParallelThreshold = 10
)

// Config tunes the optimizer's dispatch behavior.
type Config struct {
	// Workers is the number of parallel worker units. Defaults to 4.
	Workers int `yaml:"workers" json:"workers" validate:"gte=0"`
	// ParallelThreshold is the minimum combination count that triggers
	// parallel dispatch. Defaults to 10.
	ParallelThreshold int `yaml:"parallel_threshold" json:"parallel_threshold" validate:"gte=0"`
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}

	if c.ParallelThreshold <= 0 {
		c.ParallelThreshold = defaultParallelThreshold
	}

	return c
}

// Result is the evaluation of one parameter combination.
type Result struct {
	Params types.StrategyParams `yaml:"params" json:"params"`
	Result types.BacktestResult `yaml:"result" json:"result"`
	// Score is sharpeRatio * (1 - maxDrawdown).
	Score float64 `yaml:"score" json:"score"`
}

// Optimizer runs the signal -> simulate -> analyze pipeline over every
// combination of a parameter grid and selects the best score. Ties are
// broken by first-seen grid order; the sequential and parallel paths select
// the same winner on the same grid.
type Optimizer struct {
	config Config
	log    *logger.Logger
}

// New creates an Optimizer. A nil logger disables logging.
func New(config Config, log *logger.Logger) *Optimizer {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Optimizer{
		config: config.withDefaults(),
		log:    log,
	}
}

// Optimize evaluates the full grid and returns the best combination plus
// every evaluated result. With parallel dispatch the relative order of
// allResults is chunk-major and not guaranteed to match grid order.
//
// A worker failure fails the whole call: a silently dropped chunk would bias
// the selected best. The coordinator-level join honors ctx cancellation.
func (o *Optimizer) Optimize(ctx context.Context, bars []types.Bar, name strategy.Name, baseParams types.StrategyParams, ranges []ParamRange) (Result, []Result, error) {
	strat, err := strategy.FromName(name)
	if err != nil {
		return Result{}, nil, err
	}

	grid, err := GenerateGrid(baseParams, ranges)
	if err != nil {
		return Result{}, nil, err
	}

	o.log.Info("starting optimization",
		zap.String("strategy", string(name)),
		zap.Int("combinations", len(grid)),
	)

	if len(grid) < o.config.ParallelThreshold {
		return o.optimizeSequential(ctx, bars, strat, grid)
	}

	return o.optimizeParallel(ctx, bars, strat, grid)
}

func (o *Optimizer) optimizeSequential(ctx context.Context, bars []types.Bar, strat strategy.Strategy, grid []types.StrategyParams) (Result, []Result, error) {
	results := make([]Result, 0, len(grid))

	best := Result{Score: 0}
	hasBest := false

	for _, params := range grid {
		if err := ctx.Err(); err != nil {
			return Result{}, nil, errors.Wrap(errors.ErrCodeOptimizeAbort, "optimization canceled", err)
		}

		result := evaluate(bars, strat, params)
		results = append(results, result)

		if !hasBest || result.Score > best.Score {
			best = result
			hasBest = true
		}
	}

	return best, results, nil
}

// chunkResult is the single message a worker sends back: its local best, its
// evaluated results, and any failure.
type chunkResult struct {
	worker  int
	best    Result
	hasBest bool
	results []Result
	err     error
}

func (o *Optimizer) optimizeParallel(ctx context.Context, bars []types.Bar, strat strategy.Strategy, grid []types.StrategyParams) (Result, []Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, nil, errors.Wrap(errors.ErrCodeOptimizeAbort, "optimization canceled", err)
	}

	workers := o.config.Workers
	if workers > len(grid) {
		workers = len(grid)
	}

	chunkSize := (len(grid) + workers - 1) / workers
	resultCh := make(chan chunkResult, workers)

	launched := 0

	for w := 0; w < workers; w++ {
		startIdx := w * chunkSize
		if startIdx >= len(grid) {
			break
		}

		endIdx := startIdx + chunkSize
		if endIdx > len(grid) {
			endIdx = len(grid)
		}

		launched++

		// Workers share nothing mutable: bars are read-only input, the
		// chunk is an owned slice of immutable params, and each worker
		// returns owned result values.
		go runWorker(w, bars, strat, grid[startIdx:endIdx], resultCh)
	}

	chunks := make([]chunkResult, 0, launched)

	for i := 0; i < launched; i++ {
		select {
		case <-ctx.Done():
			return Result{}, nil, errors.Wrap(errors.ErrCodeOptimizeAbort, "optimization canceled", ctx.Err())
		case chunk := <-resultCh:
			if chunk.err != nil {
				return Result{}, nil, errors.Wrapf(errors.ErrCodeWorkerFailed, chunk.err, "optimizer worker %d failed", chunk.worker)
			}

			chunks = append(chunks, chunk)
		}
	}

	// Merge in worker order so tie-breaking matches the sequential path.
	allResults := make([]Result, 0, len(grid))

	best := Result{}
	hasBest := false

	for w := 0; w < launched; w++ {
		for _, chunk := range chunks {
			if chunk.worker != w {
				continue
			}

			allResults = append(allResults, chunk.results...)

			if chunk.hasBest && (!hasBest || chunk.best.Score > best.Score) {
				best = chunk.best
				hasBest = true
			}
		}
	}

	o.log.Info("optimization finished",
		zap.Int("workers", launched),
		zap.Float64("best_score", best.Score),
	)

	return best, allResults, nil
}

// runWorker evaluates one chunk of the grid. A panicking worker reports an
// error instead of silently dropping its chunk.
func runWorker(worker int, bars []types.Bar, strat strategy.Strategy, chunk []types.StrategyParams, out chan<- chunkResult) {
	defer func() {
		if r := recover(); r != nil {
			out <- chunkResult{worker: worker, err: fmt.Errorf("worker panic: %v", r)}
		}
	}()

	results := make([]Result, 0, len(chunk))

	best := Result{}
	hasBest := false

	for _, params := range chunk {
		result := evaluate(bars, strat, params)
		results = append(results, result)

		if !hasBest || result.Score > best.Score {
			best = result
			hasBest = true
		}
	}

	out <- chunkResult{
		worker:  worker,
		best:    best,
		hasBest: hasBest,
		results: results,
	}
}

// evaluate runs the full sequential pipeline for one combination.
func evaluate(bars []types.Bar, strat strategy.Strategy, params types.StrategyParams) Result {
	signals := strat.GenerateSignals(bars, params)
	trades, equity := simulator.Run(bars, signals, params, optional.None[stop.Config]())
	backtestResult := analyzer.Analyze(trades, equity, params.InitialCapital)

	return Result{
		Params: params,
		Result: backtestResult,
		Score:  backtestResult.SharpeRatio * (1 - backtestResult.MaxDrawdown),
	}
}
