// Package engine wires the full run pipeline behind one facade: load bars,
// generate signals, simulate trades, analyze performance. The CLI and the
// walk-forward/optimizer components use the underlying packages directly;
// the facade exists for callers that want a config-in, result-out surface.
package engine

import (
	"github.com/moznion/go-optional"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"github.com/quantrail/backtest/internal/analyzer"
	"github.com/quantrail/backtest/internal/datasource"
	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/simulator"
	"github.com/quantrail/backtest/internal/strategy"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/internal/version"
	"github.com/quantrail/backtest/pkg/errors"
)

// OnProgressCallback is called as the run advances through its phases.
// Returning an error aborts the run.
type OnProgressCallback func(current int, total int) error

// RunResult is the full output of one engine run.
type RunResult struct {
	Result types.BacktestResult
	Trades []types.Trade
	Equity []types.EquityPoint
}

// Engine drives one backtest run end to end: parse and validate the config,
// load bars, generate signals, simulate, and analyze.
type Engine struct {
	config Config
	log    *logger.Logger
	bars   []types.Bar
}

// NewEngine creates an uninitialized Engine. Call Initialize with a YAML
// config before doing anything else with it.
func NewEngine() *Engine {
	return &Engine{
		config: EmptyConfig(),
		log:    nil,
		bars:   nil,
	}
}

// Initialize parses and validates the YAML config string and sets up the
// logger. Must be called before SetDataPath or Run.
func (e *Engine) Initialize(config string) error {
	err := yaml.Unmarshal([]byte(config), &e.config)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse engine config", err)
	}

	if err := e.config.Validate(); err != nil {
		return err
	}

	if err := version.CheckMinimumVersion(version.Version, e.config.MinVersion); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "config requires a newer engine", err)
	}

	e.config = e.config.withDefaults()

	e.log, err = logger.NewLogger()
	if err != nil {
		return err
	}

	e.log.Debug("Backtest engine initialized",
		zap.String("strategy", string(e.config.Strategy)),
		zap.Float64("initial_capital", e.config.Params.InitialCapital),
	)

	return nil
}

// SetDataPath loads the bar series from the CSV file at the given path,
// restricted to the configured time range.
func (e *Engine) SetDataPath(path string) error {
	source, err := datasource.NewDuckDBDataSource("", e.log)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(path); err != nil {
		return err
	}

	bars, err := source.Bars(e.config.StartTime, e.config.EndTime)
	if err != nil {
		return err
	}

	e.log.Debug("Loaded bars", zap.String("path", path), zap.Int("count", len(bars)))
	e.bars = bars

	return nil
}

// SetBars supplies the bar series directly, bypassing the data source.
func (e *Engine) SetBars(bars []types.Bar) {
	e.bars = bars
}

// Run executes the signal, simulation and analysis pipeline over the loaded
// bars.
func (e *Engine) Run(onProgressCallback optional.Option[OnProgressCallback]) (RunResult, error) {
	const totalPhases = 3

	if len(e.bars) == 0 {
		return RunResult{}, errors.New(errors.ErrCodeInsufficientData, "no bars loaded")
	}

	progress := func(phase int) error {
		if onProgressCallback.IsNone() {
			return nil
		}

		return onProgressCallback.Unwrap()(phase, totalPhases)
	}

	signals, err := strategy.GenerateSignals(e.bars, e.config.Strategy, e.config.Params)
	if err != nil {
		return RunResult{}, err
	}

	e.log.Debug("Generated signals", zap.Int("count", len(signals)))

	if err := progress(1); err != nil {
		return RunResult{}, err
	}

	trades, equity := simulator.Run(e.bars, signals, e.config.Params, e.config.Stop)

	e.log.Debug("Simulated trades", zap.Int("count", len(trades)))

	if err := progress(2); err != nil {
		return RunResult{}, err
	}

	result := analyzer.Analyze(trades, equity, e.config.Params.InitialCapital)

	if err := progress(totalPhases); err != nil {
		return RunResult{}, err
	}

	return RunResult{
		Result: result,
		Trades: trades,
		Equity: equity,
	}, nil
}

// Config returns the parsed configuration. Zero value before Initialize.
func (e *Engine) Config() Config {
	return e.config
}

// Bars returns the loaded bar series. Nil before SetDataPath or SetBars.
func (e *Engine) Bars() []types.Bar {
	return e.bars
}
