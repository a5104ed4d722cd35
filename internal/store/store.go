// Package store persists backtest runs in DuckDB. A run is a BacktestResult
// plus its trade list and equity curve, keyed by a generated opaque id.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/reconstruct"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

// Run is a persisted backtest run.
type Run struct {
	ID        string
	Strategy  string
	CreatedAt time.Time
	Result    types.BacktestResult
	Trades    []types.Trade
	Equity    []types.EquityPoint
}

// RunSummary is the listing row for a persisted run.
type RunSummary struct {
	ID        string
	Strategy  string
	CreatedAt time.Time
}

type Store struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

// NewStore opens a DuckDB database at the given path. Pass an empty path for
// an in-memory store.
func NewStore(path string, logger *logger.Logger) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to open database", err)
	}

	return &Store{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the tables for runs, trades and equity points.
func (s *Store) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			strategy TEXT,
			created_at TIMESTAMP,
			initial_capital DOUBLE,
			final_capital DOUBLE,
			total_return DOUBLE,
			max_drawdown DOUBLE,
			sharpe_ratio DOUBLE,
			trades_count INTEGER,
			win_rate DOUBLE,
			profit_factor DOUBLE,
			start_date TIMESTAMP,
			end_date TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			run_id TEXT,
			seq INTEGER,
			code TEXT,
			date TIMESTAMP,
			action TEXT,
			price DOUBLE,
			quantity DOUBLE,
			amount DOUBLE,
			profit DOUBLE,
			profit_percent DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	_, err = s.db.Exec(`
		CREATE TABLE IF NOT EXISTS equity_points (
			run_id TEXT,
			seq INTEGER,
			date TIMESTAMP,
			cash DOUBLE,
			shares DOUBLE,
			close DOUBLE,
			equity_value DOUBLE,
			stop_loss DOUBLE,
			take_profit DOUBLE
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create equity_points table: %w", err)
	}

	return nil
}

// SaveRun persists a run and returns its generated id. The writes happen in
// one transaction so a run is never visible half-saved.
func (s *Store) SaveRun(strategy string, result types.BacktestResult, trades []types.Trade, equity []types.EquityPoint) (string, error) {
	runID := uuid.New().String()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}

	insertRun := s.sq.
		Insert("runs").
		Columns(
			"run_id", "strategy", "created_at", "initial_capital", "final_capital",
			"total_return", "max_drawdown", "sharpe_ratio", "trades_count",
			"win_rate", "profit_factor", "start_date", "end_date",
		).
		Values(
			runID, strategy, time.Now().UTC(), result.InitialCapital, result.FinalCapital,
			result.TotalReturn, result.MaxDrawdown, result.SharpeRatio, result.TradesCount,
			result.WinRate, result.ProfitFactor, result.StartDate, result.EndDate,
		).
		RunWith(tx)

	if _, err := insertRun.Exec(); err != nil {
		tx.Rollback()

		return "", errors.Wrap(errors.ErrCodeStorageFailed, "failed to insert run", err)
	}

	for i, trade := range trades {
		insertTrade := s.sq.
			Insert("trades").
			Columns("run_id", "seq", "code", "date", "action", "price", "quantity", "amount", "profit", "profit_percent").
			Values(runID, i, trade.Code, trade.Date, string(trade.Action), trade.Price, trade.Quantity, trade.Amount, trade.Profit, trade.ProfitPercent).
			RunWith(tx)

		if _, err := insertTrade.Exec(); err != nil {
			tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeStorageFailed, "failed to insert trade", err)
		}
	}

	for i, point := range equity {
		insertPoint := s.sq.
			Insert("equity_points").
			Columns("run_id", "seq", "date", "cash", "shares", "close", "equity_value", "stop_loss", "take_profit").
			Values(runID, i, point.Date, point.Cash, point.Shares, point.Close, point.EquityValue, point.StopLoss, point.TakeProfit).
			RunWith(tx)

		if _, err := insertPoint.Exec(); err != nil {
			tx.Rollback()

			return "", errors.Wrap(errors.ErrCodeStorageFailed, "failed to insert equity point", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}

	s.logger.Debug("Saved backtest run",
		zap.String("run_id", runID),
		zap.String("strategy", strategy),
		zap.Int("trades", len(trades)),
		zap.Int("equity_points", len(equity)))

	return runID, nil
}

// LoadRun loads a persisted run by id.
func (s *Store) LoadRun(runID string) (Run, error) {
	run := Run{ID: runID}

	query, args, err := s.sq.
		Select(
			"strategy", "created_at", "initial_capital", "final_capital",
			"total_return", "max_drawdown", "sharpe_ratio", "trades_count",
			"win_rate", "profit_factor", "start_date", "end_date",
		).
		From("runs").
		Where(squirrel.Eq{"run_id": runID}).
		ToSql()
	if err != nil {
		return Run{}, err
	}

	row := s.db.QueryRow(query, args...)

	err = row.Scan(
		&run.Strategy, &run.CreatedAt,
		&run.Result.InitialCapital, &run.Result.FinalCapital,
		&run.Result.TotalReturn, &run.Result.MaxDrawdown, &run.Result.SharpeRatio,
		&run.Result.TradesCount, &run.Result.WinRate, &run.Result.ProfitFactor,
		&run.Result.StartDate, &run.Result.EndDate,
	)
	if err == sql.ErrNoRows {
		return Run{}, errors.Newf(errors.ErrCodeResultNotFound, "run %s not found", runID)
	}

	if err != nil {
		return Run{}, errors.Wrap(errors.ErrCodeStorageFailed, "failed to load run", err)
	}

	run.Trades, err = s.loadTrades(runID)
	if err != nil {
		return Run{}, err
	}

	run.Equity, err = s.loadEquity(runID)
	if err != nil {
		return Run{}, err
	}

	return run, nil
}

// ListRuns returns summaries of all persisted runs, newest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	query, args, err := s.sq.
		Select("run_id", "strategy", "created_at").
		From("runs").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to list runs", err)
	}
	defer rows.Close()

	var summaries []RunSummary

	for rows.Next() {
		var summary RunSummary
		if err := rows.Scan(&summary.ID, &summary.Strategy, &summary.CreatedAt); err != nil {
			return nil, err
		}

		summaries = append(summaries, summary)
	}

	return summaries, rows.Err()
}

// LoadRawTrades loads a run's trades in the shape the profit reconstructor
// consumes, without the stored profit columns.
func (s *Store) LoadRawTrades(runID string) ([]reconstruct.RawTrade, error) {
	query, args, err := s.sq.
		Select("code", "date", "action", "price", "quantity").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to load trades", err)
	}
	defer rows.Close()

	var trades []reconstruct.RawTrade

	for rows.Next() {
		var trade reconstruct.RawTrade
		if err := rows.Scan(&trade.Code, &trade.Date, &trade.Action, &trade.Price, &trade.Quantity); err != nil {
			return nil, err
		}

		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

func (s *Store) loadTrades(runID string) ([]types.Trade, error) {
	query, args, err := s.sq.
		Select("code", "date", "action", "price", "quantity", "amount", "profit", "profit_percent").
		From("trades").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to load trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var (
			trade  types.Trade
			action string
		)

		err := rows.Scan(&trade.Code, &trade.Date, &action, &trade.Price, &trade.Quantity, &trade.Amount, &trade.Profit, &trade.ProfitPercent)
		if err != nil {
			return nil, err
		}

		trade.Action = types.TradeAction(action)
		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

func (s *Store) loadEquity(runID string) ([]types.EquityPoint, error) {
	query, args, err := s.sq.
		Select("date", "cash", "shares", "close", "equity_value", "stop_loss", "take_profit").
		From("equity_points").
		Where(squirrel.Eq{"run_id": runID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to load equity points", err)
	}
	defer rows.Close()

	var points []types.EquityPoint

	for rows.Next() {
		var point types.EquityPoint

		err := rows.Scan(&point.Date, &point.Cash, &point.Shares, &point.Close, &point.EquityValue, &point.StopLoss, &point.TakeProfit)
		if err != nil {
			return nil, err
		}

		points = append(points, point)
	}

	return points, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
