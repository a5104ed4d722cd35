package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/quantrail/backtest/internal/logger"
	"github.com/quantrail/backtest/internal/types"
	"github.com/quantrail/backtest/pkg/errors"
)

// DuckDBDataSource reads bars from a CSV file through a DuckDB view.
type DuckDBDataSource struct {
	db        *sql.DB
	logger    *logger.Logger
	sq        squirrel.StatementBuilderType
	hasAmount bool
}

// NewDuckDBDataSource opens a DuckDB database at the given path. Pass an
// empty path for an in-memory database. This is distinct from Initialize(),
// which mounts the bar file as a view.
func NewDuckDBDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to open database", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize implements DataSource.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing bar data source", zap.String("path", path))

	_, err := d.db.Exec(`DROP VIEW IF EXISTS bars;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	// CREATE VIEW cannot be parameterized, so the path is interpolated.
	query := fmt.Sprintf(`
		CREATE VIEW bars AS
		SELECT * FROM read_csv_auto('%s', header=true);
	`, path)

	_, err = d.db.Exec(query)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeDataParseFailed, err, "failed to read bar file %s", path)
	}

	// The amount column is optional in bar files.
	row := d.db.QueryRow(`
		SELECT COUNT(*) FROM information_schema.columns
		WHERE table_name = 'bars' AND column_name = 'amount';
	`)

	var amountColumns int
	if err := row.Scan(&amountColumns); err != nil {
		return fmt.Errorf("failed to inspect bar columns: %w", err)
	}

	d.hasAmount = amountColumns > 0

	return nil
}

// Bars implements DataSource.
func (d *DuckDBDataSource) Bars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	amountColumn := "0 AS amount"
	if d.hasAmount {
		amountColumn = "amount"
	}

	builder := d.sq.
		Select("CAST(date AS TIMESTAMP)", "open", "high", "low", "close", "volume", amountColumn).
		From("bars").
		OrderBy("date ASC")

	if start.IsSome() {
		builder = builder.Where(squirrel.Expr("CAST(date AS TIMESTAMP) >= ?", start.Unwrap()))
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.Expr("CAST(date AS TIMESTAMP) <= ?", end.Unwrap()))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to query bars", err)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var bar types.Bar

		err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.Amount)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeDataParseFailed, "failed to scan bar row", err)
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, errors.New(errors.ErrCodeDataNotFound, "bar file contains no rows in range")
	}

	return bars, nil
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.sq.Select("COUNT(*)").From("bars")

	if start.IsSome() {
		builder = builder.Where(squirrel.Expr("CAST(date AS TIMESTAMP) >= ?", start.Unwrap()))
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.Expr("CAST(date AS TIMESTAMP) <= ?", end.Unwrap()))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int

	err = d.db.QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeStorageFailed, "failed to count bars", err)
	}

	return count, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
