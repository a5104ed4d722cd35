// Package datasource loads daily bar series for backtest runs. The only
// implementation is DuckDB backed: a CSV file is mounted as a view and
// queried through database/sql, which keeps date parsing and type coercion
// inside the database instead of hand-rolled parsing code.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/quantrail/backtest/internal/types"
)

// DataSource provides ordered daily bars for a single instrument.
type DataSource interface {
	// Initialize mounts the bar file at the given path. Must be called
	// before Bars or Count.
	Initialize(path string) error
	// Bars returns all bars in the optional date range, ordered ascending
	// by date.
	Bars(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error)
	// Count returns the number of bars in the optional date range.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases the underlying database resources.
	Close() error
}
