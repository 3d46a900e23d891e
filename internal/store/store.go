// Package store defines storage interfaces for the edgelab data plane: the
// sentiment and price series consumed by the simulator, and the persisted
// sweep rows consumed by the cohort aggregator.
package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"edgelab/internal/domain"
)

// SentimentStore persists and retrieves externally-scored sentiment series.
type SentimentStore interface {
	// WriteSentiment persists a batch of sentiment points, merging with any
	// already stored for the same (symbol, date, model_version).
	WriteSentiment(ctx context.Context, points []domain.SentimentPoint) error

	// ReadSentiment returns points for the symbol and model version within
	// [start, end], ascending by date. A missing series is empty, not an
	// error.
	ReadSentiment(ctx context.Context, symbol, modelVersion string, start, end time.Time) ([]domain.SentimentPoint, error)
}

// PriceStore persists and retrieves daily close series.
type PriceStore interface {
	// WritePrices persists a batch of price points, merging with any already
	// stored for the same (symbol, timestamp).
	WritePrices(ctx context.Context, points []domain.PricePoint) error

	// ReadPrices returns points for the symbol within [start, end],
	// ascending by timestamp.
	ReadPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PricePoint, error)

	// ListSymbols returns all distinct symbols with stored prices.
	ListSymbols(ctx context.Context) ([]string, error)
}

// SweepStore is the relational store for persisted sweep rows.
type SweepStore interface {
	// UpsertRow inserts or replaces the row identified by its full
	// parameter+window key. Re-running a sweep is idempotent.
	UpsertRow(ctx context.Context, row domain.SweepRow) error

	// ListRows returns the rows matching the pre-group filters in q.
	ListRows(ctx context.Context, q RowQuery) ([]domain.SweepRow, error)

	// Close releases the underlying connection.
	Close() error
}

// RowQuery holds the row-level (pre-group) filters pushed down to the store.
// Zero values mean "no constraint"; MinSharpe and MinWinRate are pointers so
// an explicit 0 threshold remains expressible.
type RowQuery struct {
	ModelVersion string
	Symbols      []string
	Horizon      string
	Side         domain.Side
	StartFrom    time.Time // start_date >= StartFrom
	EndTo        time.Time // end_date <= EndTo
	MinTrades    int64
	MinSharpe    *float64
	MinWinRate   *float64
}

// DateFormat is the canonical on-disk encoding for window dates.
const DateFormat = "2006-01-02"

// buildWhere translates a RowQuery into a WHERE clause and argument list.
// placeholder renders the n-th (1-based) bind marker for the target driver.
func buildWhere(q RowQuery, placeholder func(n int) string) (string, []any) {
	var conds []string
	var args []any
	next := func() string {
		return placeholder(len(args))
	}

	if q.ModelVersion != "" {
		args = append(args, q.ModelVersion)
		conds = append(conds, "model_version = "+next())
	}
	if len(q.Symbols) > 0 {
		marks := make([]string, len(q.Symbols))
		for i, s := range q.Symbols {
			args = append(args, s)
			marks[i] = next()
		}
		conds = append(conds, "symbol IN ("+strings.Join(marks, ", ")+")")
	}
	if q.Horizon != "" {
		args = append(args, q.Horizon)
		conds = append(conds, "horizon = "+next())
	}
	if q.Side != "" {
		args = append(args, string(q.Side))
		conds = append(conds, "side = "+next())
	}
	if !q.StartFrom.IsZero() {
		args = append(args, q.StartFrom.UTC().Format(DateFormat))
		conds = append(conds, "start_date >= "+next())
	}
	if !q.EndTo.IsZero() {
		args = append(args, q.EndTo.UTC().Format(DateFormat))
		conds = append(conds, "end_date <= "+next())
	}
	if q.MinTrades > 0 {
		args = append(args, q.MinTrades)
		conds = append(conds, "trades >= "+next())
	}
	if q.MinSharpe != nil {
		args = append(args, *q.MinSharpe)
		conds = append(conds, "sharpe >= "+next())
	}
	if q.MinWinRate != nil {
		args = append(args, *q.MinWinRate)
		conds = append(conds, "win_rate >= "+next())
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// OpenSweepStore opens the configured sweep row backend. Postgres wins when
// both a DSN and a SQLite path are present; with neither there is nothing to
// open and an error is returned.
func OpenSweepStore(sqlitePath, postgresDSN string) (SweepStore, error) {
	switch {
	case postgresDSN != "":
		return NewPostgresStore(postgresDSN)
	case sqlitePath != "":
		return NewSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("no sweep store configured: set sqlite_path or postgres_dsn")
	}
}

func questionMark(int) string { return "?" }

func dollarMark(n int) string { return fmt.Sprintf("$%d", n) }
