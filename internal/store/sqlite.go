package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"edgelab/internal/domain"
)

// Compile-time interface check.
var _ SweepStore = (*SQLiteStore)(nil)

// SQLiteStore implements SweepStore backed by a SQLite database. It is the
// default backend for local sweeps.
type SQLiteStore struct {
	db *sql.DB
}

const sweepSchema = `
CREATE TABLE IF NOT EXISTS sweep_rows (
	model_version  TEXT    NOT NULL,
	symbol         TEXT    NOT NULL,
	horizon        TEXT    NOT NULL,
	side           TEXT    NOT NULL,
	min_mentions   INTEGER NOT NULL,
	pos_thresh     REAL    NOT NULL,
	start_date     TEXT    NOT NULL,
	end_date       TEXT    NOT NULL,
	trades         INTEGER NOT NULL,
	total_return   REAL    NOT NULL,
	avg_return     REAL    NOT NULL,
	sharpe         REAL    NOT NULL,
	win_rate       REAL    NOT NULL,
	max_drawdown   REAL    NOT NULL,
	volatility     REAL    NOT NULL,
	sentiment_corr REAL    NOT NULL,
	uplift         REAL    NOT NULL,
	updated_at     TEXT    NOT NULL,
	PRIMARY KEY (model_version, symbol, horizon, side, min_mentions, pos_thresh, start_date, end_date)
)`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath, ensures the
// sweep schema exists, and returns a ready-to-use SQLiteStore.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(sweepSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sweep schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const sweepUpsert = `
INSERT INTO sweep_rows (
	model_version, symbol, horizon, side, min_mentions, pos_thresh,
	start_date, end_date, trades, total_return, avg_return, sharpe,
	win_rate, max_drawdown, volatility, sentiment_corr, uplift, updated_at
) VALUES (%s)
ON CONFLICT (model_version, symbol, horizon, side, min_mentions, pos_thresh, start_date, end_date)
DO UPDATE SET
	trades = excluded.trades,
	total_return = excluded.total_return,
	avg_return = excluded.avg_return,
	sharpe = excluded.sharpe,
	win_rate = excluded.win_rate,
	max_drawdown = excluded.max_drawdown,
	volatility = excluded.volatility,
	sentiment_corr = excluded.sentiment_corr,
	uplift = excluded.uplift,
	updated_at = excluded.updated_at`

// UpsertRow inserts or replaces the row for its full parameter+window key.
func (s *SQLiteStore) UpsertRow(ctx context.Context, row domain.SweepRow) error {
	query := fmt.Sprintf(sweepUpsert, "?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?")
	_, err := s.db.ExecContext(ctx, query, upsertArgs(row)...)
	if err != nil {
		return fmt.Errorf("upserting sweep row %s/%s/%s: %w", row.Symbol, row.Horizon, row.Side, err)
	}
	return nil
}

const sweepSelect = `
SELECT model_version, symbol, horizon, side, min_mentions, pos_thresh,
	start_date, end_date, trades, total_return, avg_return, sharpe,
	win_rate, max_drawdown, volatility, sentiment_corr, uplift
FROM sweep_rows`

// ListRows returns the rows matching the pre-group filters in q, ordered by
// the key tuple for deterministic output.
func (s *SQLiteStore) ListRows(ctx context.Context, q RowQuery) ([]domain.SweepRow, error) {
	where, args := buildWhere(q, questionMark)
	rows, err := s.db.QueryContext(ctx, sweepSelect+where+sweepOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sweep rows: %w", err)
	}
	defer rows.Close()
	return scanSweepRows(rows)
}

const sweepOrder = `
ORDER BY model_version, symbol, horizon, side, min_mentions, pos_thresh, start_date, end_date`

// upsertArgs flattens a SweepRow into the argument list shared by both SQL
// backends. Dates are stored as YYYY-MM-DD text.
func upsertArgs(row domain.SweepRow) []any {
	return []any{
		row.ModelVersion,
		row.Symbol,
		row.Horizon,
		string(row.Side),
		row.MinMentions,
		row.PosThresh,
		row.StartDate.UTC().Format(DateFormat),
		row.EndDate.UTC().Format(DateFormat),
		row.Trades,
		row.TotalReturn,
		row.AvgReturn,
		row.Sharpe,
		row.WinRate,
		row.MaxDrawdown,
		row.Volatility,
		row.SentimentCorr,
		row.Uplift,
		time.Now().UTC().Format(time.RFC3339),
	}
}

// scanSweepRows converts a result set into SweepRows, validating date text at
// the store boundary so no loosely-typed values reach the aggregation logic.
func scanSweepRows(rows *sql.Rows) ([]domain.SweepRow, error) {
	var out []domain.SweepRow
	for rows.Next() {
		var r domain.SweepRow
		var side, startDate, endDate string
		if err := rows.Scan(
			&r.ModelVersion, &r.Symbol, &r.Horizon, &side, &r.MinMentions,
			&r.PosThresh, &startDate, &endDate, &r.Trades, &r.TotalReturn,
			&r.AvgReturn, &r.Sharpe, &r.WinRate, &r.MaxDrawdown,
			&r.Volatility, &r.SentimentCorr, &r.Uplift,
		); err != nil {
			return nil, fmt.Errorf("scanning sweep row: %w", err)
		}
		r.Side = domain.Side(side)

		var err error
		if r.StartDate, err = time.ParseInLocation(DateFormat, startDate, time.UTC); err != nil {
			return nil, fmt.Errorf("invalid start_date %q: %w", startDate, err)
		}
		if r.EndDate, err = time.ParseInLocation(DateFormat, endDate, time.UTC); err != nil {
			return nil, fmt.Errorf("invalid end_date %q: %w", endDate, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
