package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // Postgres driver.

	"edgelab/internal/domain"
)

// Compile-time interface check.
var _ SweepStore = (*PostgresStore)(nil)

// PostgresStore implements SweepStore backed by PostgreSQL, for shared sweep
// databases. Schema and upsert semantics match the SQLite backend.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to the database at dsn and ensures the sweep
// schema exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if _, err := db.Exec(sweepSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sweep schema: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// UpsertRow inserts or replaces the row for its full parameter+window key.
func (s *PostgresStore) UpsertRow(ctx context.Context, row domain.SweepRow) error {
	marks := make([]string, 18)
	for i := range marks {
		marks[i] = dollarMark(i + 1)
	}
	query := fmt.Sprintf(sweepUpsert, strings.Join(marks, ", "))
	_, err := s.db.ExecContext(ctx, query, upsertArgs(row)...)
	if err != nil {
		return fmt.Errorf("upserting sweep row %s/%s/%s: %w", row.Symbol, row.Horizon, row.Side, err)
	}
	return nil
}

// ListRows returns the rows matching the pre-group filters in q.
func (s *PostgresStore) ListRows(ctx context.Context, q RowQuery) ([]domain.SweepRow, error) {
	where, args := buildWhere(q, dollarMark)
	rows, err := s.db.QueryContext(ctx, sweepSelect+where+sweepOrder, args...)
	if err != nil {
		return nil, fmt.Errorf("querying sweep rows: %w", err)
	}
	defer rows.Close()
	return scanSweepRows(rows)
}
