package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/mkorolev/finance-forecaster/internal/domain"
)

// createTableStmt is idempotent so first-run and subsequent-run code paths
// are identical.
const createTableStmt = `
CREATE TABLE IF NOT EXISTS transactions (
	id INTEGER PRIMARY KEY,
	date TIMESTAMP,
	category VARCHAR,
	amount DECIMAL(10, 2),
	ingested_at TIMESTAMP DEFAULT current_timestamp
)`

// Store is the analytical mirror of ingested transactions: a durable
// embedded table with surrogate integer IDs that are strictly increasing
// across the table's lifetime. Single concurrent writer per database file.
type Store struct {
	db *sqlx.DB
}

// Row is one mirror table row as returned by queries.
type Row struct {
	ID         int64     `db:"id"`
	Date       time.Time `db:"date"`
	Category   string    `db:"category"`
	Amount     float64   `db:"amount"`
	IngestedAt time.Time `db:"ingested_at"`
}

// Open connects to the embedded database at path, creating parent
// directories and the transactions table if needed.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("Open: create db dir: %w", err)
		}
	}

	db, err := sqlx.ConnectContext(ctx, "duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("Open: connect %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, createTableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("Open: create transactions table: %w", err)
	}

	return &Store{db: db}, nil
}

// Insert appends a normalized batch. IDs are allocated as
// max(existing id, default 0) + 1 onward, in batch order, inside a single
// transaction, so a batch is either fully mirrored or not at all and IDs
// never collide under sequential single-writer use. ingested_at takes the
// table default. Returns the number of rows inserted.
func (s *Store) Insert(ctx context.Context, txs []domain.Transaction) (int, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("Insert: begin transaction: %w", err)
	}
	defer tx.Rollback()

	var maxID int64
	if err := tx.GetContext(ctx, &maxID, "SELECT COALESCE(MAX(id), 0) FROM transactions"); err != nil {
		return 0, fmt.Errorf("Insert: read max id: %w", err)
	}

	stmt, err := tx.PreparexContext(ctx,
		"INSERT INTO transactions (id, date, category, amount) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("Insert: prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range txs {
		id := maxID + int64(i) + 1
		if _, err := stmt.ExecContext(ctx, id, t.Date, t.Category, t.Amount.InexactFloat64()); err != nil {
			return 0, fmt.Errorf("Insert: row %d (id %d): %w", i, id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("Insert: commit: %w", err)
	}
	return len(txs), nil
}

// Count returns the total number of mirrored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM transactions"); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

// Recent returns the n most recent rows ordered by date descending, for
// sample display after an insert.
func (s *Store) Recent(ctx context.Context, n int) ([]Row, error) {
	rows := []Row{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, date, category, CAST(amount AS DOUBLE) AS amount, ingested_at
		FROM transactions
		ORDER BY date DESC
		LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return rows, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
