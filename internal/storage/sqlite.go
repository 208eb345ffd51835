package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bashkirian/repair-order-pipeline/pkg/models"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

const createRepairOrders = `
CREATE TABLE IF NOT EXISTS repair_orders (
	order_id   TEXT,
	date_time  TEXT,
	status     TEXT,
	cost       REAL,
	technician TEXT,
	parts      TEXT
)`

// SQLiteStorage appends records to the repair_orders table. Rows are never
// deduplicated, so running the same batch twice stores it twice.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (creating if needed) the database at path and
// makes sure the repair_orders table exists.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database %q: %v: %w", path, err, models.ErrDatabase)
	}
	if _, err := db.Exec(createRepairOrders); err != nil {
		db.Close()
		return nil, fmt.Errorf("create repair_orders table: %v: %w", err, models.ErrDatabase)
	}
	return &SQLiteStorage{db: db}, nil
}

// Save inserts all records in a single transaction.
func (s *SQLiteStorage) Save(ctx context.Context, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %v: %w", err, models.ErrDatabase)
	}
	// Rollback is a no-op after Commit.
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO repair_orders (order_id, date_time, status, cost, technician, parts) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %v: %w", err, models.ErrDatabase)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.OrderID, r.DateTime, r.Status, r.Cost, r.Technician, r.PartsText()); err != nil {
			return fmt.Errorf("insert order %s at %s: %v: %w", r.OrderID, r.DateTime, err, models.ErrDatabase)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %v: %w", err, models.ErrDatabase)
	}
	return nil
}

// Count returns the number of stored rows.
func (s *SQLiteStorage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repair_orders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count repair_orders: %v: %w", err, models.ErrDatabase)
	}
	return n, nil
}

// List returns every stored row in insertion order. Parts are returned as
// the stored text.
func (s *SQLiteStorage) List(ctx context.Context) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT order_id, date_time, status, cost, technician, parts FROM repair_orders ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query repair_orders: %v: %w", err, models.ErrDatabase)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.OrderID, &r.DateTime, &r.Status, &r.Cost, &r.Technician, &r.Parts); err != nil {
			return nil, fmt.Errorf("scan repair_orders: %v: %w", err, models.ErrDatabase)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate repair_orders: %v: %w", err, models.ErrDatabase)
	}
	return out, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
