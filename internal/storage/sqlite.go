package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // driver: sqlite
)

// SQLiteRepository keeps the tables in a local SQLite file, one JSON array per row
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dsn and ensures the schema exists.
// ":memory:" gives a private in-memory database.
func NewSQLiteRepository(ctx context.Context, dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = "file:assessments.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	if dsn == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite: %w", err)
	}
	if err := migrate(ctx, sqlTarget{db: db}); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteRepository{db: db}, nil
}

// EnsureHeader upserts the header of sheet when it differs from the stored one
func (r *SQLiteRepository) EnsureHeader(ctx context.Context, sheet string, header []string) error {
	current, err := r.Header(ctx, sheet)
	if err != nil {
		return err
	}
	if equalRow(current, header) {
		return nil
	}

	columns, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	query := `
		INSERT INTO ledger_headers (sheet, columns, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (sheet) DO UPDATE SET columns = excluded.columns, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, sheet, string(columns), time.Now().Unix()); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	return nil
}

// Append inserts one row into sheet
func (r *SQLiteRepository) Append(ctx context.Context, sheet string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ledger_rows (sheet, cells, created_at) VALUES (?, ?, ?)`,
		sheet, string(cells), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

// Header returns the stored header of sheet, or nil when none was written
func (r *SQLiteRepository) Header(ctx context.Context, sheet string) ([]string, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT columns FROM ledger_headers WHERE sheet = ?`, sheet).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", sheet, err)
	}

	var header []string
	if err := json.Unmarshal([]byte(raw), &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}
	return header, nil
}

// Rows returns the data rows of sheet in insertion order
func (r *SQLiteRepository) Rows(ctx context.Context, sheet string) ([][]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT cells FROM ledger_rows WHERE sheet = ? ORDER BY id`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows of %s: %w", sheet, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		result = append(result, cells)
	}
	return result, rows.Err()
}

// Ping checks database connectivity
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
