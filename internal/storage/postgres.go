package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// PostgresRepository keeps the tables in PostgreSQL, one JSONB array per row
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository connects, pings and migrates the ledger schema
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("%w: DATABASE_URL is not set", ErrNotConfigured)
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	poolConfig.MaxConns = 10
	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	poolConfig.MinConns = 1
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	poolConfig.MaxConnLifetime = 30 * time.Minute
	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, pgxTarget{pool: pool}); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresRepository{pool: pool}, nil
}

// EnsureHeader upserts the header of sheet when it differs from the stored one
func (r *PostgresRepository) EnsureHeader(ctx context.Context, sheet string, header []string) error {
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
		INSERT INTO ledger_headers (sheet, columns, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (sheet) DO UPDATE SET columns = EXCLUDED.columns, updated_at = NOW()
	`
	if _, err := r.pool.Exec(ctx, query, sheet, columns); err != nil {
		return fmt.Errorf("failed to write header of %s: %w", sheet, err)
	}
	return nil
}

// Append inserts one row into sheet
func (r *PostgresRepository) Append(ctx context.Context, sheet string, row []string) error {
	cells, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal row: %w", err)
	}

	if _, err := r.pool.Exec(ctx, `INSERT INTO ledger_rows (sheet, cells) VALUES ($1, $2)`, sheet, cells); err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

// Header returns the stored header of sheet, or nil when none was written
func (r *PostgresRepository) Header(ctx context.Context, sheet string) ([]string, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT columns FROM ledger_headers WHERE sheet = $1`, sheet).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", sheet, err)
	}

	var header []string
	if err := json.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("failed to unmarshal header: %w", err)
	}
	return header, nil
}

// Rows returns the data rows of sheet in insertion order
func (r *PostgresRepository) Rows(ctx context.Context, sheet string) ([][]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT cells FROM ledger_rows WHERE sheet = $1 ORDER BY id`, sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to query rows of %s: %w", sheet, err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal(raw, &cells); err != nil {
			return nil, fmt.Errorf("failed to unmarshal row: %w", err)
		}
		result = append(result, cells)
	}
	return result, rows.Err()
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}
