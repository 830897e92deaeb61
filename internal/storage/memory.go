package storage

import (
	"context"
	"sync"
)

// MemoryRepository keeps tables in process memory. Used by tests and the CLI.
type MemoryRepository struct {
	mu      sync.Mutex
	headers map[string][]string
	rows    map[string][][]string

	// Err, when set, is consulted before every write
	Err func(op, sheet string) error
}

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		headers: make(map[string][]string),
		rows:    make(map[string][][]string),
	}
}

// EnsureHeader stores header for sheet
func (m *MemoryRepository) EnsureHeader(_ context.Context, sheet string, header []string) error {
	if m.Err != nil {
		if err := m.Err("header", sheet); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.headers[sheet] = append([]string(nil), header...)
	return nil
}

// Append stores row in sheet
func (m *MemoryRepository) Append(_ context.Context, sheet string, row []string) error {
	if m.Err != nil {
		if err := m.Err("append", sheet); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[sheet] = append(m.rows[sheet], append([]string(nil), row...))
	return nil
}

// Header returns the header of sheet
func (m *MemoryRepository) Header(_ context.Context, sheet string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.headers[sheet], nil
}

// Rows returns the data rows of sheet
func (m *MemoryRepository) Rows(_ context.Context, sheet string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]string, len(m.rows[sheet]))
	copy(out, m.rows[sheet])
	return out, nil
}

// Ping always succeeds
func (m *MemoryRepository) Ping(context.Context) error { return nil }

// Close is a no-op
func (m *MemoryRepository) Close() error { return nil }
