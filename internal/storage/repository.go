package storage

import (
	"context"
	"errors"
	"fmt"
)

// Sheet names of the two append-only tables
const (
	SheetAssessments   = "Sheet1"
	SheetConsultations = "Sheet2"
)

// ErrNotConfigured is returned by a repository that has no backing store
var ErrNotConfigured = errors.New("storage not configured")

// Repository is an append-only tabular store. Each sheet has one header row
// followed by data rows.
type Repository interface {
	// EnsureHeader writes header as the first row of sheet when it is absent or differs
	EnsureHeader(ctx context.Context, sheet string, header []string) error
	// Append adds one data row to sheet
	Append(ctx context.Context, sheet string, row []string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// Reader reads tables back. Implemented by the SQL ledgers and the memory store.
type Reader interface {
	Header(ctx context.Context, sheet string) ([]string, error)
	Rows(ctx context.Context, sheet string) ([][]string, error)
}

// Disabled is a Repository that rejects every write with ErrNotConfigured
type Disabled struct {
	Reason string
}

func (d Disabled) err() error {
	if d.Reason == "" {
		return ErrNotConfigured
	}
	return fmt.Errorf("%w: %s", ErrNotConfigured, d.Reason)
}

// EnsureHeader always fails
func (d Disabled) EnsureHeader(context.Context, string, []string) error { return d.err() }

// Append always fails
func (d Disabled) Append(context.Context, string, []string) error { return d.err() }

// Ping always fails
func (d Disabled) Ping(context.Context) error { return d.err() }

// Close is a no-op
func (d Disabled) Close() error { return nil }

func equalRow(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
