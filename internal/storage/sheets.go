package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig holds Google Sheets access settings. Credentials come either from a
// service-account key file or from the key JSON itself.
type SheetsConfig struct {
	SpreadsheetID   string
	CredentialsFile string
	CredentialsJSON string
}

// valuesAPI is the subset of the Sheets values API the repository uses
type valuesAPI interface {
	Get(ctx context.Context, rng string) ([][]string, error)
	Update(ctx context.Context, rng string, row []string) error
	Append(ctx context.Context, rng string, row []string) error
}

// SheetsRepository appends rows to tabs of one Google spreadsheet
type SheetsRepository struct {
	values valuesAPI

	mu      sync.Mutex
	headers map[string][]string
}

// NewSheetsRepository creates a Sheets-backed repository. Missing credentials or
// spreadsheet id yield ErrNotConfigured.
func NewSheetsRepository(ctx context.Context, cfg SheetsConfig) (*SheetsRepository, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: GOOGLE_SHEET_ID is not set", ErrNotConfigured)
	}

	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(creds),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return newSheetsRepository(&googleValues{srv: srv, spreadsheetID: cfg.SpreadsheetID}), nil
}

func newSheetsRepository(values valuesAPI) *SheetsRepository {
	return &SheetsRepository{values: values, headers: make(map[string][]string)}
}

func loadCredentials(cfg SheetsConfig) ([]byte, error) {
	if cfg.CredentialsFile != "" {
		raw, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read credentials file: %v", ErrNotConfigured, err)
		}
		return raw, nil
	}
	if raw := strings.TrimSpace(cfg.CredentialsJSON); raw != "" {
		return []byte(raw), nil
	}
	return nil, fmt.Errorf("%w: set GOOGLE_APPLICATION_CREDENTIALS (path to JSON file) or GOOGLE_SERVICE_ACCOUNT_CREDENTIALS (JSON)", ErrNotConfigured)
}

// EnsureHeader reads the first row of sheet and rewrites it when empty or different.
// A header already reconciled by this process is not read again.
func (r *SheetsRepository) EnsureHeader(ctx context.Context, sheet string, header []string) error {
	r.mu.Lock()
	known, ok := r.headers[sheet]
	r.mu.Unlock()
	if ok && equalRow(known, header) {
		return nil
	}

	rng := headerRange(sheet, len(header))
	existing, err := r.values.Get(ctx, rng)
	if err != nil {
		// The tab may be empty or missing a header; writing it is still attempted
		slog.Warn("failed to read sheet header", "sheet", sheet, "error", err)
	}

	if err != nil || len(existing) == 0 || !equalRow(existing[0], header) {
		if err := r.values.Update(ctx, rng, header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet, err)
		}
		slog.Info("sheet header written", "sheet", sheet, "columns", len(header))
	}

	r.mu.Lock()
	r.headers[sheet] = append([]string(nil), header...)
	r.mu.Unlock()
	return nil
}

// Append adds row after the last used row of sheet
func (r *SheetsRepository) Append(ctx context.Context, sheet string, row []string) error {
	rng := fmt.Sprintf("%s!A:%s", sheet, ColumnToLetter(len(row)))
	if err := r.values.Append(ctx, rng, row); err != nil {
		return fmt.Errorf("failed to append to %s: %w", sheet, err)
	}
	return nil
}

// Ping reads the first cell of the assessment sheet
func (r *SheetsRepository) Ping(ctx context.Context) error {
	_, err := r.values.Get(ctx, SheetAssessments+"!A1:A1")
	return err
}

// Close is a no-op
func (r *SheetsRepository) Close() error {
	return nil
}

func headerRange(sheet string, columns int) string {
	return fmt.Sprintf("%s!A1:%s1", sheet, ColumnToLetter(columns))
}

// googleValues adapts the generated Sheets client
type googleValues struct {
	srv           *sheets.Service
	spreadsheetID string
}

func (g *googleValues) Get(ctx context.Context, rng string) ([][]string, error) {
	resp, err := g.srv.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (g *googleValues) Update(ctx context.Context, rng string, row []string) error {
	_, err := g.srv.Spreadsheets.Values.Update(g.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (g *googleValues) Append(ctx context.Context, rng string, row []string) error {
	_, err := g.srv.Spreadsheets.Values.Append(g.spreadsheetID, rng, valueRange(row)).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func valueRange(row []string) *sheets.ValueRange {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return &sheets.ValueRange{Values: [][]interface{}{cells}}
}
