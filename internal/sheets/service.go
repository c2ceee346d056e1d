package sheets

import (
	"context"
	"fmt"

	"registration-sync-go/internal/models"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Service mirrors registration data into a Google spreadsheet. The sheet is
// a downstream mirror only: nothing here is ever read back as reconciliation
// input.
type Service struct {
	api            *sheetsapi.Service
	spreadsheetId  string
	duePaymentsTab string
}

func NewService(ctx context.Context, cfg models.SheetsConfig) (*Service, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets config requires a spreadsheet ID")
	}

	var credential option.ClientOption
	switch {
	case cfg.ServiceCredential != "":
		credential = option.WithCredentialsJSON([]byte(cfg.ServiceCredential))
	case cfg.CredentialFile != "":
		credential = option.WithCredentialsFile(cfg.CredentialFile)
	default:
		return nil, fmt.Errorf("sheets config requires GOOGLE_SERVICE_CREDENTIAL or GOOGLE_CREDENTIAL_FILE")
	}

	api, err := sheetsapi.NewService(ctx, credential, option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}

	duePaymentsTab := cfg.DuePaymentsTab
	if duePaymentsTab == "" {
		duePaymentsTab = "Due Payments"
	}

	zap.L().Info("Sheets service initialized", zap.String("spreadsheet_id", cfg.SpreadsheetID))
	return &Service{api: api, spreadsheetId: cfg.SpreadsheetID, duePaymentsTab: duePaymentsTab}, nil
}

// EnsureSheet creates the named tab with a header row if it does not exist
// yet. Safe to call on every sync.
func (s *Service) EnsureSheet(ctx context.Context, name string, header []string) error {
	meta, err := s.api.Spreadsheets.Get(s.spreadsheetId).
		Fields("sheets(properties(title))").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read spreadsheet metadata: %w", err)
	}

	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			return nil
		}
	}

	_, err = s.api.Spreadsheets.BatchUpdate(s.spreadsheetId, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: name},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to create sheet %q: %w", name, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	_, err = s.api.Spreadsheets.Values.Update(s.spreadsheetId, fmt.Sprintf("%s!A1", name),
		&sheetsapi.ValueRange{Values: [][]interface{}{headerRow}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write header for sheet %q: %w", name, err)
	}

	zap.L().Info("Sheet created", zap.String("sheet", name))
	return nil
}

// ClearRows removes every data row of the named tab, preserving the header.
func (s *Service) ClearRows(ctx context.Context, name string) error {
	_, err := s.api.Spreadsheets.Values.Clear(s.spreadsheetId, fmt.Sprintf("%s!A2:Z", name),
		&sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to clear sheet %q: %w", name, err)
	}
	return nil
}

// WriteRows writes data rows starting at the first row under the header.
func (s *Service) WriteRows(ctx context.Context, name string, rows [][]interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	_, err := s.api.Spreadsheets.Values.Update(s.spreadsheetId, fmt.Sprintf("%s!A2", name),
		&sheetsapi.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write rows to sheet %q: %w", name, err)
	}
	return nil
}

// UpsertRow updates the row whose first cell equals key, or appends a new
// row when no match exists. Unrelated rows are untouched.
func (s *Service) UpsertRow(ctx context.Context, name, key string, row []interface{}) error {
	existing, err := s.api.Spreadsheets.Values.Get(s.spreadsheetId, fmt.Sprintf("%s!A2:A", name)).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to read keys from sheet %q: %w", name, err)
	}

	for i, cells := range existing.Values {
		if len(cells) == 0 {
			continue
		}
		if cell, ok := cells[0].(string); ok && cell == key {
			// Row i is at sheet row i+2 (1-based, after the header).
			_, err = s.api.Spreadsheets.Values.Update(s.spreadsheetId, fmt.Sprintf("%s!A%d", name, i+2),
				&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
				ValueInputOption("RAW").Context(ctx).Do()
			if err != nil {
				return fmt.Errorf("unable to update row %q in sheet %q: %w", key, name, err)
			}
			return nil
		}
	}

	_, err = s.api.Spreadsheets.Values.Append(s.spreadsheetId, fmt.Sprintf("%s!A2", name),
		&sheetsapi.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to append row %q to sheet %q: %w", key, name, err)
	}
	return nil
}
