package sheets

import (
	"context"
	"fmt"
	"os"

	"nibog/internal/export"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const bookingsSheet = "Bookings"

// Mirror writes export tables into a Google spreadsheet.
type Mirror struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewMirror authenticates with a service-account credentials file.
func NewMirror(ctx context.Context, credentialsFile, spreadsheetID string) (*Mirror, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	conf, err := google.JWTConfigFromJSON(b, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return NewMirrorWithService(srv, spreadsheetID), nil
}

func NewMirrorWithService(srv *sheets.Service, spreadsheetID string) *Mirror {
	return &Mirror{service: srv, spreadsheetID: spreadsheetID}
}

// SyncBookings replaces the Bookings sheet with t and returns the number of data rows written.
func (m *Mirror) SyncBookings(ctx context.Context, t export.Table) (int, error) {
	return m.replace(ctx, bookingsSheet, t)
}

func (m *Mirror) replace(ctx context.Context, sheet string, t export.Table) (int, error) {
	_, err := m.service.Spreadsheets.Values.Clear(m.spreadsheetID, sheet+"!A:Z", &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("clear %s sheet: %w", sheet, err)
	}

	values := make([][]interface{}, 0, len(t.Rows)+1)
	values = append(values, toRow(t.Headers))
	for _, r := range t.Rows {
		values = append(values, toRow(r))
	}

	_, err = m.service.Spreadsheets.Values.Update(m.spreadsheetID, sheet+"!A1", &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("update %s sheet: %w", sheet, err)
	}
	return len(t.Rows), nil
}

func toRow(cells []string) []interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}
