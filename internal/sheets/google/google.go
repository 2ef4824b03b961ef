package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	ports "finanzas/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.SummaryExporter = (*Client)(nil)

// NewClient creates a Sheets client authenticated with service-account
// credentials. Either credentialsJSON or credentialsFile must be set.
func NewClient(ctx context.Context, spreadsheetID, credentialsFile, credentialsJSON string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	credentials, err := loadCredentials(credentialsFile, credentialsJSON)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func loadCredentials(credentialsFile, credentialsJSON string) ([]byte, error) {
	switch {
	case strings.TrimSpace(credentialsJSON) != "":
		return []byte(credentialsJSON), nil
	case strings.TrimSpace(credentialsFile) != "":
		data, err := os.ReadFile(strings.TrimSpace(credentialsFile))
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials")
	}
}

// ExportSummary replaces the sheet's contents with the given rows.
func (c *Client) ExportSummary(ctx context.Context, sheetName string, rows [][]any) error {
	clearRange := fmt.Sprintf("%s!A:Z", sheetName)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = row
	}

	writeRange := fmt.Sprintf("%s!A1", sheetName)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, &gsheet.ValueRange{
		Values: values,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Summary exported to Google Sheets",
		"sheet", sheetName, "rows", len(rows))
	return nil
}
