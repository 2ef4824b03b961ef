package sheets

import "context"

// SummaryExporter writes a block of report rows to a named sheet, replacing
// whatever the sheet held before.
type SummaryExporter interface {
	ExportSummary(ctx context.Context, sheetName string, rows [][]any) error
}
