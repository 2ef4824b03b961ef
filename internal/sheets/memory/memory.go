package memory

import (
	"context"
	"sync"

	ports "finanzas/internal/sheets"
)

// Store is an in-memory SummaryExporter for tests and local development.
type Store struct {
	mu      sync.Mutex
	exports map[string][][]any
}

var _ ports.SummaryExporter = (*Store)(nil)

func New() *Store {
	return &Store{exports: make(map[string][][]any)}
}

// ExportSummary keeps only the latest rows per sheet, like the real exporter.
func (s *Store) ExportSummary(_ context.Context, sheetName string, rows [][]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([][]any, len(rows))
	for i, row := range rows {
		copied[i] = append([]any(nil), row...)
	}
	s.exports[sheetName] = copied
	return nil
}

// Rows returns the last exported rows for a sheet.
func (s *Store) Rows(sheetName string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports[sheetName]
}
