package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"finanzas/internal/core"

	"golang.org/x/sync/errgroup"
)

// TransactionReader is the slice of the repository the report service needs.
type TransactionReader interface {
	ListTransactions(ctx context.Context) ([]core.Record, error)
	ListTransactionsInRange(ctx context.Context, from, to time.Time) ([]core.Record, error)
}

// MonthlyReport aggregates one calendar month of activity plus the
// cross-month trend used by the dashboard chart.
type MonthlyReport struct {
	Month         string                `json:"month"`
	Summary       core.Summary          `json:"summary"`
	ByCategory    []core.CategoryAmount `json:"by_category"`
	TopCategories []core.CategoryAmount `json:"top_categories"`
	MonthlyTrend  []core.MonthTotal     `json:"monthly_trend"`
}

type ReportService struct {
	reader TransactionReader
}

func NewReportService(reader TransactionReader) *ReportService {
	return &ReportService{reader: reader}
}

// MonthlyReport builds the dashboard report for the month containing reference.
// The month slice and the all-time trend are fetched concurrently.
func (s *ReportService) MonthlyReport(ctx context.Context, reference time.Time) (MonthlyReport, error) {
	period := core.ResolvePeriod(core.Monthly, reference)

	var (
		monthRecords []core.Record
		allRecords   []core.Record
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.reader.ListTransactionsInRange(gctx, period.Start, period.End)
		if err != nil {
			return fmt.Errorf("list month transactions: %w", err)
		}
		monthRecords = records
		return nil
	})
	g.Go(func() error {
		records, err := s.reader.ListTransactions(gctx)
		if err != nil {
			return fmt.Errorf("list all transactions: %w", err)
		}
		allRecords = records
		return nil
	})
	if err := g.Wait(); err != nil {
		return MonthlyReport{}, err
	}

	byCategory := core.SumByCategory(monthRecords, core.Expense)
	top := core.SortedByAmountDesc(byCategory)
	if len(top) > 5 {
		top = top[:5]
	}

	return MonthlyReport{
		Month:         period.Start.Format("2006-01"),
		Summary:       core.SumIncomeExpense(monthRecords),
		ByCategory:    byCategory,
		TopCategories: top,
		MonthlyTrend:  core.SumByMonth(allRecords, core.Expense),
	}, nil
}

// Search returns transactions matching the free-text query, newest first
// ordering is left to the reader.
func (s *ReportService) Search(ctx context.Context, query string) ([]core.Record, error) {
	records, err := s.reader.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return core.Search(records, query), nil
}

var csvHeader = []string{"fecha", "tipo", "categoria", "descripcion", "monto"}

// ExportCSV renders every transaction in [from, to] as a CSV document.
func (s *ReportService) ExportCSV(ctx context.Context, from, to time.Time) ([]byte, error) {
	records, err := s.reader.ListTransactionsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		category := r.CategoryName
		if category == "" {
			category = core.UncategorizedLabel
		}
		row := []string{
			r.Date.Format("2006-01-02"),
			string(r.Kind),
			category,
			r.Description,
			r.Amount.PlainString(),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// SummaryRows flattens a monthly report into spreadsheet rows.
func SummaryRows(report MonthlyReport) [][]any {
	rows := [][]any{
		{"Mes", report.Month},
		{"Ingresos", report.Summary.Income.Units()},
		{"Gastos", report.Summary.Expense.Units()},
		{},
		{"Categoria", "Monto"},
	}
	for _, c := range report.ByCategory {
		rows = append(rows, []any{c.Name, c.Amount.Units()})
	}
	return rows
}
