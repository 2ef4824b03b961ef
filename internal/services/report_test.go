package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"finanzas/internal/core"
)

func reportFixtures() *fakeStore {
	return &fakeStore{
		records: []core.Record{
			{ID: "t1", Date: core.NewDate(2024, 6, 1), Amount: core.Money{Cents: 10000}, Kind: core.Expense, CategoryID: "c1", CategoryName: "Food"},
			{ID: "t2", Date: core.NewDate(2024, 6, 15), Amount: core.Money{Cents: 5000}, Kind: core.Expense, CategoryID: "c1", CategoryName: "Food"},
			{ID: "t3", Date: core.NewDate(2024, 6, 10), Amount: core.Money{Cents: 20000}, Kind: core.Expense, CategoryID: "c2", CategoryName: "Rent"},
			{ID: "t4", Date: core.NewDate(2024, 6, 1), Amount: core.Money{Cents: 200000}, Kind: core.Income},
			{ID: "t5", Date: core.NewDate(2024, 5, 20), Amount: core.Money{Cents: 7000}, Kind: core.Expense, CategoryName: "Food"},
		},
	}
}

func TestReportService_MonthlyReport(t *testing.T) {
	svc := NewReportService(reportFixtures())

	report, err := svc.MonthlyReport(context.Background(), time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("MonthlyReport() error = %v", err)
	}

	if report.Month != "2024-06" {
		t.Errorf("Month = %q, want 2024-06", report.Month)
	}
	if report.Summary.Income.Cents != 200000 {
		t.Errorf("Income = %d, want 200000", report.Summary.Income.Cents)
	}
	if report.Summary.Expense.Cents != 35000 {
		t.Errorf("Expense = %d, want 35000", report.Summary.Expense.Cents)
	}
	if len(report.ByCategory) != 2 {
		t.Fatalf("ByCategory has %d entries, want 2", len(report.ByCategory))
	}
	// May's expense must not leak into June's category sums.
	for _, c := range report.ByCategory {
		if c.Name == "Food" && c.Amount.Cents != 15000 {
			t.Errorf("Food = %d, want 15000", c.Amount.Cents)
		}
	}
	if report.TopCategories[0].Name != "Rent" {
		t.Errorf("TopCategories[0] = %q, want Rent", report.TopCategories[0].Name)
	}
	if len(report.MonthlyTrend) != 2 {
		t.Fatalf("MonthlyTrend has %d entries, want 2", len(report.MonthlyTrend))
	}
	if report.MonthlyTrend[0].MonthKey != "2024-05" {
		t.Errorf("MonthlyTrend[0] = %q, want 2024-05", report.MonthlyTrend[0].MonthKey)
	}
}

func TestReportService_MonthlyReportError(t *testing.T) {
	svc := NewReportService(&fakeStore{failReads: true})
	if _, err := svc.MonthlyReport(context.Background(), time.Now()); err == nil {
		t.Fatal("MonthlyReport() should propagate reader errors")
	}
}

func TestReportService_Search(t *testing.T) {
	svc := NewReportService(reportFixtures())

	got, err := svc.Search(context.Background(), "rent")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "t3" {
		t.Errorf("Search(rent) = %+v, want single t3", got)
	}
}

func TestReportService_ExportCSV(t *testing.T) {
	svc := NewReportService(reportFixtures())

	data, err := svc.ExportCSV(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ExportCSV() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("CSV has %d lines, want 5 (header + 4 rows)", len(lines))
	}
	if lines[0] != "fecha,tipo,categoria,descripcion,monto" {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "2024-06-01,expense,Food,,100") {
		t.Errorf("first row = %q", lines[1])
	}
	if !strings.Contains(string(data), core.UncategorizedLabel) {
		t.Error("uncategorized income row should use the fallback label")
	}
}

func TestSummaryRows(t *testing.T) {
	report := MonthlyReport{
		Month:   "2024-06",
		Summary: core.Summary{Income: core.Money{Cents: 200000}, Expense: core.Money{Cents: 35000}},
		ByCategory: []core.CategoryAmount{
			{Name: "Food", Amount: core.Money{Cents: 15000}},
		},
	}

	rows := SummaryRows(report)
	if len(rows) != 6 {
		t.Fatalf("SummaryRows returned %d rows, want 6", len(rows))
	}
	if rows[0][1] != "2024-06" {
		t.Errorf("rows[0] = %v", rows[0])
	}
	if rows[5][0] != "Food" || rows[5][1] != 150.0 {
		t.Errorf("rows[5] = %v", rows[5])
	}
}
