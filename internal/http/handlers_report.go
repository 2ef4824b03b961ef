package http

import (
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

type categoryAmountResponse struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type monthTotalResponse struct {
	Month      string `json:"month"`
	TotalCents int64  `json:"total_cents"`
}

type reportResponse struct {
	Month         string                   `json:"month"`
	IncomeCents   int64                    `json:"income_cents"`
	ExpenseCents  int64                    `json:"expense_cents"`
	BalanceCents  int64                    `json:"balance_cents"`
	ByCategory    []categoryAmountResponse `json:"by_category"`
	TopCategories []categoryAmountResponse `json:"top_categories"`
	MonthlyTrend  []monthTotalResponse     `json:"monthly_trend"`
}

func toCategoryAmounts(in []core.CategoryAmount) []categoryAmountResponse {
	out := make([]categoryAmountResponse, len(in))
	for i, c := range in {
		out[i] = categoryAmountResponse{
			Name:        c.Name,
			AmountCents: c.Amount.Cents,
			Amount:      c.Amount.PlainString(),
		}
	}
	return out
}

func toReportResponse(report services.MonthlyReport) reportResponse {
	trend := make([]monthTotalResponse, len(report.MonthlyTrend))
	for i, m := range report.MonthlyTrend {
		trend[i] = monthTotalResponse{Month: m.MonthKey, TotalCents: m.Total.Cents}
	}
	return reportResponse{
		Month:         report.Month,
		IncomeCents:   report.Summary.Income.Cents,
		ExpenseCents:  report.Summary.Expense.Cents,
		BalanceCents:  report.Summary.Income.Cents - report.Summary.Expense.Cents,
		ByCategory:    toCategoryAmounts(report.ByCategory),
		TopCategories: toCategoryAmounts(report.TopCategories),
		MonthlyTrend:  trend,
	}
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	cacheKey := "report:" + month.Format("2006-01")
	report, hit := s.reportCache.Get(cacheKey)
	if !hit {
		report, err = s.reports.MonthlyReport(r.Context(), month.Time)
		if err != nil {
			slog.ErrorContext(r.Context(), "Monthly report failed", "error", err)
			respondError(w, http.StatusInternalServerError, "report unavailable")
			return
		}
		s.reportCache.Set(cacheKey, report)
	}

	respondJSON(w, http.StatusOK, toReportResponse(report))
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	from := core.NewDate(now.Year(), 1, 1)
	to := core.NewDate(now.Year(), 12, 31)

	if v := r.URL.Query().Get("from"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid from date: want YYYY-MM-DD")
			return
		}
		from = d
	}
	if v := r.URL.Query().Get("to"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid to date: want YYYY-MM-DD")
			return
		}
		to = d
	}
	if from.After(to.Time) {
		respondError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	data, err := s.reports.ExportCSV(r.Context(), from.Time, to.Time)
	if err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "error", err)
		respondError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="movimientos.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleExportSheets(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		respondError(w, http.StatusNotImplemented, "sheets export not configured")
		return
	}

	month, err := parseMonth(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.reports.MonthlyReport(r.Context(), month.Time)
	if err != nil {
		slog.ErrorContext(r.Context(), "Monthly report failed", "error", err)
		respondError(w, http.StatusInternalServerError, "report unavailable")
		return
	}

	if err := s.exporter.ExportSummary(r.Context(), s.sheetName, services.SummaryRows(report)); err != nil {
		slog.ErrorContext(r.Context(), "Sheets export failed", "error", err)
		respondError(w, http.StatusBadGateway, "sheets export failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "exported", "month": report.Month})
}

type transactionResponse struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	AmountCents  int64  `json:"amount_cents"`
	Amount       string `json:"amount"`
	Kind         string `json:"kind"`
	CategoryID   string `json:"category_id,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	Description  string `json:"description,omitempty"`
}

func toTransactionResponse(r core.Record) transactionResponse {
	return transactionResponse{
		ID:           r.ID,
		Date:         r.Date.Format("2006-01-02"),
		AmountCents:  r.Amount.Cents,
		Amount:       r.Amount.PlainString(),
		Kind:         string(r.Kind),
		CategoryID:   r.CategoryID,
		CategoryName: r.CategoryName,
		Description:  r.Description,
	}
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	records, err := s.reports.Search(r.Context(), query)
	if err != nil {
		slog.ErrorContext(r.Context(), "Search failed", "error", err)
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}

	out := make([]transactionResponse, len(records))
	for i, record := range records {
		out[i] = toTransactionResponse(record)
	}
	respondJSON(w, http.StatusOK, out)
}
