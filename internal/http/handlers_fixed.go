package http

import (
	"errors"
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type fixedExpenseResponse struct {
	ID            string `json:"id"`
	Month         string `json:"month"`
	GroupID       string `json:"group_id,omitempty"`
	GroupName     string `json:"group_name,omitempty"`
	Name          string `json:"name"`
	DueDate       string `json:"due_date,omitempty"`
	AmountCents   int64  `json:"amount_cents"`
	Amount        string `json:"amount"`
	Paid          bool   `json:"paid"`
	PaymentSource string `json:"payment_source,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

type monthViewResponse struct {
	Expenses    []fixedExpenseResponse `json:"expenses"`
	TotalCents  int64                  `json:"total_cents"`
	PaidCents   int64                  `json:"paid_cents"`
	UnpaidCents int64                  `json:"unpaid_cents"`
	PaidCount   int                    `json:"paid_count"`
	TotalCount  int                    `json:"total_count"`
}

type fixedExpenseRequest struct {
	Month         string `json:"month"`
	GroupID       string `json:"group_id"`
	Name          string `json:"name"`
	DueDate       string `json:"due_date"`
	Amount        string `json:"amount"`
	PaymentSource string `json:"payment_source"`
	Notes         string `json:"notes"`
}

type setPaidRequest struct {
	Paid bool `json:"paid"`
}

func toFixedExpenseResponse(e core.FixedExpense) fixedExpenseResponse {
	return fixedExpenseResponse{
		ID:            e.ID,
		Month:         e.Month.Format("2006-01"),
		GroupID:       e.GroupID,
		GroupName:     e.GroupName,
		Name:          e.Name,
		DueDate:       e.DueDate,
		AmountCents:   e.Amount.Cents,
		Amount:        e.Amount.PlainString(),
		Paid:          e.Paid,
		PaymentSource: e.PaymentSource,
		Notes:         e.Notes,
	}
}

// parseFixedExpenseQuery maps the list query parameters onto the filter and
// sort pipeline. An absent sort parameter means no sort at all.
func parseFixedExpenseQuery(r *http.Request) (core.FilterState, *core.SortConfig) {
	q := r.URL.Query()

	filters := core.FilterState{
		GroupID:       q.Get("group"),
		PaidStatus:    core.PaidAll,
		PaymentSource: q.Get("payment_source"),
	}
	switch q.Get("paid") {
	case "true":
		filters.PaidStatus = core.PaidOnly
	case "false":
		filters.PaidStatus = core.UnpaidOnly
	}

	sortKey := q.Get("sort")
	if sortKey == "" {
		return filters, nil
	}
	cfg := &core.SortConfig{
		Key:       core.SortKey(sortKey),
		Direction: core.Ascending,
	}
	if q.Get("dir") == "desc" {
		cfg.Direction = core.Descending
	}
	return filters, cfg
}

func (s *Server) handleListFixedExpenses(w http.ResponseWriter, r *http.Request) {
	month, err := parseMonth(r, s.now())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	filters, sortCfg := parseFixedExpenseQuery(r)

	view, err := s.fixed.Month(r.Context(), month, filters, sortCfg)
	if err != nil {
		slog.ErrorContext(r.Context(), "List fixed expenses failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list fixed expenses")
		return
	}

	out := monthViewResponse{
		Expenses:    make([]fixedExpenseResponse, len(view.Expenses)),
		TotalCents:  view.TotalCents,
		PaidCents:   view.PaidCents,
		UnpaidCents: view.UnpaidCents,
		PaidCount:   view.PaidCount,
		TotalCount:  view.TotalCount,
	}
	for i, e := range view.Expenses {
		out.Expenses[i] = toFixedExpenseResponse(e)
	}
	respondJSON(w, http.StatusOK, out)
}

// expenseFromRequest validates the payload and builds the domain value.
// A non-empty due date must parse as dd/MM/yyyy.
func (s *Server) expenseFromRequest(req fixedExpenseRequest) (core.FixedExpense, error) {
	month, err := parseMonthString(req.Month, s.now())
	if err != nil {
		return core.FixedExpense{}, err
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return core.FixedExpense{}, errors.New("invalid amount")
	}

	dueDate := sanitizeInput(req.DueDate)
	if dueDate != "" {
		if _, ok := core.ParseDueDate(dueDate); !ok {
			return core.FixedExpense{}, errors.New("invalid due_date: want dd/MM/yyyy")
		}
	}

	expense := core.FixedExpense{
		Month:         month,
		GroupID:       sanitizeInput(req.GroupID),
		Name:          sanitizeInput(req.Name),
		DueDate:       dueDate,
		Amount:        core.Money{Cents: cents},
		PaymentSource: sanitizeInput(req.PaymentSource),
		Notes:         sanitizeInput(req.Notes),
	}
	if err := expense.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	return expense, nil
}

func (s *Server) handleCreateFixedExpense(w http.ResponseWriter, r *http.Request) {
	var req fixedExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.expenseFromRequest(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.fixed.Create(r.Context(), expense)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create fixed expense failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create fixed expense")
		return
	}

	respondJSON(w, http.StatusCreated, toFixedExpenseResponse(created))
}

func (s *Server) handleUpdateFixedExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req fixedExpenseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.expenseFromRequest(req)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense.ID = id

	if err := s.fixed.Update(r.Context(), expense); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fixed expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Update fixed expense failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not update fixed expense")
		return
	}

	respondJSON(w, http.StatusOK, toFixedExpenseResponse(expense))
}

func (s *Server) handleSetFixedExpensePaid(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setPaidRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.fixed.SetPaid(r.Context(), id, req.Paid); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fixed expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Set fixed expense paid failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not update fixed expense")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"paid": req.Paid})
}

func (s *Server) handleDeleteFixedExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.fixed.Delete(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "fixed expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete fixed expense failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete fixed expense")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
