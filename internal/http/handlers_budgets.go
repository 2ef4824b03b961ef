package http

import (
	"errors"
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type budgetResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	AmountCents int64   `json:"amount_cents"`
	Amount      float64 `json:"amount"`
	CategoryID  string  `json:"category_id,omitempty"`
	Period      string  `json:"period"`
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date,omitempty"`
	Active      bool    `json:"active"`
}

type budgetProgressResponse struct {
	Budget     budgetResponse `json:"budget"`
	SpentCents int64          `json:"spent_cents"`
	Percentage float64        `json:"percentage"`
}

type createBudgetRequest struct {
	Name       string `json:"name"`
	Amount     string `json:"amount"`
	CategoryID string `json:"category_id"`
	Period     string `json:"period"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func toBudgetResponse(b core.Budget) budgetResponse {
	resp := budgetResponse{
		ID:          b.ID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		Amount:      b.Amount.Units(),
		CategoryID:  b.CategoryID,
		Period:      string(b.Period),
		StartDate:   b.StartDate.Format("2006-01-02"),
		Active:      b.Active,
	}
	if !b.EndDate.IsEmpty() {
		resp.EndDate = b.EndDate.Format("2006-01-02")
	}
	return resp
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	budgets, err := s.repo.ListBudgets(r.Context(), activeOnly)
	if err != nil {
		slog.ErrorContext(r.Context(), "List budgets failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list budgets")
		return
	}

	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = toBudgetResponse(b)
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	budget := core.Budget{
		Name:       sanitizeInput(req.Name),
		Amount:     core.Money{Cents: cents},
		CategoryID: sanitizeInput(req.CategoryID),
		Period:     core.PeriodKind(req.Period),
		Active:     true,
	}
	if req.StartDate != "" {
		d, err := parseDate(req.StartDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid start_date: want YYYY-MM-DD")
			return
		}
		budget.StartDate = d
	} else {
		now := s.now()
		budget.StartDate = core.NewDate(now.Year(), int(now.Month()), now.Day())
	}
	if req.EndDate != "" {
		d, err := parseDate(req.EndDate)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid end_date: want YYYY-MM-DD")
			return
		}
		budget.EndDate = d
	}

	if err := budget.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateBudget(r.Context(), budget)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create budget failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create budget")
		return
	}

	respondJSON(w, http.StatusCreated, toBudgetResponse(created))
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := s.budgets.ProgressAll(r.Context(), s.now())
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget progress failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not compute budget progress")
		return
	}

	out := make([]budgetProgressResponse, len(progress))
	for i, p := range progress {
		out[i] = budgetProgressResponse{
			Budget:     toBudgetResponse(p.Budget),
			SpentCents: p.Progress.Spent.Cents,
			Percentage: p.Progress.Percentage,
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleSetBudgetActive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req setActiveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.repo.SetBudgetActive(r.Context(), id, req.Active); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Set budget active failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not update budget")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.repo.DeleteBudget(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "budget not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete budget failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete budget")
		return
	}

	respondJSON(w, http.StatusNoContent, nil)
}
