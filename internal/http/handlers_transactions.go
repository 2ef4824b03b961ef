package http

import (
	"errors"
	"log/slog"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/storage"
)

type createTransactionRequest struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Kind        string `json:"kind"`
	CategoryID  string `json:"category_id"`
	Description string `json:"description"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid date: want YYYY-MM-DD")
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	record := core.Record{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Kind:        core.Kind(req.Kind),
		CategoryID:  sanitizeInput(req.CategoryID),
		Description: sanitizeInput(req.Description),
	}
	if err := record.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.repo.CreateTransaction(r.Context(), record)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create transaction failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not save transaction")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusCreated, toTransactionResponse(created))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.repo.DeleteTransaction(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "transaction not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete transaction failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete transaction")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}

type categoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createNameRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{ID: c.ID, Name: c.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createNameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := s.repo.CreateCategory(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create category failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create category")
		return
	}

	respondJSON(w, http.StatusCreated, categoryResponse{ID: category.ID, Name: category.Name})
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := s.repo.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		slog.ErrorContext(r.Context(), "Delete category failed", "id", id, "error", err)
		respondError(w, http.StatusInternalServerError, "could not delete category")
		return
	}

	s.invalidateReports()
	respondJSON(w, http.StatusNoContent, nil)
}

type groupResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.repo.ListGroups(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List groups failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not list groups")
		return
	}

	out := make([]groupResponse, len(groups))
	for i, g := range groups {
		out[i] = groupResponse{ID: g.ID, Name: g.Name}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createNameRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := sanitizeInput(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	group, err := s.repo.CreateGroup(r.Context(), name)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create group failed", "error", err)
		respondError(w, http.StatusInternalServerError, "could not create group")
		return
	}

	respondJSON(w, http.StatusCreated, groupResponse{ID: group.ID, Name: group.Name})
}
