package services

import (
	"context"
	"fmt"
	"time"

	"finanzas/internal/core"
)

// BudgetReader lists stored budgets.
type BudgetReader interface {
	ListBudgets(ctx context.Context, activeOnly bool) ([]core.Budget, error)
}

// BudgetProgress pairs a budget with its spending progress at a point in time.
type BudgetProgress struct {
	Budget   core.Budget   `json:"budget"`
	Progress core.Progress `json:"progress"`
}

type BudgetService struct {
	budgets BudgetReader
	reader  TransactionReader
}

func NewBudgetService(budgets BudgetReader, reader TransactionReader) *BudgetService {
	return &BudgetService{budgets: budgets, reader: reader}
}

// ProgressAll computes progress for every active budget against the period
// containing now. Budgets whose stored amount is invalid are skipped rather
// than failing the whole report.
func (s *BudgetService) ProgressAll(ctx context.Context, now time.Time) ([]BudgetProgress, error) {
	budgets, err := s.budgets.ListBudgets(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	if len(budgets) == 0 {
		return nil, nil
	}

	// One fetch covers every budget. The window spans the union of the
	// resolved periods, so a weekly budget straddling a year boundary still
	// sees all of its records.
	var from, to time.Time
	for i, b := range budgets {
		p := core.ResolvePeriod(b.Period, now)
		if i == 0 || p.Start.Before(from) {
			from = p.Start
		}
		if i == 0 || p.End.After(to) {
			to = p.End
		}
	}
	records, err := s.reader.ListTransactionsInRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	results := make([]BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		progress, err := core.ComputeProgress(b, records, now)
		if err != nil {
			continue
		}
		results = append(results, BudgetProgress{Budget: b, Progress: progress})
	}
	return results, nil
}
