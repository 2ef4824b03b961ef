package services

import (
	"context"
	"fmt"
	"log/slog"

	"finanzas/internal/core"
)

// FixedExpenseStore is the repository surface for fixed monthly expenses.
type FixedExpenseStore interface {
	ListFixedExpenses(ctx context.Context, month core.Date) ([]core.FixedExpense, error)
	CreateFixedExpense(ctx context.Context, e core.FixedExpense) (core.FixedExpense, error)
	UpdateFixedExpense(ctx context.Context, e core.FixedExpense) error
	SetFixedExpensePaid(ctx context.Context, id string, paid bool) error
	DeleteFixedExpense(ctx context.Context, id string) error
	MonthHasFixedExpenses(ctx context.Context, month core.Date) (bool, error)
}

// MonthView is a filtered, sorted view of one month of fixed expenses with
// the totals the checklist screen shows.
type MonthView struct {
	Expenses    []core.FixedExpense `json:"expenses"`
	TotalCents  int64               `json:"total_cents"`
	PaidCents   int64               `json:"paid_cents"`
	UnpaidCents int64               `json:"unpaid_cents"`
	PaidCount   int                 `json:"paid_count"`
	TotalCount  int                 `json:"total_count"`
}

type FixedExpenseService struct {
	store FixedExpenseStore
}

func NewFixedExpenseService(store FixedExpenseStore) *FixedExpenseService {
	return &FixedExpenseService{store: store}
}

// Month lists the month's fixed expenses through the filter and sort pipeline.
// Totals are computed over the filtered set.
func (s *FixedExpenseService) Month(ctx context.Context, month core.Date, filters core.FilterState, sort *core.SortConfig) (MonthView, error) {
	expenses, err := s.store.ListFixedExpenses(ctx, month)
	if err != nil {
		return MonthView{}, fmt.Errorf("list fixed expenses: %w", err)
	}

	filtered := core.FilterAndSort(expenses, filters, sort)

	view := MonthView{Expenses: filtered, TotalCount: len(filtered)}
	for _, e := range filtered {
		view.TotalCents += e.Amount.Cents
		if e.Paid {
			view.PaidCents += e.Amount.Cents
			view.PaidCount++
		} else {
			view.UnpaidCents += e.Amount.Cents
		}
	}
	return view, nil
}

func (s *FixedExpenseService) Create(ctx context.Context, e core.FixedExpense) (core.FixedExpense, error) {
	return s.store.CreateFixedExpense(ctx, e)
}

func (s *FixedExpenseService) Update(ctx context.Context, e core.FixedExpense) error {
	return s.store.UpdateFixedExpense(ctx, e)
}

func (s *FixedExpenseService) SetPaid(ctx context.Context, id string, paid bool) error {
	return s.store.SetFixedExpensePaid(ctx, id, paid)
}

func (s *FixedExpenseService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteFixedExpense(ctx, id)
}

// RollOver copies the source month's expenses into the target month with the
// paid flag cleared. It is a no-op when the target month already has entries,
// so the periodic worker can call it repeatedly.
func (s *FixedExpenseService) RollOver(ctx context.Context, from, to core.Date) (int, error) {
	hasEntries, err := s.store.MonthHasFixedExpenses(ctx, to)
	if err != nil {
		return 0, fmt.Errorf("check target month: %w", err)
	}
	if hasEntries {
		return 0, nil
	}

	expenses, err := s.store.ListFixedExpenses(ctx, from)
	if err != nil {
		return 0, fmt.Errorf("list source month: %w", err)
	}

	copied := 0
	for _, e := range expenses {
		e.ID = ""
		e.Month = to
		e.Paid = false
		if _, err := s.store.CreateFixedExpense(ctx, e); err != nil {
			return copied, fmt.Errorf("copy fixed expense %q: %w", e.Name, err)
		}
		copied++
	}

	if copied > 0 {
		slog.InfoContext(ctx, "Fixed expenses rolled over",
			"from", from.Format("2006-01"),
			"to", to.Format("2006-01"),
			"count", copied)
	}
	return copied, nil
}
