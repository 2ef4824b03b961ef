package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finanzas/internal/core"
)

type fakeStore struct {
	records []core.Record
	budgets []core.Budget
	fixed   []core.FixedExpense
	latest  time.Time

	failReads bool
	nextID    int
}

var errFakeRead = errors.New("read failed")

func (f *fakeStore) ListTransactions(ctx context.Context) ([]core.Record, error) {
	if f.failReads {
		return nil, errFakeRead
	}
	return append([]core.Record(nil), f.records...), nil
}

func (f *fakeStore) ListTransactionsInRange(ctx context.Context, from, to time.Time) ([]core.Record, error) {
	if f.failReads {
		return nil, errFakeRead
	}
	r := core.DateRange{Start: from, End: to}
	var out []core.Record
	for _, record := range f.records {
		if r.Contains(record.Date.Time) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBudgets(ctx context.Context, activeOnly bool) ([]core.Budget, error) {
	if f.failReads {
		return nil, errFakeRead
	}
	var out []core.Budget
	for _, b := range f.budgets {
		if activeOnly && !b.Active {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) LatestTransactionTime(ctx context.Context) (time.Time, error) {
	if f.failReads {
		return time.Time{}, errFakeRead
	}
	return f.latest, nil
}

func (f *fakeStore) ListFixedExpenses(ctx context.Context, month core.Date) ([]core.FixedExpense, error) {
	if f.failReads {
		return nil, errFakeRead
	}
	var out []core.FixedExpense
	for _, e := range f.fixed {
		if e.Month.Equal(month.Time) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateFixedExpense(ctx context.Context, e core.FixedExpense) (core.FixedExpense, error) {
	if err := e.Validate(); err != nil {
		return core.FixedExpense{}, err
	}
	f.nextID++
	e.ID = fmt.Sprintf("fe-%d", f.nextID)
	f.fixed = append(f.fixed, e)
	return e, nil
}

func (f *fakeStore) UpdateFixedExpense(ctx context.Context, e core.FixedExpense) error {
	for i := range f.fixed {
		if f.fixed[i].ID == e.ID {
			f.fixed[i] = e
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) SetFixedExpensePaid(ctx context.Context, id string, paid bool) error {
	for i := range f.fixed {
		if f.fixed[i].ID == id {
			f.fixed[i].Paid = paid
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) DeleteFixedExpense(ctx context.Context, id string) error {
	for i := range f.fixed {
		if f.fixed[i].ID == id {
			f.fixed = append(f.fixed[:i], f.fixed[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func (f *fakeStore) MonthHasFixedExpenses(ctx context.Context, month core.Date) (bool, error) {
	if f.failReads {
		return false, errFakeRead
	}
	for _, e := range f.fixed {
		if e.Month.Equal(month.Time) {
			return true, nil
		}
	}
	return false, nil
}

type enqueued struct {
	kind    string
	subject string
	body    string
}

type fakeOutbox struct {
	sent   []enqueued
	nextID int
}

func (f *fakeOutbox) EnqueueNotification(ctx context.Context, kind, subject, body string) (string, error) {
	f.nextID++
	f.sent = append(f.sent, enqueued{kind: kind, subject: subject, body: body})
	return fmt.Sprintf("n-%d", f.nextID), nil
}

type fakePublisher struct {
	published []string
	fail      bool
}

func (f *fakePublisher) PublishNotification(ctx context.Context, id, kind string) error {
	if f.fail {
		return errors.New("publish failed")
	}
	f.published = append(f.published, id)
	return nil
}
