package core

import "sort"

// UncategorizedLabel substitutes for a missing category name when bucketing.
const UncategorizedLabel = "Sin Categoría"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthTotal is the aggregated amount for one calendar month.
type MonthTotal struct {
	MonthKey string // "YYYY-MM"
	Total    Money
}

// Summary is the two-way income/expense split over a record set.
// Balance (income minus expense) is derived by callers, not stored here.
type Summary struct {
	Income  Money
	Expense Money
}

// SumByCategory filters records to the given kind and sums amounts per
// category name, substituting UncategorizedLabel when the name is absent.
// Output order is the order categories are first encountered, which keeps
// results deterministic for a given input without imposing a ranking.
func SumByCategory(records []Record, kind Kind) []CategoryAmount {
	totals := make(map[string]int64)
	var names []string

	for _, r := range records {
		if r.Kind != kind {
			continue
		}
		name := r.CategoryName
		if name == "" {
			name = UncategorizedLabel
		}
		if _, seen := totals[name]; !seen {
			names = append(names, name)
		}
		totals[name] += r.Amount.Cents
	}

	out := make([]CategoryAmount, 0, len(names))
	for _, name := range names {
		out = append(out, CategoryAmount{Name: name, Amount: Money{Cents: totals[name]}})
	}
	return out
}

// SortedByAmountDesc returns a copy ordered by amount, largest first, as the
// category charts consume it. Ties keep their first-encounter order.
func SortedByAmountDesc(in []CategoryAmount) []CategoryAmount {
	out := make([]CategoryAmount, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// SumByMonth buckets records of the given kind by the calendar month of their
// own stored date and sums amounts per bucket, ascending by month key. The
// record's date is read as a plain calendar date, never shifted into the
// viewer's timezone.
func SumByMonth(records []Record, kind Kind) []MonthTotal {
	totals := make(map[string]int64)

	for _, r := range records {
		if r.Kind != kind {
			continue
		}
		totals[monthKey(r.Date)] += r.Amount.Cents
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]MonthTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, MonthTotal{MonthKey: k, Total: Money{Cents: totals[k]}})
	}
	return out
}

// SumIncomeExpense splits a record set into income and expense totals.
// Savings contribute to neither side.
func SumIncomeExpense(records []Record) Summary {
	var s Summary
	for _, r := range records {
		switch r.Kind {
		case Income:
			s.Income.Cents += r.Amount.Cents
		case Expense:
			s.Expense.Cents += r.Amount.Cents
		}
	}
	return s
}

func monthKey(d Date) string {
	return d.Format("2006-01")
}
