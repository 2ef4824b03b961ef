package core

import "time"

// Progress is the consumed portion of a budget within its current period.
// Spent carries the raw amount so callers can derive overspend
// (Spent - budget.Amount); only Percentage is clamped.
type Progress struct {
	Spent      Money
	Percentage float64 // 0..100, capped even when overspent
}

// ComputeProgress sums the expenses matching the budget's category within the
// period containing now and reports the fraction of the budget they consume.
//
// A budget with an empty CategoryID matches every category. Records outside
// the resolved period, records of other kinds, and savings never contribute.
// An empty record set yields a zero Progress. A non-positive budget amount is
// a caller bug and returns ErrInvalidAmount rather than a nonsensical result.
func ComputeProgress(budget Budget, records []Record, now time.Time) (Progress, error) {
	if budget.Amount.Cents <= 0 {
		return Progress{}, ErrInvalidAmount
	}

	period := ResolvePeriod(budget.Period, now)

	var spent int64
	for _, r := range records {
		if r.Kind != Expense {
			continue
		}
		if !period.Contains(r.Date.Time) {
			continue
		}
		if budget.CategoryID != "" && r.CategoryID != budget.CategoryID {
			continue
		}
		spent += r.Amount.Cents
	}

	percentage := float64(spent) / float64(budget.Amount.Cents) * 100
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	return Progress{
		Spent:      Money{Cents: spent},
		Percentage: percentage,
	}, nil
}
