package core

import (
	"sort"
	"strings"
	"time"
)

const (
	PaidAll    PaidStatus = "all"
	PaidOnly   PaidStatus = "paid"
	UnpaidOnly PaidStatus = "unpaid"
)

const (
	SortByName          SortKey = "name"
	SortByGroup         SortKey = "group"
	SortByDueDate       SortKey = "due_date"
	SortByAmount        SortKey = "amount"
	SortByPaid          SortKey = "paid"
	SortByPaymentSource SortKey = "payment_source"
)

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

type (
	// PaidStatus narrows fixed expenses by their paid flag.
	PaidStatus string

	// SortKey selects the fixed-expense field to order by.
	SortKey string

	SortDirection string

	// FilterState holds the active fixed-expense filters. All filters are
	// conjunctive: a surviving expense satisfies every active one.
	// GroupID "all" (or empty) disables the group filter; an empty
	// PaymentSource disables the substring filter.
	FilterState struct {
		GroupID       string
		PaidStatus    PaidStatus
		PaymentSource string
	}

	// SortConfig describes the requested ordering. A nil *SortConfig means
	// no sort: the filtered expenses keep their input order.
	SortConfig struct {
		Key       SortKey
		Direction SortDirection
	}
)

// dueDateLayout is the external representation of fixed-expense due dates.
const dueDateLayout = "02/01/2006"

// ParseDueDate parses the dd/MM/yyyy due-date string. The second return is
// false for empty or unparseable input.
func ParseDueDate(s string) (Date, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, false
	}
	t, err := time.Parse(dueDateLayout, s)
	if err != nil {
		return Date{}, false
	}
	return Date{Time: t}, true
}

// FilterAndSort applies the active filters and then the requested ordering.
// The input slice is never mutated; the result is a new slice.
//
// Sorting is stable, so equal keys keep their original relative order, and
// the operation is idempotent: running it again with the same parameters
// returns the same sequence. Missing or unparseable sort values always order
// after every valid value, independent of direction. That rule is load-bearing
// for callers that page through the result; keep it when touching the
// comparator.
func FilterAndSort(expenses []FixedExpense, filters FilterState, cfg *SortConfig) []FixedExpense {
	out := make([]FixedExpense, 0, len(expenses))
	for _, e := range expenses {
		if filters.Matches(e) {
			out = append(out, e)
		}
	}

	if cfg == nil {
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessExpense(out[i], out[j], *cfg)
	})
	return out
}

// Matches reports whether a single expense passes every active filter.
func (f FilterState) Matches(e FixedExpense) bool {
	if f.GroupID != "" && f.GroupID != "all" && e.GroupID != f.GroupID {
		return false
	}
	switch f.PaidStatus {
	case PaidOnly:
		if !e.Paid {
			return false
		}
	case UnpaidOnly:
		if e.Paid {
			return false
		}
	}
	if f.PaymentSource != "" {
		// An absent payment source never matches a non-empty filter.
		if e.PaymentSource == "" {
			return false
		}
		if !strings.Contains(strings.ToLower(e.PaymentSource), strings.ToLower(f.PaymentSource)) {
			return false
		}
	}
	return true
}

// sortValue is the extracted comparison key for one expense. Exactly one of
// str/num is meaningful depending on numeric; ok=false marks a missing value.
type sortValue struct {
	str     string
	num     int64
	numeric bool
	ok      bool
}

func extractSortValue(e FixedExpense, key SortKey) sortValue {
	switch key {
	case SortByGroup:
		// Ungrouped compares as the empty string, like any other name.
		return sortValue{str: e.GroupName, ok: true}
	case SortByDueDate:
		d, ok := ParseDueDate(e.DueDate)
		return sortValue{num: d.Unix(), numeric: true, ok: ok}
	case SortByAmount:
		return sortValue{num: e.Amount.Cents, numeric: true, ok: true}
	case SortByPaid:
		var n int64
		if e.Paid {
			n = 1
		}
		return sortValue{num: n, numeric: true, ok: true}
	case SortByPaymentSource:
		return sortValue{str: e.PaymentSource, ok: e.PaymentSource != ""}
	default: // SortByName and anything unrecognized
		return sortValue{str: e.Name, ok: true}
	}
}

func lessExpense(a, b FixedExpense, cfg SortConfig) bool {
	av := extractSortValue(a, cfg.Key)
	bv := extractSortValue(b, cfg.Key)

	// Missing values sort after all valid values regardless of direction.
	if !av.ok || !bv.ok {
		return av.ok && !bv.ok
	}

	var c int
	if av.numeric {
		switch {
		case av.num < bv.num:
			c = -1
		case av.num > bv.num:
			c = 1
		}
	} else {
		c = strings.Compare(av.str, bv.str)
	}

	if cfg.Direction == Descending {
		return c > 0
	}
	return c < 0
}
