package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
	Saving  Kind = "saving"
)

const (
	Weekly    PeriodKind = "weekly"
	Monthly   PeriodKind = "monthly"
	Quarterly PeriodKind = "quarterly"
	Yearly    PeriodKind = "yearly"
)

type (
	// Kind classifies a record as income, expense or saving.
	Kind string

	// PeriodKind is the recurrence cadence used to bound budget progress.
	PeriodKind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Record is a unified read-only view over a transaction.
	// CategoryID, CategoryName and Description are optional; the empty
	// string means absent.
	Record struct {
		ID           string
		Date         Date
		Amount       Money
		Kind         Kind
		CategoryID   string
		CategoryName string
		Description  string
	}

	// FixedExpense is a recurring monthly obligation with a paid flag.
	// DueDate keeps the external dd/MM/yyyy representation; GroupID and
	// GroupName are empty when the expense is ungrouped.
	FixedExpense struct {
		ID            string
		Month         Date
		GroupID       string
		GroupName     string
		Name          string
		DueDate       string
		Amount        Money
		Paid          bool
		PaymentSource string
		Notes         string
	}

	// ExpenseGroup labels a set of fixed expenses.
	ExpenseGroup struct {
		ID   string
		Name string
	}

	// Category labels transactions for budgeting and reporting.
	Category struct {
		ID   string
		Name string
	}

	Budget struct {
		ID         string
		Name       string
		Amount     Money
		CategoryID string // empty = all categories
		Period     PeriodKind
		StartDate  Date
		EndDate    Date // zero = open ended
		Active     bool
	}

	// DateRange is an inclusive interval.
	DateRange struct {
		Start time.Time
		End   time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidPeriod = errors.New("invalid period")
	ErrEmptyName     = errors.New("empty name")
)

// NewDate creates a Date from year, month, day. Stored dates are plain
// calendar dates; they are never shifted by a viewer timezone offset.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// IsEmpty reports whether the date is unset.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (k Kind) IsValid() bool {
	switch k {
	case Income, Expense, Saving:
		return true
	}
	return false
}

func (p PeriodKind) IsValid() bool {
	switch p {
	case Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// NewDateRange builds an inclusive range, rejecting start > end.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.After(end) {
		return DateRange{}, ErrInvalidRange
	}
	return DateRange{Start: start, End: end}, nil
}

// Contains reports whether t falls within the range, both ends inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	if !b.Period.IsValid() {
		return ErrInvalidPeriod
	}
	if !b.EndDate.IsEmpty() && b.EndDate.Before(b.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

func (r Record) Validate() error {
	if r.Date.IsEmpty() {
		return errors.New("date cannot be zero")
	}
	if r.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	if !r.Kind.IsValid() {
		return errors.New("invalid record kind")
	}
	return nil
}

func (e FixedExpense) Validate() error {
	if len(strings.TrimSpace(e.Name)) == 0 {
		return ErrEmptyName
	}
	if len(e.Name) > 200 {
		return errors.New("name too long (max 200 characters)")
	}
	if e.Month.IsEmpty() {
		return errors.New("month cannot be zero")
	}
	if e.Amount.Cents < 0 {
		return ErrInvalidAmount
	}
	return nil
}
