package core

import (
	"testing"
	"time"
)

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{
		Name:      "Comida",
		Amount:    Money{Cents: 20000},
		Period:    Monthly,
		StartDate: NewDate(2024, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Budget{
		{Name: "", Amount: Money{Cents: 100}, Period: Monthly, StartDate: NewDate(2024, 1, 1)},
		{Name: "x", Amount: Money{Cents: 0}, Period: Monthly, StartDate: NewDate(2024, 1, 1)},
		{Name: "x", Amount: Money{Cents: 100}, Period: PeriodKind("daily"), StartDate: NewDate(2024, 1, 1)},
		{Name: "x", Amount: Money{Cents: 100}, Period: Monthly, StartDate: NewDate(2024, 2, 1), EndDate: NewDate(2024, 1, 1)},
	}
	for i, b := range bads {
		if err := b.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	good := Record{Date: NewDate(2024, 6, 1), Amount: Money{Cents: 100}, Kind: Expense}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Record{
		{Date: Date{Time: time.Time{}}, Amount: Money{Cents: 1}, Kind: Expense}, // zero date
		{Date: NewDate(2024, 6, 1), Amount: Money{Cents: -1}, Kind: Expense},
		{Date: NewDate(2024, 6, 1), Amount: Money{Cents: 1}, Kind: Kind("transfer")},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestFixedExpenseValidate(t *testing.T) {
	good := FixedExpense{Name: "Alquiler", Month: NewDate(2024, 6, 1), Amount: Money{Cents: 100}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := FixedExpense{Name: "  ", Month: NewDate(2024, 6, 1)}
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for blank name")
	}
}
