package core

import (
	"reflect"
	"testing"
)

func TestMatches(t *testing.T) {
	rent := Record{
		Date:         NewDate(2024, 6, 1),
		Amount:       Money{Cents: 120000},
		Kind:         Expense,
		CategoryName: "Rent",
	}

	cases := []struct {
		name  string
		r     Record
		query string
		want  bool
	}{
		{"blank query matches everything", rent, "", true},
		{"whitespace-only query matches everything", rent, "   ", true},
		{"substring of category name", rent, "ent", true},
		{"case-insensitive", rent, "RENT", true},
		{"substring of plain amount", rent, "1200", true},
		{"substring of description", Record{Description: "Pago de luz", Amount: Money{Cents: 100}, Kind: Expense}, "luz", true},
		{"no match anywhere", rent, "xyz", false},
		{"nil description treated as empty", rent, "descripcion", false},
		{"currency formatting is not searched", rent, "$1200", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(tc.r, tc.query); got != tc.want {
				t.Errorf("Matches(%q) = %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	records := []Record{
		{ID: "a", Description: "Supermercado", Amount: Money{Cents: 4500}, Kind: Expense},
		{ID: "b", Description: "Sueldo", Amount: Money{Cents: 900000}, Kind: Income},
		{ID: "c", CategoryName: "Supermercado", Amount: Money{Cents: 1200}, Kind: Expense},
	}

	got := Search(records, "super")
	want := []string{"a", "c"}
	gotIDs := make([]string, len(got))
	for i, r := range got {
		gotIDs[i] = r.ID
	}
	if !reflect.DeepEqual(gotIDs, want) {
		t.Errorf("Search = %v, want %v", gotIDs, want)
	}

	if got := Search(records, ""); len(got) != len(records) {
		t.Errorf("blank query returned %d of %d records", len(got), len(records))
	}
}
