package memory

import (
	"context"
	"testing"
)

func TestStore_ExportSummary(t *testing.T) {
	s := New()
	ctx := context.Background()

	rows := [][]any{{"Mes", "2024-06"}, {"Ingresos", 2000.0}}
	if err := s.ExportSummary(ctx, "Resumen", rows); err != nil {
		t.Fatalf("ExportSummary() error = %v", err)
	}

	got := s.Rows("Resumen")
	if len(got) != 2 || got[0][1] != "2024-06" {
		t.Errorf("Rows = %v", got)
	}

	// A second export replaces the first.
	if err := s.ExportSummary(ctx, "Resumen", [][]any{{"Mes", "2024-07"}}); err != nil {
		t.Fatalf("ExportSummary() error = %v", err)
	}
	got = s.Rows("Resumen")
	if len(got) != 1 || got[0][1] != "2024-07" {
		t.Errorf("Rows after re-export = %v", got)
	}

	// Mutating the caller's slice must not affect the stored copy.
	rows[0][1] = "mutated"
	if s.Rows("Otro") != nil {
		t.Error("unknown sheet should return nil")
	}
}
