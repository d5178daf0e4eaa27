package memory

import (
	"context"
	"testing"

	"gastos/internal/core"
)

func TestExporterExportAndRemove(t *testing.T) {
	x := New()
	e := core.Expense{
		ID:            "a",
		Name:          "Metro",
		Amount:        core.Money{Cents: 150},
		Category:      "Transporte",
		Subcategory:   "Transporte público",
		Date:          core.NewDate(2026, 3, 1),
		PaymentMethod: core.Card,
	}
	ref, err := x.Export(context.Background(), e)
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected export: ref=%q err=%v", ref, err)
	}
	if _, err := x.Export(context.Background(), core.Expense{}); err == nil {
		t.Fatal("expected validation error")
	}
	if err := x.Remove(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(x.Rows()) != 0 {
		t.Fatalf("rows left: %v", x.Rows())
	}
	if err := x.Remove(context.Background(), "a"); err == nil {
		t.Fatal("expected error removing a missing row")
	}
}
