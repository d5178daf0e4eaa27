package google

import (
	"context"
	"strings"
	"testing"

	"gastos/internal/core"
)

func sampleExpense() core.Expense {
	return core.Expense{
		ID:            "3f1c",
		Name:          "Cena con amigos",
		Amount:        core.Money{Cents: 3250},
		Category:      "Comida",
		Subcategory:   "Restaurantes",
		Date:          core.NewDate(2026, 3, 14),
		PaymentMethod: core.MobileTransfer,
		Recurring:     false,
	}
}

func TestExpenseRow(t *testing.T) {
	row := expenseRow(sampleExpense())
	want := []string{"Cena con amigos", "32.50", "Comida", "Restaurantes", "2026-03-14", "MobileTransfer", "no", "3f1c"}
	if len(row) != len(Header) {
		t.Fatalf("row has %d columns, header %d", len(row), len(Header))
	}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("column %d = %v, want %q", i, row[i], w)
		}
	}

	e := sampleExpense()
	e.Amount = core.Money{Cents: 5}
	e.Recurring = true
	row = expenseRow(e)
	if row[colAmount] != "0.05" || row[colRecurring] != "sí" {
		t.Errorf("unexpected amount/recurring: %v %v", row[colAmount], row[colRecurring])
	}
}

func TestParseRow(t *testing.T) {
	e := sampleExpense()
	e.Recurring = true
	got, err := parseRow(expenseRow(e))
	if err != nil {
		t.Fatalf("parseRow: %v", err)
	}
	if got.ID != e.ID || got.Amount != e.Amount || got.Date.String() != "2026-03-14" || !got.Recurring || got.PaymentMethod != e.PaymentMethod {
		t.Fatalf("parsed %+v, want %+v", got, e)
	}

	tests := []struct {
		name string
		row  []any
		want string
	}{
		{"short row", []any{"a", "1.00"}, "columns"},
		{"bad amount", []any{"a", "x", "c", "s", "2026-03-14", "Card", "no", "id"}, "amount"},
		{"bad date", []any{"a", "1.00", "c", "s", "14/03/2026", "Card", "no", "id"}, "date"},
		{"bad payment", []any{"a", "1.00", "c", "s", "2026-03-14", "Cheque", "no", "id"}, "payment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRow(tt.row)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestFindRow(t *testing.T) {
	col := [][]any{{"ID"}, {"a"}, {}, {" b "}}
	if got := findRow(col, "b"); got != 3 {
		t.Fatalf("findRow(b) = %d, want 3", got)
	}
	if got := findRow(col, "zz"); got != -1 {
		t.Fatalf("findRow(zz) = %d, want -1", got)
	}
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil || !strings.Contains(err.Error(), "spreadsheet ID") {
		t.Fatalf("expected missing spreadsheet error, got %v", err)
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "x"}); err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestClient_ExportValidates(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	e := sampleExpense()
	e.Name = ""
	if _, err := c.Export(context.Background(), e); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.Export(context.Background(), sampleExpense()); err == nil {
		t.Fatal("expected error without a sheets service")
	}
}
