package capture

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"gastos/internal/core"
)

func TestPipelineCapture(t *testing.T) {
	p := NewPipeline(defaultStore(t), Config{Now: fixedNow})

	cases := []struct {
		text     string
		cents    int64
		category string
		sub      string
		payment  core.PaymentMethod
		date     string
		flags    []Field
	}{
		{
			text: "veinte euros en comida con tarjeta", cents: 2000,
			category: "Comida", sub: "Supermercado", payment: core.Card, date: "2026-03-15",
			flags: []Field{FieldSubcategory, FieldDate},
		},
		{
			text: "32,5 en el súper ayer", cents: 3250,
			category: "Comida", sub: "Supermercado", payment: core.Card, date: "2026-03-14",
			flags: []Field{FieldPayment},
		},
		{
			text: "bizum de 12 euros a Marta", cents: 1200,
			category: "Comida", sub: "Supermercado", payment: core.MobileTransfer, date: "2026-03-15",
			flags: []Field{FieldCategory, FieldSubcategory, FieldDate},
		},
		{
			text: "hoy 45 euros gasolina en efectivo", cents: 4500,
			category: "Transporte", sub: "Gasolina", payment: core.Cash, date: "2026-03-15",
		},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			got, err := p.Capture(tc.text)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			e := got.Expense
			if e.Amount.Cents != tc.cents {
				t.Fatalf("amount: got %d, want %d", e.Amount.Cents, tc.cents)
			}
			if e.Category != tc.category || e.Subcategory != tc.sub {
				t.Fatalf("category: got %s/%s, want %s/%s", e.Category, e.Subcategory, tc.category, tc.sub)
			}
			if e.PaymentMethod != tc.payment {
				t.Fatalf("payment: got %s, want %s", e.PaymentMethod, tc.payment)
			}
			if e.Date.String() != tc.date {
				t.Fatalf("date: got %s, want %s", e.Date, tc.date)
			}
			for _, f := range tc.flags {
				if !got.Needs(f) {
					t.Fatalf("expected %s flagged, flags=%v", f, got.NeedsConfirmation)
				}
			}
			if got.Needs(FieldAmount) {
				t.Fatalf("amount should not be flagged")
			}
			if e.ID == "" {
				t.Fatal("expected an id")
			}
		})
	}
}

func TestPipelineRejectsMissingAmount(t *testing.T) {
	p := NewPipeline(defaultStore(t), Config{Now: fixedNow})
	for _, text := range []string{"", "comida con tarjeta", "ayer en el cine"} {
		if _, err := p.Capture(text); !errors.Is(err, ErrInsufficientData) {
			t.Fatalf("%q: expected ErrInsufficientData, got %v", text, err)
		}
	}
}

func TestPipelineDefaultPayment(t *testing.T) {
	p := NewPipeline(defaultStore(t), Config{Now: fixedNow, DefaultPayment: core.Cash})
	got, err := p.Capture("8 euros cine")
	if err != nil {
		t.Fatal(err)
	}
	if got.Expense.PaymentMethod != core.Cash || !got.Needs(FieldPayment) {
		t.Fatalf("expected flagged default payment Cash, got %s flags=%v", got.Expense.PaymentMethod, got.NeedsConfirmation)
	}
}

func TestPipelineConcurrentWithTaxonomyEdits(t *testing.T) {
	store := defaultStore(t)
	p := NewPipeline(store, Config{Now: fixedNow})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			name := fmt.Sprintf("Extra %d", i)
			if _, err := store.AddCategory(name); err != nil {
				t.Errorf("add %s: %v", name, err)
				return
			}
			if err := store.AddSubcategory(name, "Sub"); err != nil {
				t.Errorf("add sub %s: %v", name, err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			got, err := p.Capture("20 euros gasolina")
			if err != nil {
				t.Errorf("capture: %v", err)
				return
			}
			if got.Expense.Category != "Transporte" {
				t.Errorf("unexpected category %q", got.Expense.Category)
				return
			}
		}
	}()
	wg.Wait()
}
