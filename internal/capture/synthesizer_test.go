package capture

import (
	"errors"
	"testing"

	"gastos/internal/core"
	"gastos/internal/taxonomy"
)

func money(cents int64) *core.Money {
	return &core.Money{Cents: cents}
}

func payment(p core.PaymentMethod) *core.PaymentMethod {
	return &p
}

func testSynthesizer() *Synthesizer {
	return &Synthesizer{Threshold: DefaultThreshold, NewID: func() string { return "exp-1" }}
}

var today = core.NewDate(2026, 3, 15)

func TestSynthesizeRequiresAmount(t *testing.T) {
	snap := defaultStore(t).Snapshot()
	u := Utterance{Payment: payment(core.Cash), Residual: "comida", DateExplicit: true, Date: &today}
	candidates := []Candidate{{Category: "Comida", Confidence: 1}}

	_, err := testSynthesizer().Synthesize(u, candidates, snap, Defaults{Today: today, Payment: core.Card})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSynthesizeFallsBackToFirstCategory(t *testing.T) {
	snap := defaultStore(t).Snapshot()
	u := Utterance{Amount: money(1500), AmountAdjacent: true}

	got, err := testSynthesizer().Synthesize(u, nil, snap, Defaults{Today: today, Payment: core.Card})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := got.Expense
	if e.Category != "Comida" || e.Subcategory != "Supermercado" {
		t.Fatalf("expected first taxonomy entry, got %s/%s", e.Category, e.Subcategory)
	}
	for _, f := range []Field{FieldCategory, FieldSubcategory, FieldPayment, FieldDate, FieldName} {
		if !got.Needs(f) {
			t.Fatalf("expected %s to need confirmation, flags=%v", f, got.NeedsConfirmation)
		}
	}
	if got.Needs(FieldAmount) {
		t.Fatal("amount next to a currency word should not need confirmation")
	}
	if e.PaymentMethod != core.Card || e.Date.String() != today.String() {
		t.Fatalf("defaults not applied: %+v", e)
	}
	if e.Name != "Supermercado" {
		t.Fatalf("expected name from subcategory, got %q", e.Name)
	}
	if e.ID != "exp-1" || e.Amount.Cents != 1500 {
		t.Fatalf("unexpected id/amount: %+v", e)
	}
}

func TestSynthesizeThreshold(t *testing.T) {
	snap := defaultStore(t).Snapshot()
	cases := []struct {
		name      string
		candidate Candidate
		flagCat   bool
		flagSub   bool
	}{
		{"exact", Candidate{Category: "Comida", Subcategory: "Supermercado", Confidence: 1, SubConfidence: 1}, false, false},
		{"synonym at threshold", Candidate{Category: "Comida", Subcategory: "Supermercado", Confidence: 0.6, SubConfidence: 0.6}, false, false},
		{"fuzzy below threshold", Candidate{Category: "Transporte", Subcategory: "Gasolina", Confidence: 0.4, SubConfidence: 0.4}, true, true},
		{"no subcategory", Candidate{Category: "Ocio", Confidence: 1}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := Utterance{Amount: money(1000), AmountAdjacent: true, Residual: "algo"}
			got, err := testSynthesizer().Synthesize(u, []Candidate{tc.candidate}, snap, Defaults{Today: today})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Expense.Category != tc.candidate.Category {
				t.Fatalf("best guess must be kept, got %q", got.Expense.Category)
			}
			if got.Needs(FieldCategory) != tc.flagCat {
				t.Fatalf("category flag: got %v, want %v", got.Needs(FieldCategory), tc.flagCat)
			}
			if got.Needs(FieldSubcategory) != tc.flagSub {
				t.Fatalf("subcategory flag: got %v, want %v", got.Needs(FieldSubcategory), tc.flagSub)
			}
			if got.Confidence[FieldCategory] != tc.candidate.Confidence {
				t.Fatalf("category confidence: got %.2f", got.Confidence[FieldCategory])
			}
		})
	}
}

func TestSynthesizeNoSubcategoryPicksFirst(t *testing.T) {
	snap := defaultStore(t).Snapshot()
	u := Utterance{Amount: money(800), AmountAdjacent: true, Residual: "ocio"}
	got, err := testSynthesizer().Synthesize(u, []Candidate{{Category: "Ocio", Confidence: 1}}, snap, Defaults{Today: today})
	if err != nil {
		t.Fatal(err)
	}
	if got.Expense.Subcategory != "Cine" {
		t.Fatalf("expected first subcategory of Ocio, got %q", got.Expense.Subcategory)
	}
}

func TestSynthesizeUsesUtteranceFields(t *testing.T) {
	snap := defaultStore(t).Snapshot()
	yesterday := today.AddDays(-1)
	u := Utterance{
		Amount:       money(4550),
		Payment:      payment(core.MobileTransfer),
		Date:         &yesterday,
		DateExplicit: true,
		Recurring:    true,
		Residual:     "cena con Ana",
	}
	candidates := []Candidate{
		{Category: "Comida", Subcategory: "Restaurantes", Confidence: 0.6, SubConfidence: 0.6},
		{Category: "Ocio", Confidence: 0.6},
	}
	got, err := testSynthesizer().Synthesize(u, candidates, snap, Defaults{Today: today, Payment: core.Card})
	if err != nil {
		t.Fatal(err)
	}
	e := got.Expense
	if e.PaymentMethod != core.MobileTransfer || e.Date.String() != yesterday.String() || !e.Recurring {
		t.Fatalf("utterance fields lost: %+v", e)
	}
	if e.Name != "Cena con Ana" {
		t.Fatalf("name: got %q", e.Name)
	}
	if got.Needs(FieldAmount) || got.Confidence[FieldAmount] != 0.8 {
		t.Fatalf("bare number should score 0.8 without a flag, got %.2f", got.Confidence[FieldAmount])
	}
	if len(got.NeedsConfirmation) != 0 {
		t.Fatalf("expected no flags, got %v", got.NeedsConfirmation)
	}
	if len(got.Alternatives) != 1 || got.Alternatives[0].Category != "Ocio" {
		t.Fatalf("alternatives: %+v", got.Alternatives)
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("synthesized expense should validate: %v", err)
	}
}

func TestSynthesizeEmptyTaxonomy(t *testing.T) {
	got, err := testSynthesizer().Synthesize(Utterance{Amount: money(100)}, nil, taxonomy.New().Snapshot(), Defaults{Today: today})
	if err != nil {
		t.Fatal(err)
	}
	if got.Expense.Category != "" || !got.Needs(FieldCategory) {
		t.Fatalf("expected unresolved flagged category, got %+v", got)
	}
}
