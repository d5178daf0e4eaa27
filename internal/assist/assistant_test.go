package assist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"gastos/internal/budget"
	"gastos/internal/core"
)

type fakeProducer struct {
	out     string
	err     error
	prompts []string
}

func (f *fakeProducer) Produce(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.out, f.err
}

func sampleSummary() budget.Summary {
	expenses := []core.Expense{
		{Category: "Ocio", Amount: core.Money{Cents: 10500}},
		{Category: "Transporte", Amount: core.Money{Cents: 8500}},
		{Category: "Casa", Amount: core.Money{Cents: 1000}},
		{Category: "Regalos", Amount: core.Money{Cents: 2000}},
	}
	return budget.Aggregate(expenses, map[string]core.Money{
		"Ocio":       {Cents: 10000},
		"Transporte": {Cents: 10000},
		"Casa":       {Cents: 50000},
		"Regalos":    {},
	})
}

func TestLocalTips(t *testing.T) {
	tips := LocalTips(sampleSummary())
	if len(tips) != 3 {
		t.Fatalf("expected 3 tips, got %d: %v", len(tips), tips)
	}
	if !strings.Contains(tips[0], "Regalos") || !strings.Contains(tips[0], "cero") {
		t.Errorf("zero budget should come first: %q", tips[0])
	}
	if !strings.Contains(tips[1], "Ocio") || !strings.Contains(tips[1], "€5,00") {
		t.Errorf("over-budget tip should name the overshoot: %q", tips[1])
	}
	if !strings.Contains(tips[2], "Transporte") || !strings.Contains(tips[2], "85%") {
		t.Errorf("near-budget tip expected: %q", tips[2])
	}

	calm := LocalTips(budget.Aggregate(nil, map[string]core.Money{"Ocio": {Cents: 100}}))
	if len(calm) != 1 || !strings.HasPrefix(calm[0], "Vas bien") {
		t.Errorf("expected reassurance, got %v", calm)
	}
}

func TestAssistant_Tips(t *testing.T) {
	tests := []struct {
		name      string
		producer  *fakeProducer
		wantFirst string
	}{
		{
			name:      "json array in fences",
			producer:  &fakeProducer{out: "```json\n[\"Cocina en casa\", \"Usa el metro\"]\n```"},
			wantFirst: "Cocina en casa",
		},
		{
			name:      "bulleted lines",
			producer:  &fakeProducer{out: "- Cocina en casa\n- Usa el metro"},
			wantFirst: "Cocina en casa",
		},
		{
			name:      "model error falls back",
			producer:  &fakeProducer{err: errors.New("quota exceeded")},
			wantFirst: "Regalos",
		},
		{
			name:      "empty array falls back",
			producer:  &fakeProducer{out: "[]"},
			wantFirst: "Regalos",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssistant(tt.producer, nil)
			tips := a.Tips(context.Background(), sampleSummary())
			if len(tips) == 0 || !strings.Contains(tips[0], tt.wantFirst) {
				t.Fatalf("first tip %v does not contain %q", tips, tt.wantFirst)
			}
			if len(tt.producer.prompts) != 1 || !strings.Contains(tt.producer.prompts[0], "Ocio: €105,00") {
				t.Fatalf("prompt should describe the summary: %v", tt.producer.prompts)
			}
		})
	}
}

func TestAssistant_Suggest(t *testing.T) {
	cats := []core.Category{{Name: "Ocio"}, {Name: "Transporte"}}

	a := NewAssistant(&fakeProducer{out: "\"cuarenta euros de gasolina con tarjeta\"\nExplicación: ..."}, nil)
	got := a.Suggest(context.Background(), "repostaje de 40 pavos, pagué con la visa", cats)
	if got != "cuarenta euros de gasolina con tarjeta" {
		t.Fatalf("unexpected suggestion %q", got)
	}

	failing := NewAssistant(&fakeProducer{err: errors.New("boom")}, nil)
	if got := failing.Suggest(context.Background(), " cena 30 euros ", cats); got != "cena 30 euros" {
		t.Fatalf("failure should return the description, got %q", got)
	}

	local := NewAssistant(nil, nil)
	if local.Enabled() {
		t.Fatal("nil producer should disable the assistant")
	}
	if got := local.Suggest(context.Background(), "cena 30 euros", cats); got != "cena 30 euros" {
		t.Fatalf("unexpected passthrough %q", got)
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"[\"a\"]", "[\"a\"]"},
		{"```json\n[\"a\"]\n```", "[\"a\"]"},
		{"Aquí tienes:\n[\"a\", \"b\"] espero que ayude", "[\"a\", \"b\"]"},
		{"```", ""},
	}
	for _, tt := range tests {
		if got := cleanModelJSON(tt.in); got != tt.want {
			t.Errorf("cleanModelJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
