package capture

import (
	"testing"
	"time"

	"gastos/internal/core"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
}

func TestNormalizeAmounts(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	cases := []struct {
		text     string
		cents    int64
		adjacent bool
		currency string
	}{
		{"veinte euros en efectivo", 2000, true, "EUR"},
		{"32,5 euros", 3250, true, "EUR"},
		{"32.5 euros", 3250, true, "EUR"},
		{"32,5", 3250, false, ""},
		{"32.5", 3250, false, ""},
		{"20€ comida con tarjeta", 2000, true, "EUR"},
		{"€15 taxi", 1500, true, "EUR"},
		{"treinta y dos euros de gasolina", 3200, true, "EUR"},
		{"mil doscientos euros de alquiler", 120000, true, "EUR"},
		{"un euro de chicles", 100, true, "EUR"},
		{"1.200,50 euros", 120050, true, "EUR"},
		{"1.200 euros alquiler", 120000, true, "EUR"},
		{"1,250 euros", 125, true, "EUR"},
		{"10 dólares en libros", 1000, true, "USD"},
		{"cena para 2 de 45 euros", 4500, true, "EUR"},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			u := n.Normalize(tc.text)
			if u.Amount == nil {
				t.Fatalf("expected amount %d, got nil", tc.cents)
			}
			if u.Amount.Cents != tc.cents {
				t.Fatalf("amount: got %d, want %d", u.Amount.Cents, tc.cents)
			}
			if u.AmountAdjacent != tc.adjacent {
				t.Fatalf("adjacent: got %v, want %v", u.AmountAdjacent, tc.adjacent)
			}
			if u.Currency != tc.currency {
				t.Fatalf("currency: got %q, want %q", u.Currency, tc.currency)
			}
		})
	}
}

func TestNormalizeMissingAmount(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	for _, text := range []string{"", "cena con amigos", "comida 3/4/5/6 euros", "veinte"} {
		if u := n.Normalize(text); u.Amount != nil {
			t.Fatalf("%q: expected no amount, got %d", text, u.Amount.Cents)
		}
	}
}

func TestNormalizePayment(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	cases := []struct {
		text string
		want core.PaymentMethod
	}{
		{"20 euros con tarjeta", core.Card},
		{"20 euros con TARJETA de crédito", core.Card},
		{"veinte euros en efectivo", core.Cash},
		{"bizum de 10 euros a Ana", core.MobileTransfer},
		{"transferencia móvil 5 euros", core.MobileTransfer},
		{"transferencia 300 euros alquiler", core.BankTransfer},
		{"transferencia bancaria de 300 euros", core.BankTransfer},
	}
	for _, tc := range cases {
		u := n.Normalize(tc.text)
		if u.Payment == nil {
			t.Fatalf("%q: expected payment %s, got nil", tc.text, tc.want)
		}
		if *u.Payment != tc.want {
			t.Fatalf("%q: payment got %s, want %s", tc.text, *u.Payment, tc.want)
		}
	}
	if u := n.Normalize("20 euros comida"); u.Payment != nil {
		t.Fatalf("expected no payment hint, got %s", *u.Payment)
	}
}

func TestNormalizeDate(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	cases := []struct {
		text     string
		want     string
		explicit bool
	}{
		{"12 euros café", "2026-03-15", false},
		{"hoy 12 euros café", "2026-03-15", true},
		{"ayer 12 euros cafetería", "2026-03-14", true},
		{"anteayer cine 8 euros", "2026-03-13", true},
		{"antes de ayer cine 8 euros", "2026-03-13", true},
		{"mañana 30 euros luz", "2026-03-16", true},
		{"esta mañana cinco euros en café", "2026-03-15", true},
		{"por la mañana 5 euros café", "2026-03-15", true},
		{"ayer por la mañana 5 euros café", "2026-03-14", true},
		{"esta noche cena 40 euros", "2026-03-15", true},
		{"12/03 cena 30 euros", "2026-03-12", true},
		{"01/02/25 cena 30 euros", "2025-02-01", true},
		{"31/02 cena 30 euros", "2026-03-15", false},
	}
	for _, tc := range cases {
		u := n.Normalize(tc.text)
		if u.Date == nil {
			t.Fatalf("%q: date should always be set", tc.text)
		}
		if got := u.Date.String(); got != tc.want {
			t.Fatalf("%q: date got %s, want %s", tc.text, got, tc.want)
		}
		if u.DateExplicit != tc.explicit {
			t.Fatalf("%q: explicit got %v, want %v", tc.text, u.DateExplicit, tc.explicit)
		}
	}
}

func TestNormalizeResidual(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	cases := []struct {
		text string
		want string
	}{
		{"veinte euros en efectivo", ""},
		{"esta mañana cinco euros en café", "café"},
		{"ayer por la mañana 5 euros café", "café"},
		{"gasté 32.5 en el súper", "súper"},
		{"20 euros en comida con tarjeta", "comida"},
		{"ayer pagué 12 euros en la Cafetería Central", "Cafetería Central"},
		{"netflix 12,99 al mes", "netflix"},
	}
	for _, tc := range cases {
		u := n.Normalize(tc.text)
		if u.Residual != tc.want {
			t.Fatalf("%q: residual got %q, want %q", tc.text, u.Residual, tc.want)
		}
		if u.CategoryHint != u.Residual {
			t.Fatalf("%q: category hint %q differs from residual %q", tc.text, u.CategoryHint, u.Residual)
		}
	}
}

func TestNormalizeRecurring(t *testing.T) {
	n := &Normalizer{Now: fixedNow}
	for _, text := range []string{"netflix 12,99 al mes", "gimnasio 30 euros mensual", "suscripción spotify 10 euros"} {
		if !n.Normalize(text).Recurring {
			t.Fatalf("%q: expected recurring", text)
		}
	}
	if n.Normalize("cine 8 euros").Recurring {
		t.Fatal("one-off expense flagged as recurring")
	}
}

func TestTokenize(t *testing.T) {
	got := words("Pagué 20€, en la CAFETERÍA (32,5) 12/03")
	want := []string{"pague", "20", "€", "en", "la", "cafeteria", "32,5", "12/03"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %q, want %q", i, got[i], want[i])
		}
	}
}
