package capture

import (
	"strconv"
	"strings"
	"time"

	"gastos/internal/core"
)

// Utterance is the structured reading of one raw utterance. Every field is
// optional; a nil Amount makes the utterance non-actionable.
type Utterance struct {
	Text string

	Amount *core.Money
	// AmountAdjacent is true when the amount sat next to a currency word.
	AmountAdjacent bool
	Currency       string

	Payment *core.PaymentMethod

	// Date is always set; DateExplicit reports whether the text named it.
	Date         *core.Date
	DateExplicit bool

	Recurring bool

	// Residual is what remains after amount, currency, date and payment
	// extraction, minus stop words. CategoryHint mirrors it for callers that
	// only care about the category.
	Residual     string
	CategoryHint string
}

type phrase struct {
	words []string
}

type paymentPhrase struct {
	phrase
	method core.PaymentMethod
}

// Longest phrases first so "transferencia movil" beats "transferencia".
var paymentPhrases = []paymentPhrase{
	{phrase{[]string{"transferencia", "movil"}}, core.MobileTransfer},
	{phrase{[]string{"transferencia", "bancaria"}}, core.BankTransfer},
	{phrase{[]string{"tarjeta"}}, core.Card},
	{phrase{[]string{"credito"}}, core.Card},
	{phrase{[]string{"debito"}}, core.Card},
	{phrase{[]string{"visa"}}, core.Card},
	{phrase{[]string{"efectivo"}}, core.Cash},
	{phrase{[]string{"metalico"}}, core.Cash},
	{phrase{[]string{"cash"}}, core.Cash},
	{phrase{[]string{"bizum"}}, core.MobileTransfer},
	{phrase{[]string{"transferencia"}}, core.BankTransfer},
}

type datePhrase struct {
	phrase
	offset int
}

var datePhrases = []datePhrase{
	{phrase{[]string{"antes", "de", "ayer"}}, -2},
	{phrase{[]string{"pasado", "manana"}}, 2},
	{phrase{[]string{"esta", "manana"}}, 0},
	{phrase{[]string{"esta", "tarde"}}, 0},
	{phrase{[]string{"esta", "noche"}}, 0},
	{phrase{[]string{"anteayer"}}, -2},
	{phrase{[]string{"ayer"}}, -1},
	{phrase{[]string{"hoy"}}, 0},
	{phrase{[]string{"por", "la", "manana"}}, 0},
	{phrase{[]string{"manana"}}, 1},
}

// dayParts qualify a date already read ("ayer por la mañana").
var dayParts = []phrase{
	{[]string{"por", "la", "manana"}},
	{[]string{"de", "la", "manana"}},
	{[]string{"por", "la", "tarde"}},
	{[]string{"por", "la", "noche"}},
}

var recurringPhrases = []phrase{
	{[]string{"cada", "mes"}},
	{[]string{"al", "mes"}},
	{[]string{"todos", "los", "meses"}},
	{[]string{"mensualmente"}},
	{[]string{"mensual"}},
	{[]string{"recurrente"}},
}

var stopWords = map[string]struct{}{
	"en": {}, "de": {}, "con": {}, "por": {}, "para": {}, "el": {}, "la": {}, "los": {},
	"las": {}, "un": {}, "una": {}, "unos": {}, "unas": {}, "y": {}, "a": {}, "al": {},
	"del": {}, "he": {}, "gastado": {}, "pagado": {}, "pague": {}, "gaste": {}, "me": {},
	"mi": {}, "mis": {}, "que": {}, "esta": {}, "este": {},
}

// Normalizer turns Spanish free text into an Utterance. The zero value uses
// the wall clock.
type Normalizer struct {
	Now func() time.Time
}

func (n *Normalizer) today() core.Date {
	now := time.Now
	if n != nil && n.Now != nil {
		now = n.Now
	}
	return core.DateOf(now())
}

// Normalize never fails: anything it cannot read stays in the residual or is
// dropped.
func (n *Normalizer) Normalize(text string) Utterance {
	toks := tokenize(text)
	folded := make([]string, len(toks))
	for i, t := range toks {
		folded[i] = t.folded
	}
	used := make([]bool, len(toks))
	today := n.today()

	u := Utterance{Text: text, Date: &today}

	if p, ok := matchPayment(folded, used); ok {
		u.Payment = &p
	}
	if d, ok := matchDate(folded, used, today); ok {
		u.Date = &d
		u.DateExplicit = true
		matchAny(folded, used, dayParts)
	}
	if matchAny(folded, used, recurringPhrases) {
		u.Recurring = true
	}
	// "suscripcion" marks a recurring charge but also hints the category.
	for _, w := range folded {
		if strings.HasPrefix(w, "suscripci") {
			u.Recurring = true
		}
	}

	extractAmount(folded, used, &u)

	var rest []string
	for i, t := range toks {
		if used[i] {
			continue
		}
		if _, stop := stopWords[t.folded]; stop {
			continue
		}
		if isNumeric(t.folded) {
			continue
		}
		rest = append(rest, t.raw)
	}
	u.Residual = strings.Join(rest, " ")
	u.CategoryHint = u.Residual
	return u
}

// findPhrase returns the position of the first unused occurrence of p.
func findPhrase(folded []string, used []bool, p phrase) int {
	for i := 0; i+len(p.words) <= len(folded); i++ {
		ok := true
		for j, w := range p.words {
			if used[i+j] || folded[i+j] != w {
				ok = false
				break
			}
		}
		if ok {
			return i
		}
	}
	return -1
}

func consume(used []bool, at, n int) {
	for i := at; i < at+n; i++ {
		used[i] = true
	}
}

// matchPayment takes the earliest payment phrase; when several start at the
// same position the longest wins.
func matchPayment(folded []string, used []bool) (core.PaymentMethod, bool) {
	best, bestAt := -1, len(folded)
	for i, p := range paymentPhrases {
		if at := findPhrase(folded, used, p.phrase); at >= 0 && at < bestAt {
			best, bestAt = i, at
		}
	}
	if best < 0 {
		return "", false
	}
	consume(used, bestAt, len(paymentPhrases[best].words))
	return paymentPhrases[best].method, true
}

func matchDate(folded []string, used []bool, today core.Date) (core.Date, bool) {
	for _, p := range datePhrases {
		if at := findPhrase(folded, used, p.phrase); at >= 0 {
			consume(used, at, len(p.words))
			return today.AddDays(p.offset), true
		}
	}
	for i, w := range folded {
		if used[i] || strings.Count(w, "/") == 0 {
			continue
		}
		if d, ok := parseDayMonth(w, today); ok {
			used[i] = true
			return d, true
		}
	}
	return core.Date{}, false
}

// parseDayMonth reads "dd/mm" or "dd/mm/yy[yy]", completing the year from today.
func parseDayMonth(s string, today core.Date) (core.Date, bool) {
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts) > 3 {
		return core.Date{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return core.Date{}, false
	}
	year := today.Year()
	if len(parts) == 3 {
		y, err := strconv.Atoi(parts[2])
		if err != nil {
			return core.Date{}, false
		}
		if y < 100 {
			y += 2000
		}
		year = y
	}
	d := core.NewDate(year, month, day)
	if d.Day() != day || d.Month() != month {
		return core.Date{}, false
	}
	return d, true
}

func matchAny(folded []string, used []bool, phrases []phrase) bool {
	found := false
	for _, p := range phrases {
		if at := findPhrase(folded, used, p); at >= 0 {
			consume(used, at, len(p.words))
			found = true
		}
	}
	return found
}

func currencyAt(folded []string, used []bool, i int) (string, bool) {
	if i < 0 || i >= len(folded) || used[i] {
		return "", false
	}
	c, ok := currencyWords[folded[i]]
	return c, ok
}

// extractAmount prefers the first number next to a currency word, digits or
// Spanish number words alike. Otherwise it falls back to the first parseable
// digit token. Remaining currency words are consumed as hints.
func extractAmount(folded []string, used []bool, u *Utterance) {
	set := func(m core.Money, currency string, adjacent bool) {
		u.Amount = &m
		u.Currency = currency
		u.AmountAdjacent = adjacent
	}

	for i := 0; i < len(folded) && u.Amount == nil; i++ {
		if used[i] {
			continue
		}
		w := folded[i]
		switch {
		case isNumeric(w):
			m, ok := parseDigits(w)
			if !ok {
				continue
			}
			if c, ok := currencyAt(folded, used, i+1); ok {
				set(m, c, true)
				consume(used, i, 2)
			} else if c, ok := currencyAt(folded, used, i-1); ok {
				set(m, c, true)
				consume(used, i-1, 2)
			}
		case isNumberWord(w):
			v, n := parseWordNumber(unusedRun(folded, used, i))
			if n == 0 {
				continue
			}
			m := core.Money{Cents: v * 100}
			if c, ok := currencyAt(folded, used, i+n); ok {
				set(m, c, true)
				consume(used, i, n+1)
			} else if c, ok := currencyAt(folded, used, i-1); ok {
				set(m, c, true)
				consume(used, i-1, n+1)
			} else {
				i += n - 1
			}
		}
	}

	if u.Amount == nil {
		for i, w := range folded {
			if used[i] || !isNumeric(w) {
				continue
			}
			if m, ok := parseDigits(w); ok {
				set(m, "", false)
				used[i] = true
				break
			}
		}
	}

	for i, w := range folded {
		if used[i] {
			continue
		}
		if c, ok := currencyWords[w]; ok {
			if u.Currency == "" {
				u.Currency = c
			}
			used[i] = true
		}
	}
}

// unusedRun returns folded[i:] cut at the first consumed token.
func unusedRun(folded []string, used []bool, i int) []string {
	j := i
	for j < len(folded) && !used[j] {
		j++
	}
	return folded[i:j]
}
