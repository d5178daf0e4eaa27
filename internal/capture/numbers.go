package capture

import (
	"strings"

	"gastos/internal/core"
)

// currencyWords maps folded currency words and symbols to ISO codes.
var currencyWords = map[string]string{
	"€":       "EUR",
	"euro":    "EUR",
	"euros":   "EUR",
	"eur":     "EUR",
	"pavo":    "EUR",
	"pavos":   "EUR",
	"$":       "USD",
	"dolar":   "USD",
	"dolares": "USD",
	"usd":     "USD",
	"£":       "GBP",
	"libra":   "GBP",
	"libras":  "GBP",
}

// Spanish cardinal words. Compound forms with "y" ("treinta y dos") are
// assembled in parseWordNumber.
var (
	unitWords = map[string]int64{
		"cero": 0, "un": 1, "uno": 1, "una": 1, "dos": 2, "tres": 3, "cuatro": 4,
		"cinco": 5, "seis": 6, "siete": 7, "ocho": 8, "nueve": 9,
	}
	teenWords = map[string]int64{
		"diez": 10, "once": 11, "doce": 12, "trece": 13, "catorce": 14, "quince": 15,
		"dieciseis": 16, "diecisiete": 17, "dieciocho": 18, "diecinueve": 19,
		"veintiuno": 21, "veintiun": 21, "veintiuna": 21, "veintidos": 22, "veintitres": 23,
		"veinticuatro": 24, "veinticinco": 25, "veintiseis": 26, "veintisiete": 27,
		"veintiocho": 28, "veintinueve": 29,
	}
	tensWords = map[string]int64{
		"veinte": 20, "treinta": 30, "cuarenta": 40, "cincuenta": 50,
		"sesenta": 60, "setenta": 70, "ochenta": 80, "noventa": 90,
	}
	hundredWords = map[string]int64{
		"cien": 100, "ciento": 100, "doscientos": 200, "doscientas": 200,
		"trescientos": 300, "trescientas": 300, "cuatrocientos": 400, "cuatrocientas": 400,
		"quinientos": 500, "quinientas": 500, "seiscientos": 600, "seiscientas": 600,
		"setecientos": 700, "setecientas": 700, "ochocientos": 800, "ochocientas": 800,
		"novecientos": 900, "novecientas": 900,
	}
)

func isNumberWord(w string) bool {
	if w == "mil" {
		return true
	}
	if _, ok := unitWords[w]; ok {
		return true
	}
	if _, ok := teenWords[w]; ok {
		return true
	}
	if _, ok := tensWords[w]; ok {
		return true
	}
	_, ok := hundredWords[w]
	return ok
}

// parseDigits parses a numeric token such as "20", "32,5", "32.5" or
// "1.200,50". It never fails loudly: malformed input reports ok=false.
func parseDigits(s string) (core.Money, bool) {
	if strings.Contains(s, "/") {
		return core.Money{}, false
	}
	dot, comma := strings.LastIndex(s, "."), strings.LastIndex(s, ",")
	if dot >= 0 && comma >= 0 {
		// The rightmost separator is the decimal one.
		if dot > comma {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ".", "")
		}
	} else if sep := max(dot, comma); sep >= 0 && strings.Count(s, s[sep:sep+1]) > 1 {
		// "1.200.000" style grouping
		s = strings.ReplaceAll(s, s[sep:sep+1], "")
	} else if dot > 0 && len(s)-dot-1 == 3 {
		// A lone dot followed by three digits groups thousands in Spanish: "1.200".
		// A lone comma is always the decimal mark, so "1,250" is 1.25.
		s = strings.ReplaceAll(s, ".", "")
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, false
	}
	return m, true
}

// parseWordNumber reads a run of Spanish number words starting at ws[0] and
// returns the value and the number of words consumed. "y" is only consumed
// between a tens word and a unit word.
func parseWordNumber(ws []string) (int64, int) {
	var total, current int64
	n := 0
	lastTens := false
	for n < len(ws) {
		w := ws[n]
		switch {
		case w == "y" && lastTens && n+1 < len(ws):
			if _, ok := unitWords[ws[n+1]]; !ok {
				return total + current, n
			}
			n++
			lastTens = false
			continue
		case w == "mil":
			if current == 0 {
				current = 1
			}
			total += current * 1000
			current = 0
		default:
			if v, ok := hundredWords[w]; ok {
				current += v
			} else if v, ok := tensWords[w]; ok {
				current += v
				lastTens = true
				n++
				continue
			} else if v, ok := teenWords[w]; ok {
				current += v
			} else if v, ok := unitWords[w]; ok {
				current += v
			} else {
				return total + current, n
			}
		}
		lastTens = false
		n++
	}
	return total + current, n
}
