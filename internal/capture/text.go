package capture

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// token is one word, number or currency symbol of an utterance.
type token struct {
	raw    string
	folded string
}

// fold lowercases s and strips diacritics so "Cafetería" matches "cafeteria".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

func isSymbol(r rune) bool {
	return r == '€' || r == '$' || r == '£'
}

type runeClass int

const (
	classSep runeClass = iota
	classLetter
	classDigit
	classSymbol
)

func classify(r rune) runeClass {
	switch {
	case isSymbol(r):
		return classSymbol
	case unicode.IsDigit(r):
		return classDigit
	case unicode.IsLetter(r) || unicode.Is(unicode.Mn, r):
		return classLetter
	default:
		return classSep
	}
}

// tokenize splits on whitespace and punctuation. Separators between two
// digits (",", ".", "/") stay inside the token so "32,5" and "12/03" survive,
// and digit runs are split from letters so "20eur" yields "20" and "eur".
func tokenize(s string) []token {
	rs := []rune(s)
	var out []token
	var cur []rune
	curClass := classSep

	flush := func() {
		if len(cur) > 0 {
			raw := string(cur)
			out = append(out, token{raw: raw, folded: fold(raw)})
			cur = cur[:0]
		}
		curClass = classSep
	}

	for i, r := range rs {
		c := classify(r)
		if c == classSep {
			if curClass == classDigit && (r == ',' || r == '.' || r == '/') &&
				i+1 < len(rs) && unicode.IsDigit(rs[i+1]) {
				cur = append(cur, r)
				continue
			}
			flush()
			continue
		}
		if c == classSymbol {
			flush()
			out = append(out, token{raw: string(r), folded: string(r)})
			continue
		}
		if curClass != classSep && curClass != c {
			flush()
		}
		cur = append(cur, r)
		curClass = c
	}
	flush()
	return out
}

// words returns the folded tokens of s.
func words(s string) []string {
	toks := tokenize(s)
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.folded
	}
	return out
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != ',' && r != '.' && r != '/' {
			return false
		}
	}
	return true
}

// containsPhrase reports whether needle appears as a contiguous run of hay.
func containsPhrase(hay, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(hay) {
		return false
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		match := true
		for j := range needle {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}
