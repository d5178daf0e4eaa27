package capture

import (
	"sort"
	"strings"

	"gastos/internal/taxonomy"
)

// Synonym maps a colloquial term to a category and, optionally, one of its
// subcategories.
type Synonym struct {
	Term        string
	Category    string
	Subcategory string
}

// ParseSynonyms reads "Category" or "Category/Subcategory" targets. Entries
// with an empty term or target are skipped. The result is sorted by term.
func ParseSynonyms(table map[string]string) []Synonym {
	out := make([]Synonym, 0, len(table))
	for term, target := range table {
		term = strings.TrimSpace(term)
		cat, sub, _ := strings.Cut(target, "/")
		cat, sub = strings.TrimSpace(cat), strings.TrimSpace(sub)
		if term == "" || cat == "" {
			continue
		}
		out = append(out, Synonym{Term: term, Category: cat, Subcategory: sub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Term < out[j].Term })
	return out
}

// DefaultSynonyms returns the synonym table shipped with the default taxonomy.
func DefaultSynonyms() []Synonym {
	seed, err := taxonomy.DefaultSeed()
	if err != nil {
		return nil
	}
	return ParseSynonyms(seed.Synonyms)
}
