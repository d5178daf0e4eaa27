package capture

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"

	"gastos/internal/taxonomy"
)

// Confidence of each matching tier.
const (
	ConfidenceExact     = 1.0
	ConfidenceSubstring = 0.75
	ConfidenceSynonym   = 0.6
	ConfidenceFuzzy     = 0.4
)

// minPartialLen keeps short tokens ("te", "bar") from matching inside
// unrelated names.
const minPartialLen = 4

type tier int

const (
	tierExact tier = iota
	tierSubstring
	tierSynonym
	tierFuzzy
)

func (t tier) confidence() float64 {
	switch t {
	case tierExact:
		return ConfidenceExact
	case tierSubstring:
		return ConfidenceSubstring
	case tierSynonym:
		return ConfidenceSynonym
	default:
		return ConfidenceFuzzy
	}
}

// Candidate is one possible classification of a residual text. Subcategory is
// empty when none of the category's subcategories matched.
type Candidate struct {
	Category      string
	Subcategory   string
	Confidence    float64
	SubConfidence float64
}

type Options struct {
	Synonyms []Synonym
	// FuzzyMaxDistance enables a Levenshtein tier below the synonym tier.
	// Zero disables it.
	FuzzyMaxDistance int
}

// Resolver matches residual text against a taxonomy snapshot. It keeps a
// folded index of the last snapshot it saw; a new snapshot (every store
// mutation publishes one) rebuilds it.
type Resolver struct {
	synonyms []foldedSynonym
	fuzzy    int

	mu    sync.Mutex
	snap  *taxonomy.Snapshot
	index []indexEntry
}

type foldedSynonym struct {
	words       []string
	category    string
	subcategory string
}

// foldedName holds a taxonomy name filtered like a residual, so stop words
// inside names ("Ropa y calzado") do not block an exact match. joined keeps
// the unfiltered folding for lookups by key.
type foldedName struct {
	canonical string
	words     []string
	content   string
	joined    string
}

func newName(s string) foldedName {
	all := words(s)
	w := contentWords(s)
	if len(w) == 0 {
		w = all
	}
	return foldedName{canonical: s, words: w, content: strings.Join(w, " "), joined: strings.Join(all, " ")}
}

type indexEntry struct {
	foldedName
	subs []foldedName
}

func NewResolver(opts Options) *Resolver {
	r := &Resolver{fuzzy: opts.FuzzyMaxDistance}
	for _, s := range opts.Synonyms {
		w := words(s.Term)
		if len(w) == 0 {
			continue
		}
		r.synonyms = append(r.synonyms, foldedSynonym{words: w, category: s.Category, subcategory: s.Subcategory})
	}
	return r
}

// Invalidate drops the cached index.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.snap, r.index = nil, nil
	r.mu.Unlock()
}

func (r *Resolver) indexFor(snap *taxonomy.Snapshot) []indexEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.snap == snap && r.index != nil {
		return r.index
	}
	cats := snap.Categories()
	idx := make([]indexEntry, len(cats))
	for i, c := range cats {
		idx[i] = indexEntry{foldedName: newName(c.Name)}
		for _, sub := range c.Subcategories {
			idx[i].subs = append(idx[i].subs, newName(sub))
		}
	}
	r.snap, r.index = snap, idx
	return idx
}

// Resolve ranks categories for the residual. The first tier yielding any match
// wins; lower tiers are not consulted. Ties keep taxonomy order.
func (r *Resolver) Resolve(residual string, snap *taxonomy.Snapshot) []Candidate {
	if snap == nil || snap.Len() == 0 {
		return nil
	}
	rw := contentWords(residual)
	if len(rw) == 0 {
		return nil
	}
	idx := r.indexFor(snap)

	last := tierSynonym
	if r.fuzzy > 0 {
		last = tierFuzzy
	}
	for t := tierExact; t <= last; t++ {
		if out := r.resolveTier(t, rw, idx); len(out) > 0 {
			return out
		}
	}
	return nil
}

func (r *Resolver) resolveTier(t tier, rw []string, idx []indexEntry) []Candidate {
	conf := t.confidence()
	var out []Candidate
	for _, e := range idx {
		c := Candidate{Category: e.canonical}
		switch {
		case r.matches(t, rw, e.foldedName):
			c.Confidence = conf
			c.Subcategory, c.SubConfidence = r.resolveSub(rw, e)
		case t == tierSynonym:
			syn, ok := r.synonymFor(rw, e)
			if !ok {
				continue
			}
			c.Confidence = conf
			if syn.subcategory != "" {
				if sub, ok := e.sub(syn.subcategory); ok {
					c.Subcategory, c.SubConfidence = sub, conf
					break
				}
			}
			c.Subcategory, c.SubConfidence = r.resolveSub(rw, e)
		default:
			// A subcategory named in the text implies its parent.
			sub, ok := r.firstSub(t, rw, e)
			if !ok {
				continue
			}
			c.Confidence = conf
			c.Subcategory, c.SubConfidence = sub, conf
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out
}

// resolveSub repeats the tiers over the subcategories of one category. Exact
// matching sees the whole residual, so "transporte publico" finds
// "Transporte público"; the partial tiers ignore the category's own words.
func (r *Resolver) resolveSub(rw []string, e indexEntry) (string, float64) {
	if len(e.subs) == 0 {
		return "", 0
	}
	if sub, ok := r.firstSub(tierExact, rw, e); ok {
		return sub, ConfidenceExact
	}
	rw = without(rw, e.words)
	if len(rw) == 0 {
		return "", 0
	}
	last := tierSynonym
	if r.fuzzy > 0 {
		last = tierFuzzy
	}
	for t := tierSubstring; t <= last; t++ {
		if t == tierSynonym {
			for _, s := range r.synonyms {
				if s.subcategory == "" || key(s.category) != key(e.canonical) || !containsPhrase(rw, s.words) {
					continue
				}
				if sub, ok := e.sub(s.subcategory); ok {
					return sub, ConfidenceSynonym
				}
			}
			continue
		}
		if sub, ok := r.firstSub(t, rw, e); ok {
			return sub, t.confidence()
		}
	}
	return "", 0
}

func (r *Resolver) firstSub(t tier, rw []string, e indexEntry) (string, bool) {
	if t == tierSynonym {
		return "", false
	}
	for _, sub := range e.subs {
		if r.matches(t, rw, sub) {
			return sub.canonical, true
		}
	}
	return "", false
}

func (r *Resolver) synonymFor(rw []string, e indexEntry) (foldedSynonym, bool) {
	for _, s := range r.synonyms {
		if key(s.category) == key(e.canonical) && containsPhrase(rw, s.words) {
			return s, true
		}
	}
	return foldedSynonym{}, false
}

func (r *Resolver) matches(t tier, rw []string, n foldedName) bool {
	if len(n.words) == 0 {
		return false
	}
	switch t {
	case tierExact:
		return containsPhrase(rw, n.words)
	case tierSubstring:
		joined := strings.Join(rw, " ")
		if len(n.content) >= minPartialLen && strings.Contains(joined, n.content) {
			return true
		}
		if strings.Contains(n.content, joined) {
			return true
		}
		for _, w := range rw {
			if len(w) >= minPartialLen && strings.Contains(n.content, w) {
				return true
			}
		}
		return false
	case tierFuzzy:
		for _, w := range rw {
			if len(w) < minPartialLen {
				continue
			}
			for _, nw := range n.words {
				if len(nw) >= minPartialLen && levenshtein.ComputeDistance(w, nw) <= r.fuzzy {
					return true
				}
			}
		}
		return false
	default:
		return false
	}
}

func (e indexEntry) sub(s string) (string, bool) {
	for _, sub := range e.subs {
		if sub.joined == key(s) {
			return sub.canonical, true
		}
	}
	return "", false
}

// contentWords folds s and drops stop words and numbers.
func contentWords(s string) []string {
	var out []string
	for _, w := range words(s) {
		if _, stop := stopWords[w]; stop || isNumeric(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

// without returns rw minus any word in drop.
func without(rw, drop []string) []string {
	out := make([]string, 0, len(rw))
outer:
	for _, w := range rw {
		for _, d := range drop {
			if w == d {
				continue outer
			}
		}
		out = append(out, w)
	}
	return out
}

func key(s string) string {
	return strings.Join(words(s), " ")
}
