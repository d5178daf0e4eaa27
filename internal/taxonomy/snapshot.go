package taxonomy

import (
	"sort"

	"gastos/internal/core"
)

// Snapshot is an immutable view of the taxonomy at one version.
type Snapshot struct {
	version    uint64
	categories []core.Category
	index      map[string]int
	budgets    map[string]core.Money
}

func emptySnapshot() *Snapshot {
	return &Snapshot{
		index:   map[string]int{},
		budgets: map[string]core.Money{},
	}
}

// NewSnapshot builds a detached snapshot, mostly useful in tests.
func NewSnapshot(categories ...core.Category) *Snapshot {
	s := emptySnapshot()
	for _, c := range categories {
		s.categories = append(s.categories, c.Clone())
	}
	s.reindex()
	return s
}

func (s *Snapshot) clone() *Snapshot {
	out := &Snapshot{
		version:    s.version,
		categories: make([]core.Category, len(s.categories)),
		budgets:    make(map[string]core.Money, len(s.budgets)),
	}
	for i, c := range s.categories {
		out.categories[i] = c.Clone()
	}
	for k, v := range s.budgets {
		out.budgets[k] = v
	}
	out.reindex()
	return out
}

func (s *Snapshot) reindex() {
	s.index = make(map[string]int, len(s.categories))
	for i, c := range s.categories {
		s.index[key(c.Name)] = i
	}
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) Len() int {
	return len(s.categories)
}

// Categories returns deep copies in insertion order.
func (s *Snapshot) Categories() []core.Category {
	out := make([]core.Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = c.Clone()
	}
	return out
}

// Category looks a category up case-insensitively.
func (s *Snapshot) Category(name string) (core.Category, bool) {
	i, ok := s.index[key(name)]
	if !ok {
		return core.Category{}, false
	}
	return s.categories[i].Clone(), true
}

// Position is the insertion index of a category, or -1.
func (s *Snapshot) Position(name string) int {
	if i, ok := s.index[key(name)]; ok {
		return i
	}
	return -1
}

// First returns the first category in insertion order.
func (s *Snapshot) First() (core.Category, bool) {
	if len(s.categories) == 0 {
		return core.Category{}, false
	}
	return s.categories[0].Clone(), true
}

// SubcategoriesOf never fails: unknown categories have no subcategories.
func (s *Snapshot) SubcategoriesOf(category string) []string {
	i, ok := s.index[key(category)]
	if !ok {
		return []string{}
	}
	return append([]string{}, s.categories[i].Subcategories...)
}

// HasPair reports whether sub belongs to category. An empty sub only
// requires the category to exist.
func (s *Snapshot) HasPair(category, sub string) bool {
	i, ok := s.index[key(category)]
	if !ok {
		return false
	}
	if clean(sub) == "" {
		return true
	}
	for _, existing := range s.categories[i].Subcategories {
		if key(existing) == key(sub) {
			return true
		}
	}
	return false
}

// Canonical returns the stored spelling of category and subcategory names.
func (s *Snapshot) Canonical(category, sub string) (string, string, bool) {
	i, ok := s.index[key(category)]
	if !ok {
		return "", "", false
	}
	cat := s.categories[i]
	if clean(sub) == "" {
		return cat.Name, "", true
	}
	for _, existing := range cat.Subcategories {
		if key(existing) == key(sub) {
			return cat.Name, existing, true
		}
	}
	return "", "", false
}

func (s *Snapshot) Budgets() map[string]core.Money {
	out := make(map[string]core.Money, len(s.budgets))
	for k, v := range s.budgets {
		out[k] = v
	}
	return out
}

// BudgetList returns budgets sorted by category name.
func (s *Snapshot) BudgetList() []core.Budget {
	out := make([]core.Budget, 0, len(s.budgets))
	for k, v := range s.budgets {
		out = append(out, core.Budget{Category: k, MonthlyLimit: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out
}

func (s *Snapshot) Budget(category string) (core.Money, bool) {
	for k, v := range s.budgets {
		if key(k) == key(category) {
			return v, true
		}
	}
	return core.Money{}, false
}
