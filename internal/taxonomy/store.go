// Package taxonomy holds the category/subcategory structure and the budgets
// attached to it.
//
// The Store is the only shared mutable state of the capture pipeline. Every
// mutation builds a new immutable Snapshot and publishes it atomically, so a
// reader sees either the whole mutation or none of it.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"gastos/internal/core"
)

var (
	ErrDuplicateCategory    = errors.New("duplicate category")
	ErrDuplicateSubcategory = errors.New("duplicate subcategory")
	ErrUnknownCategory      = errors.New("unknown category")
	ErrUnknownSubcategory   = errors.New("unknown subcategory")
	ErrDuplicateBudget      = errors.New("budget already exists for category")
	ErrUnknownBudget        = errors.New("no budget for category")
	ErrEmptyName            = errors.New("empty name")
)

// Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex // serialises writers
	current atomic.Pointer[Snapshot]
}

func New() *Store {
	s := &Store{}
	s.current.Store(emptySnapshot())
	return s
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Version increments on every successful mutation.
func (s *Store) Version() uint64 {
	return s.Snapshot().Version()
}

func (s *Store) ListCategories() []core.Category {
	return s.Snapshot().Categories()
}

// SubcategoriesOf returns an empty slice for unknown categories.
func (s *Store) SubcategoriesOf(category string) []string {
	return s.Snapshot().SubcategoriesOf(category)
}

func (s *Store) Budgets() map[string]core.Money {
	return s.Snapshot().Budgets()
}

func (s *Store) AddCategory(name string) (core.Category, error) {
	name = clean(name)
	if name == "" {
		return core.Category{}, ErrEmptyName
	}
	var added core.Category
	err := s.mutate(func(next *Snapshot) error {
		if _, ok := next.index[key(name)]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		added = core.Category{Name: name}
		next.categories = append(next.categories, added)
		return nil
	})
	if err != nil {
		return core.Category{}, err
	}
	return added.Clone(), nil
}

func (s *Store) AddSubcategory(category, name string) error {
	category, name = clean(category), clean(name)
	if name == "" {
		return ErrEmptyName
	}
	return s.mutate(func(next *Snapshot) error {
		i, ok := next.index[key(category)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		cat := &next.categories[i]
		for _, sub := range cat.Subcategories {
			if key(sub) == key(name) {
				return fmt.Errorf("%w: %q in %q", ErrDuplicateSubcategory, name, cat.Name)
			}
		}
		cat.Subcategories = append(cat.Subcategories, name)
		return nil
	})
}

// RemoveCategory drops the category, its subcategories and its budget.
func (s *Store) RemoveCategory(name string) error {
	name = clean(name)
	return s.mutate(func(next *Snapshot) error {
		i, ok := next.index[key(name)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		canonical := next.categories[i].Name
		next.categories = append(next.categories[:i], next.categories[i+1:]...)
		for k := range next.budgets {
			if key(k) == key(canonical) {
				delete(next.budgets, k)
			}
		}
		return nil
	})
}

func (s *Store) RemoveSubcategory(category, name string) error {
	category, name = clean(category), clean(name)
	return s.mutate(func(next *Snapshot) error {
		i, ok := next.index[key(category)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		cat := &next.categories[i]
		for j, sub := range cat.Subcategories {
			if key(sub) == key(name) {
				cat.Subcategories = append(cat.Subcategories[:j], cat.Subcategories[j+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: %q in %q", ErrUnknownSubcategory, name, cat.Name)
	})
}

// AddBudget creates the budget of an existing category. A second budget for
// the same category is rejected; use SetBudget to edit.
func (s *Store) AddBudget(category string, limit core.Money) error {
	return s.putBudget(category, limit, false)
}

// SetBudget creates or replaces the budget of an existing category.
func (s *Store) SetBudget(category string, limit core.Money) error {
	return s.putBudget(category, limit, true)
}

func (s *Store) putBudget(category string, limit core.Money, replace bool) error {
	category = clean(category)
	b := core.Budget{Category: category, MonthlyLimit: limit}
	if err := b.Validate(); err != nil {
		return err
	}
	return s.mutate(func(next *Snapshot) error {
		i, ok := next.index[key(category)]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, category)
		}
		canonical := next.categories[i].Name
		if _, exists := next.budgets[canonical]; exists && !replace {
			return fmt.Errorf("%w: %q", ErrDuplicateBudget, canonical)
		}
		next.budgets[canonical] = limit
		return nil
	})
}

func (s *Store) RemoveBudget(category string) error {
	category = clean(category)
	return s.mutate(func(next *Snapshot) error {
		for k := range next.budgets {
			if key(k) == key(category) {
				delete(next.budgets, k)
				return nil
			}
		}
		return fmt.Errorf("%w: %q", ErrUnknownBudget, category)
	})
}

// RestoreBudget installs a budget without checking that its category exists.
// Persisted budgets may reference categories that were renamed since.
func (s *Store) RestoreBudget(b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return s.mutate(func(next *Snapshot) error {
		name := clean(b.Category)
		if i, ok := next.index[key(name)]; ok {
			name = next.categories[i].Name
		}
		next.budgets[name] = b.MonthlyLimit
		return nil
	})
}

// Replace swaps the whole taxonomy at once, e.g. after loading it from storage.
func (s *Store) Replace(categories []core.Category, budgets []core.Budget) error {
	next := emptySnapshot()
	for _, c := range categories {
		name := clean(c.Name)
		if name == "" {
			return ErrEmptyName
		}
		if _, ok := next.index[key(name)]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateCategory, name)
		}
		cat := core.Category{Name: name}
		seen := map[string]struct{}{}
		for _, sub := range c.Subcategories {
			sub = clean(sub)
			if sub == "" {
				continue
			}
			if _, dup := seen[key(sub)]; dup {
				return fmt.Errorf("%w: %q in %q", ErrDuplicateSubcategory, sub, name)
			}
			seen[key(sub)] = struct{}{}
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		next.categories = append(next.categories, cat)
		next.reindex()
	}
	for _, b := range budgets {
		if err := b.Validate(); err != nil {
			return err
		}
		name := clean(b.Category)
		if i, ok := next.index[key(name)]; ok {
			name = next.categories[i].Name
		}
		next.budgets[name] = b.MonthlyLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next.version = s.current.Load().version + 1
	s.current.Store(next)
	return nil
}

// mutate runs fn against a private copy of the current snapshot and
// publishes it only when fn succeeds.
func (s *Store) mutate(fn func(next *Snapshot) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.current.Load()
	next := cur.clone()
	if err := fn(next); err != nil {
		return err
	}
	next.version = cur.version + 1
	next.reindex()
	s.current.Store(next)
	return nil
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// key is the case-insensitive identity of a name.
func key(s string) string {
	return strings.ToLower(clean(s))
}
