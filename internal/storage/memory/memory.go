// Package memory is an in-process storage.Repository used for development
// and tests. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gastos/internal/core"
	"gastos/internal/storage"
)

type Repository struct {
	mu         sync.RWMutex
	expenses   map[string]core.Expense
	budgets    map[string]core.Budget
	categories []core.Category
}

var _ storage.Repository = (*Repository)(nil)

func New() *Repository {
	return &Repository{
		expenses: make(map[string]core.Expense),
		budgets:  make(map[string]core.Budget),
	}
}

func (r *Repository) SaveExpense(_ context.Context, e core.Expense) error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("save expense: empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expenses[e.ID] = e
	return nil
}

func (r *Repository) GetExpense(_ context.Context, id string) (core.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	return e, nil
}

func (r *Repository) DeleteExpense(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, storage.ErrNotFound)
	}
	delete(r.expenses, id)
	return nil
}

func (r *Repository) ListExpenses(_ context.Context, f storage.Filter) ([]core.Expense, error) {
	r.mu.RLock()
	out := make([]core.Expense, 0, len(r.expenses))
	for _, e := range r.expenses {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func budgetKey(category string) string {
	return strings.ToLower(strings.TrimSpace(category))
}

func (r *Repository) SaveBudget(_ context.Context, b core.Budget) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Category = strings.TrimSpace(b.Category)
	r.budgets[budgetKey(b.Category)] = b
	return nil
}

func (r *Repository) DeleteBudget(_ context.Context, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := budgetKey(category)
	if _, ok := r.budgets[k]; !ok {
		return fmt.Errorf("budget %s: %w", category, storage.ErrNotFound)
	}
	delete(r.budgets, k)
	return nil
}

func (r *Repository) ListBudgets(_ context.Context) ([]core.Budget, error) {
	r.mu.RLock()
	out := make([]core.Budget, 0, len(r.budgets))
	for _, b := range r.budgets {
		out = append(out, b)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return budgetKey(out[i].Category) < budgetKey(out[j].Category) })
	return out, nil
}

func (r *Repository) SaveTaxonomy(_ context.Context, categories []core.Category) error {
	cp := make([]core.Category, len(categories))
	for i, c := range categories {
		cp[i] = c.Clone()
	}
	r.mu.Lock()
	r.categories = cp
	r.mu.Unlock()
	return nil
}

func (r *Repository) LoadTaxonomy(_ context.Context) ([]core.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Category, len(r.categories))
	for i, c := range r.categories {
		out[i] = c.Clone()
	}
	return out, nil
}

func (r *Repository) Ping(context.Context) error { return nil }

func (r *Repository) Close() error { return nil }
