// Package storage persists expenses, budgets and the taxonomy. The capture
// core never touches storage directly; services hand it confirmed values.
package storage

import (
	"context"
	"errors"
	"strings"

	"gastos/internal/core"
)

var ErrNotFound = errors.New("not found")

// Filter narrows ListExpenses. Zero fields match everything.
type Filter struct {
	Year     int
	Month    int
	Category string
}

// Match reports whether e passes the filter.
func (f Filter) Match(e core.Expense) bool {
	if f.Year != 0 && e.Date.Year() != f.Year {
		return false
	}
	if f.Month != 0 && e.Date.Month() != f.Month {
		return false
	}
	if f.Category != "" && !equalFold(f.Category, e.Category) {
		return false
	}
	return true
}

type ExpenseStore interface {
	SaveExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id string) (core.Expense, error)
	DeleteExpense(ctx context.Context, id string) error
	// ListExpenses returns matches ordered by date, then id.
	ListExpenses(ctx context.Context, f Filter) ([]core.Expense, error)
}

type BudgetStore interface {
	SaveBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, category string) error
	ListBudgets(ctx context.Context) ([]core.Budget, error)
}

// TaxonomyStore saves the category tree as a whole, preserving order.
type TaxonomyStore interface {
	SaveTaxonomy(ctx context.Context, categories []core.Category) error
	LoadTaxonomy(ctx context.Context) ([]core.Category, error)
}

type Repository interface {
	ExpenseStore
	BudgetStore
	TaxonomyStore
	Ping(ctx context.Context) error
	Close() error
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
