package services

import (
	"context"
	"errors"
	"fmt"

	"gastos/internal/assist"
	"gastos/internal/budget"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/taxonomy"
)

var ErrInvalidPeriod = errors.New("invalid period")

// Refresher brings the in-memory taxonomy up to date with storage.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// refresh keeps serving the in-memory copy when storage cannot be read.
func refresh(ctx context.Context, r Refresher, logger *log.Logger) {
	if r == nil {
		return
	}
	if err := r.Refresh(ctx); err != nil {
		logger.WarnContext(ctx, "Taxonomy refresh failed, using cached copy", log.FieldError, err)
	}
}

// SummaryService reads a month of expenses and aggregates it against the
// current budgets. Identical inputs are served from the memo.
type SummaryService struct {
	expenses storage.ExpenseStore
	taxonomy *taxonomy.Store
	memo     *budget.Memo
	advisor  *assist.Assistant
	source   Refresher
	logger   *log.Logger
}

// NewSummaryService accepts a nil memo and a nil assistant.
func NewSummaryService(expenses storage.ExpenseStore, tax *taxonomy.Store, memo *budget.Memo, advisor *assist.Assistant, logger *log.Logger) *SummaryService {
	if logger == nil {
		logger = log.Discard()
	}
	return &SummaryService{
		expenses: expenses,
		taxonomy: tax,
		memo:     memo,
		advisor:  advisor,
		logger:   logger.WithComponent(log.ComponentBudget),
	}
}

// ReloadFrom makes every summary read budgets changed by other processes.
func (s *SummaryService) ReloadFrom(r Refresher) {
	s.source = r
}

// Month aggregates the expenses dated in year/month.
func (s *SummaryService) Month(ctx context.Context, year, month int) (budget.Summary, error) {
	if month < 1 || month > 12 {
		return budget.Summary{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
	refresh(ctx, s.source, s.logger)
	expenses, err := s.expenses.ListExpenses(ctx, storage.Filter{Year: year, Month: month})
	if err != nil {
		return budget.Summary{}, fmt.Errorf("list expenses: %w", err)
	}

	budgets := s.taxonomy.Budgets()
	var summary budget.Summary
	if s.memo != nil {
		summary = s.memo.Aggregate(expenses, budgets)
	} else {
		summary = budget.Aggregate(expenses, budgets)
	}

	s.logger.DebugContext(ctx, "Summary computed",
		log.FieldYear, year,
		log.FieldMonth, month,
		"categories", len(summary.Categories),
		"over_budget", len(summary.OverBudget()))
	return summary, nil
}

// Recurring lists every recurring charge on record, grouped by category.
func (s *SummaryService) Recurring(ctx context.Context) ([]budget.RecurringGroup, error) {
	expenses, err := s.expenses.ListExpenses(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return budget.Recurring(expenses), nil
}

// Tips returns the month's summary and advice for it.
func (s *SummaryService) Tips(ctx context.Context, year, month int) (budget.Summary, []string, error) {
	summary, err := s.Month(ctx, year, month)
	if err != nil {
		return budget.Summary{}, nil, err
	}
	if s.advisor == nil {
		return summary, assist.LocalTips(summary), nil
	}
	return summary, s.advisor.Tips(ctx, summary), nil
}
