// Package services orchestrates the capture core with storage, messaging and
// the assistant. Core packages stay pure; side effects live here.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/taxonomy"
)

// EventPublisher announces stored and removed expenses. *amqp.Client implements it.
type EventPublisher interface {
	PublishExpense(ctx context.Context, op amqp.Op, e core.Expense) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// ExpenseService validates confirmed expenses against the live taxonomy,
// stores them and publishes an event.
type ExpenseService struct {
	store     storage.ExpenseStore
	taxonomy  *taxonomy.Store
	publisher EventPublisher
	source    Refresher
	logger    *log.Logger
	newID     func() string
}

// NewExpenseService accepts a nil publisher when messaging is disabled.
func NewExpenseService(store storage.ExpenseStore, tax *taxonomy.Store, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	if logger == nil {
		logger = log.Discard()
	}
	return &ExpenseService{
		store:     store,
		taxonomy:  tax,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
		newID:     uuid.NewString,
	}
}

// ReloadFrom makes validation accept categories added by other processes.
func (s *ExpenseService) ReloadFrom(r Refresher) {
	s.source = r
}

// CreateExpense stores e after checking its fields and its category pair.
// Category names are canonicalised to the taxonomy's spelling.
func (s *ExpenseService) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	e.Name = strings.TrimSpace(e.Name)
	if err := e.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}
	refresh(ctx, s.source, s.logger)

	snap := s.taxonomy.Snapshot()
	known, ok := snap.Category(e.Category)
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %q", taxonomy.ErrUnknownCategory, e.Category)
	}
	cat, sub, ok := snap.Canonical(e.Category, e.Subcategory)
	if !ok || (sub == "" && len(known.Subcategories) > 0) {
		return core.Expense{}, fmt.Errorf("%w: %q in %q", taxonomy.ErrUnknownSubcategory, e.Subcategory, known.Name)
	}
	e.Category, e.Subcategory = cat, sub

	if e.ID == "" {
		e.ID = s.newID()
	}

	if err := s.store.SaveExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense created", log.NewFields().
		WithOperation(log.OpCreate).
		WithExpense(e).
		ToSlice()...)

	s.publish(ctx, amqp.OpCreated, e)
	return e, nil
}

// DeleteExpense removes the expense and returns what was removed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id string) (core.Expense, error) {
	e, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, err
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return core.Expense{}, fmt.Errorf("delete expense: %w", err)
	}

	s.logger.InfoContext(ctx, "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)

	s.publish(ctx, amqp.OpDeleted, e)
	return e, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, id)
}

func (s *ExpenseService) ListExpenses(ctx context.Context, f storage.Filter) ([]core.Expense, error) {
	out, err := s.store.ListExpenses(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

// publish never fails the request; the expense is already stored.
func (s *ExpenseService) publish(ctx context.Context, op amqp.Op, e core.Expense) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpense(ctx, op, e); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish expense event",
			log.FieldExpenseID, e.ID,
			"op", op,
			log.FieldError, err)
	}
}

// IsValidationError reports whether err comes from input validation rather
// than from storage.
func IsValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount, core.ErrEmptyName, core.ErrEmptyCategory, core.ErrNameTooLong,
		core.ErrInvalidPayment, core.ErrZeroDate, core.ErrInvalidDay, core.ErrInvalidMonth,
		core.ErrNegativeBudget, core.ErrEmptyBudgetOwner,
		taxonomy.ErrUnknownCategory, taxonomy.ErrUnknownSubcategory, taxonomy.ErrEmptyName,
		ErrInvalidPeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
