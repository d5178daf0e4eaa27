package worker

import (
	"context"
	"errors"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
	"gastos/internal/sheets"
	"gastos/internal/storage"
)

// ExpenseLister is implemented by exporters that can read their rows back.
type ExpenseLister interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// BudgetChecker is run after every exported expense.
type BudgetChecker interface {
	Check(ctx context.Context) []services.Alert
}

var _ BudgetChecker = (*services.AlertMonitor)(nil)

// SyncWorker mirrors expense events into a spreadsheet.
type SyncWorker struct {
	exporter sheets.ExpenseExporter
	store    storage.ExpenseStore
	checker  BudgetChecker
	logger   *log.Logger
}

// NewSyncWorker accepts a nil store and checker; reconciliation and budget
// checks are skipped without them.
func NewSyncWorker(exporter sheets.ExpenseExporter, store storage.ExpenseStore, checker BudgetChecker, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		exporter: exporter,
		store:    store,
		checker:  checker,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is an amqp.Handler. Returning an error requeues the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	e, err := ev.Expense.ToExpense()
	if err != nil {
		w.logger.ErrorContext(ctx, "Dropping event with invalid expense",
			log.FieldExpenseID, ev.Expense.ID,
			log.FieldError, err)
		return nil
	}

	switch ev.Op {
	case amqp.OpCreated:
		return w.export(ctx, e)
	case amqp.OpDeleted:
		return w.remove(ctx, e)
	default:
		w.logger.WarnContext(ctx, "Ignoring unknown event", log.FieldOperation, string(ev.Op))
		return nil
	}
}

func (w *SyncWorker) export(ctx context.Context, e core.Expense) error {
	ref, err := w.exporter.Export(ctx, e)
	if err != nil {
		if errors.Is(err, core.ErrInvalidAmount) || errors.Is(err, core.ErrEmptyName) {
			w.logger.ErrorContext(ctx, "Expense rejected by exporter", log.FieldExpenseID, e.ID, log.FieldError, err)
			return nil
		}
		return fmt.Errorf("export expense %s: %w", e.ID, err)
	}

	fields := log.NewFields().WithOperation(log.OpExport).WithExpense(e)
	w.logger.InfoContext(ctx, "Expense exported", append(fields.ToSlice(), "row_ref", ref)...)

	if w.checker != nil {
		w.checker.Check(ctx)
	}
	return nil
}

func (w *SyncWorker) remove(ctx context.Context, e core.Expense) error {
	if err := w.exporter.Remove(ctx, e.ID); err != nil {
		return fmt.Errorf("remove expense %s: %w", e.ID, err)
	}
	w.logger.InfoContext(ctx, "Expense removed from sheet",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, e.ID)
	return nil
}

// StartupSyncCheck exports stored expenses missing from the sheet. This
// recovers events lost while the worker was down.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	lister, ok := w.exporter.(ExpenseLister)
	if w.store == nil || !ok {
		w.logger.InfoContext(ctx, "Startup sync check skipped")
		return nil
	}

	stored, err := w.store.ListExpenses(ctx, storage.Filter{})
	if err != nil {
		return fmt.Errorf("list stored expenses: %w", err)
	}
	exported, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list exported expenses: %w", err)
	}

	seen := make(map[string]struct{}, len(exported))
	for _, e := range exported {
		seen[e.ID] = struct{}{}
	}

	synced, failed := 0, 0
	for _, e := range stored {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		if _, err := w.exporter.Export(ctx, e); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export missing expense", log.FieldExpenseID, e.ID, log.FieldError, err)
			failed++
			continue
		}
		synced++
	}

	w.logger.InfoContext(ctx, "Startup sync completed",
		"stored", len(stored),
		"exported", len(exported),
		"synced", synced,
		"errors", failed)
	return nil
}
