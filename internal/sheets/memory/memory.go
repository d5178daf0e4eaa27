// Package memory is an in-process sheets exporter for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"gastos/internal/core"
	ports "gastos/internal/sheets"
)

type Exporter struct {
	mu   sync.Mutex
	rows []core.Expense
	next int
}

var _ ports.ExpenseExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// Export stores the expense and returns a synthetic row reference.
func (x *Exporter) Export(_ context.Context, e core.Expense) (string, error) {
	if err := e.Validate(); err != nil {
		return "", err
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.rows = append(x.rows, e)
	x.next++
	return fmt.Sprintf("mem:%d", x.next), nil
}

func (x *Exporter) Remove(_ context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	for i, e := range x.rows {
		if e.ID == id {
			x.rows = append(x.rows[:i], x.rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("expense row %s not found", id)
}

// Rows returns a copy of the exported expenses in export order.
func (x *Exporter) Rows() []core.Expense {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]core.Expense(nil), x.rows...)
}

func (x *Exporter) List(_ context.Context) ([]core.Expense, error) {
	return x.Rows(), nil
}
