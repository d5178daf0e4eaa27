// Package sheets exports confirmed expenses to a spreadsheet.
package sheets

import (
	"context"

	"gastos/internal/core"
)

// Ports for outbound adapters.
type (
	// ExpenseExporter appends expenses as rows and removes them again by id.
	ExpenseExporter interface {
		Export(ctx context.Context, e core.Expense) (rowRef string, err error)
		Remove(ctx context.Context, id string) error
	}
)
