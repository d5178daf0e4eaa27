package google

import (
	"fmt"
	"strconv"
	"strings"

	"gastos/internal/core"
)

// Header is written to the first row of an empty sheet. The id column lets
// a removal find its row again.
var Header = []any{"Nombre", "Importe", "Categoría", "Subcategoría", "Fecha", "Forma de pago", "Recurrente", "ID"}

const (
	colName = iota
	colAmount
	colCategory
	colSubcategory
	colDate
	colPayment
	colRecurring
	colID
	numCols
)

// lastCol is the spreadsheet letter of the id column.
const lastCol = "H"

// expenseRow renders e in Header order. Amounts keep two decimals and a dot.
func expenseRow(e core.Expense) []any {
	recurring := "no"
	if e.Recurring {
		recurring = "sí"
	}
	return []any{
		e.Name,
		e.Amount.String(),
		e.Category,
		e.Subcategory,
		e.Date.String(),
		string(e.PaymentMethod),
		recurring,
		e.ID,
	}
}

// parseRow reads back a row written by expenseRow.
func parseRow(row []any) (core.Expense, error) {
	cols := toStrings(row)
	if len(cols) < numCols {
		return core.Expense{}, fmt.Errorf("row has %d columns, want %d", len(cols), numCols)
	}
	amount, err := core.ParseMoney(cols[colAmount])
	if err != nil {
		return core.Expense{}, fmt.Errorf("amount %q: %w", cols[colAmount], err)
	}
	date, err := core.ParseDate(cols[colDate])
	if err != nil {
		return core.Expense{}, fmt.Errorf("date %q: %w", cols[colDate], err)
	}
	payment, err := core.ParsePaymentMethod(cols[colPayment])
	if err != nil {
		return core.Expense{}, fmt.Errorf("payment %q: %w", cols[colPayment], err)
	}
	recurring, _ := strconv.ParseBool(cols[colRecurring])
	if strings.EqualFold(cols[colRecurring], "sí") || strings.EqualFold(cols[colRecurring], "si") {
		recurring = true
	}
	return core.Expense{
		ID:            cols[colID],
		Name:          cols[colName],
		Amount:        amount,
		Category:      cols[colCategory],
		Subcategory:   cols[colSubcategory],
		Date:          date,
		PaymentMethod: payment,
		Recurring:     recurring,
	}, nil
}

// findRow returns the zero-based index of the row holding id in the id
// column, or -1.
func findRow(idColumn [][]any, id string) int {
	for i, row := range idColumn {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i
		}
	}
	return -1
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
