package budget

import (
	"sort"

	"gastos/internal/core"
)

// RecurringGroup lists the recurring charges of one category. MonthlyTotal
// counts each distinct charge name once, at its most recent amount.
type RecurringGroup struct {
	Category     string
	Charges      []core.Expense
	MonthlyTotal core.Money
}

// Recurring groups recurring expenses by category. When the same charge was
// recorded in several months only the latest record is kept.
func Recurring(expenses []core.Expense) []RecurringGroup {
	latest := map[string]core.Expense{}
	for _, e := range expenses {
		if !e.Recurring {
			continue
		}
		k := foldKey(e.Category) + "\x00" + foldKey(e.Name)
		if prev, ok := latest[k]; !ok || e.Date.After(prev.Date.Time) {
			latest[k] = e
		}
	}

	groups := map[string]*RecurringGroup{}
	for _, e := range latest {
		k := foldKey(e.Category)
		g, ok := groups[k]
		if !ok {
			g = &RecurringGroup{Category: e.Category}
			groups[k] = g
		}
		g.Charges = append(g.Charges, e)
		g.MonthlyTotal = g.MonthlyTotal.Add(e.Amount)
	}

	out := make([]RecurringGroup, 0, len(groups))
	for _, g := range groups {
		sort.Slice(g.Charges, func(i, j int) bool {
			return foldKey(g.Charges[i].Name) < foldKey(g.Charges[j].Name)
		})
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return foldKey(out[i].Category) < foldKey(out[j].Category) })
	return out
}
