// Package budget rolls expense records into per-category totals and compares
// them with monthly budgets. Everything here is a pure function of its inputs.
package budget

import (
	"math"
	"sort"
	"strings"

	"gastos/internal/core"
)

// Infinite is the percentage reported for spending against a zero budget.
var Infinite = math.Inf(1)

type SubcategoryTotal struct {
	Subcategory string
	Total       core.Money
	Count       int
}

// CategoryTotal is derived for one aggregation pass and never stored.
// Percentage, OverBudget and Unbounded are only meaningful when HasBudget.
type CategoryTotal struct {
	Category      string
	Total         core.Money
	Count         int
	Subcategories []SubcategoryTotal

	HasBudget  bool
	Limit      core.Money
	Percentage float64
	OverBudget bool
	// Unbounded marks spending against a zero limit; Percentage is Infinite.
	Unbounded bool
}

// Remaining is the limit minus the total, negative when over budget.
func (c CategoryTotal) Remaining() core.Money {
	return core.Money{Cents: c.Limit.Cents - c.Total.Cents}
}

type Summary struct {
	Categories []CategoryTotal
	Total      core.Money
	Budgeted   core.Money
}

type bucket struct {
	ct   CategoryTotal
	subs map[string]*SubcategoryTotal
}

func foldKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Aggregate reports every category present in either input. Budget names win
// over expense spelling; among expense spellings the smallest wins, so input
// order never shows. Categories are sorted by name, subcategories too.
func Aggregate(expenses []core.Expense, budgets map[string]core.Money) Summary {
	buckets := map[string]*bucket{}
	get := func(name string) *bucket {
		k := foldKey(name)
		name = strings.TrimSpace(name)
		b, ok := buckets[k]
		if !ok {
			b = &bucket{ct: CategoryTotal{Category: name}, subs: map[string]*SubcategoryTotal{}}
			buckets[k] = b
		} else if name < b.ct.Category {
			b.ct.Category = name
		}
		return b
	}

	var s Summary
	for _, e := range expenses {
		b := get(e.Category)
		b.ct.Total = b.ct.Total.Add(e.Amount)
		b.ct.Count++
		sk, sub := foldKey(e.Subcategory), strings.TrimSpace(e.Subcategory)
		st, ok := b.subs[sk]
		if !ok {
			st = &SubcategoryTotal{Subcategory: sub}
			b.subs[sk] = st
		} else if sub < st.Subcategory {
			st.Subcategory = sub
		}
		st.Total = st.Total.Add(e.Amount)
		st.Count++
		s.Total = s.Total.Add(e.Amount)
	}

	names := make([]string, 0, len(budgets))
	for name := range budgets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		limit := budgets[name]
		b := get(name)
		b.ct.Category = strings.TrimSpace(name)
		b.ct.HasBudget = true
		b.ct.Limit = limit
		s.Budgeted = s.Budgeted.Add(limit)
	}

	s.Categories = make([]CategoryTotal, 0, len(buckets))
	for _, b := range buckets {
		ct := b.ct
		for _, st := range b.subs {
			ct.Subcategories = append(ct.Subcategories, *st)
		}
		sort.Slice(ct.Subcategories, func(i, j int) bool {
			return foldKey(ct.Subcategories[i].Subcategory) < foldKey(ct.Subcategories[j].Subcategory)
		})
		if ct.HasBudget {
			ct.Percentage, ct.OverBudget, ct.Unbounded = consumption(ct.Total, ct.Limit)
		}
		s.Categories = append(s.Categories, ct)
	}
	sort.Slice(s.Categories, func(i, j int) bool {
		return foldKey(s.Categories[i].Category) < foldKey(s.Categories[j].Category)
	})
	return s
}

// consumption is total/limit*100, unclamped. A zero limit blocks all spending.
func consumption(total, limit core.Money) (pct float64, over, unbounded bool) {
	if limit.Cents == 0 {
		if total.Cents > 0 {
			return Infinite, true, true
		}
		return 0, false, false
	}
	return float64(total.Cents*100) / float64(limit.Cents), total.Cents > limit.Cents, false
}

// OverBudget lists the categories whose total exceeds their limit.
func (s Summary) OverBudget() []string {
	var out []string
	for _, c := range s.Categories {
		if c.HasBudget && c.OverBudget {
			out = append(out, c.Category)
		}
	}
	return out
}

// Category finds one category case-insensitively.
func (s Summary) Category(name string) (CategoryTotal, bool) {
	k := foldKey(name)
	for _, c := range s.Categories {
		if foldKey(c.Category) == k {
			return c, true
		}
	}
	return CategoryTotal{}, false
}

// Clone deep-copies the summary so cached values can be handed out safely.
func (s Summary) Clone() Summary {
	out := s
	out.Categories = make([]CategoryTotal, len(s.Categories))
	for i, c := range s.Categories {
		c.Subcategories = append([]SubcategoryTotal(nil), c.Subcategories...)
		out.Categories[i] = c
	}
	return out
}

// FilterMonth keeps the expenses dated in the given month.
func FilterMonth(expenses []core.Expense, year, month int) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Date.Year() == year && e.Date.Month() == month {
			out = append(out, e)
		}
	}
	return out
}
