package http

import (
	"encoding/json"
	"math"

	"gastos/internal/budget"
	"gastos/internal/capture"
	"gastos/internal/core"
)

// expenseView is the wire form of an expense. Amount keeps two decimals.
type expenseView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amountCents"`
	Category      string `json:"category"`
	Subcategory   string `json:"subcategory"`
	Date          string `json:"date"`
	PaymentMethod string `json:"paymentMethod"`
	Recurring     bool   `json:"recurring"`
}

func newExpenseView(e core.Expense) expenseView {
	return expenseView{
		ID:            e.ID,
		Name:          e.Name,
		Amount:        e.Amount.String(),
		AmountCents:   e.Amount.Cents,
		Category:      e.Category,
		Subcategory:   e.Subcategory,
		Date:          e.Date.String(),
		PaymentMethod: string(e.PaymentMethod),
		Recurring:     e.Recurring,
	}
}

func newExpenseViews(es []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(es))
	for _, e := range es {
		out = append(out, newExpenseView(e))
	}
	return out
}

// expenseInput is accepted by POST /api/expenses. Amount may be a string or
// a number of euros; an empty date means today.
type expenseInput struct {
	Name          string          `json:"name"`
	Amount        json.RawMessage `json:"amount"`
	Category      string          `json:"category"`
	Subcategory   string          `json:"subcategory"`
	Date          string          `json:"date"`
	PaymentMethod string          `json:"paymentMethod"`
	Recurring     bool            `json:"recurring"`
}

type alternativeView struct {
	Category      string  `json:"category"`
	Subcategory   string  `json:"subcategory,omitempty"`
	Confidence    float64 `json:"confidence"`
	SubConfidence float64 `json:"subConfidence"`
}

type candidateView struct {
	Expense           expenseView               `json:"expense"`
	Confidence        map[capture.Field]float64 `json:"confidence"`
	NeedsConfirmation []capture.Field           `json:"needsConfirmation"`
	Alternatives      []alternativeView         `json:"alternatives"`
	Utterance         string                    `json:"utterance,omitempty"`
}

func newCandidateView(c capture.CandidateExpense) candidateView {
	v := candidateView{
		Expense:           newExpenseView(c.Expense),
		Confidence:        c.Confidence,
		NeedsConfirmation: c.NeedsConfirmation,
		Alternatives:      make([]alternativeView, 0, len(c.Alternatives)),
	}
	if v.NeedsConfirmation == nil {
		v.NeedsConfirmation = []capture.Field{}
	}
	for _, a := range c.Alternatives {
		v.Alternatives = append(v.Alternatives, alternativeView(a))
	}
	return v
}

type categoryView struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

func newCategoryViews(cs []core.Category) []categoryView {
	out := make([]categoryView, 0, len(cs))
	for _, c := range cs {
		subs := c.Subcategories
		if subs == nil {
			subs = []string{}
		}
		out = append(out, categoryView{Name: c.Name, Subcategories: subs})
	}
	return out
}

type budgetView struct {
	Category     string `json:"category"`
	MonthlyLimit string `json:"monthlyLimit"`
	LimitCents   int64  `json:"limitCents"`
}

func newBudgetView(b core.Budget) budgetView {
	return budgetView{Category: b.Category, MonthlyLimit: b.MonthlyLimit.String(), LimitCents: b.MonthlyLimit.Cents}
}

type subcategoryTotalView struct {
	Subcategory string `json:"subcategory"`
	Total       string `json:"total"`
	TotalCents  int64  `json:"totalCents"`
	Count       int    `json:"count"`
}

// categoryTotalView reports Percentage as null when there is no budget or
// the limit is zero; Unbounded tells the two apart.
type categoryTotalView struct {
	Category      string                 `json:"category"`
	Total         string                 `json:"total"`
	TotalCents    int64                  `json:"totalCents"`
	Count         int                    `json:"count"`
	Subcategories []subcategoryTotalView `json:"subcategories"`
	HasBudget     bool                   `json:"hasBudget"`
	Limit         *string                `json:"limit"`
	Remaining     *string                `json:"remaining"`
	Percentage    *float64               `json:"percentage"`
	OverBudget    bool                   `json:"overBudget"`
	Unbounded     bool                   `json:"unbounded"`
}

type summaryView struct {
	Year       int                 `json:"year"`
	Month      int                 `json:"month"`
	Total      string              `json:"total"`
	TotalCents int64               `json:"totalCents"`
	Budgeted   string              `json:"budgeted"`
	OverBudget []string            `json:"overBudget"`
	Categories []categoryTotalView `json:"categories"`
	Tips       []string            `json:"tips,omitempty"`
}

func newSummaryView(year, month int, s budget.Summary) summaryView {
	v := summaryView{
		Year:       year,
		Month:      month,
		Total:      s.Total.String(),
		TotalCents: s.Total.Cents,
		Budgeted:   s.Budgeted.String(),
		OverBudget: s.OverBudget(),
		Categories: make([]categoryTotalView, 0, len(s.Categories)),
	}
	if v.OverBudget == nil {
		v.OverBudget = []string{}
	}
	for _, c := range s.Categories {
		ct := categoryTotalView{
			Category:      c.Category,
			Total:         c.Total.String(),
			TotalCents:    c.Total.Cents,
			Count:         c.Count,
			Subcategories: make([]subcategoryTotalView, 0, len(c.Subcategories)),
			HasBudget:     c.HasBudget,
			OverBudget:    c.OverBudget,
			Unbounded:     c.Unbounded,
		}
		for _, sub := range c.Subcategories {
			ct.Subcategories = append(ct.Subcategories, subcategoryTotalView{
				Subcategory: sub.Subcategory,
				Total:       sub.Total.String(),
				TotalCents:  sub.Total.Cents,
				Count:       sub.Count,
			})
		}
		if c.HasBudget {
			limit := c.Limit.String()
			remaining := c.Remaining().String()
			ct.Limit, ct.Remaining = &limit, &remaining
			if !c.Unbounded && !math.IsInf(c.Percentage, 0) {
				pct := math.Round(c.Percentage*100) / 100
				ct.Percentage = &pct
			}
		}
		v.Categories = append(v.Categories, ct)
	}
	return v
}

type recurringGroupView struct {
	Category     string        `json:"category"`
	MonthlyTotal string        `json:"monthlyTotal"`
	Charges      []expenseView `json:"charges"`
}
