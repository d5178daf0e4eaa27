package http

import (
	"fmt"
	"net/http"
	"strings"

	"gastos/internal/core"
	"gastos/internal/storage"
)

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in expenseInput
	if err := DecodeJSON(r, &in); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	amount, err := ParseAmount(in.Amount)
	if err != nil {
		UnprocessableEntityError("invalid amount").Write(w)
		return
	}

	date := core.DateOf(s.now())
	if v := strings.TrimSpace(in.Date); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			UnprocessableEntityError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", v)).Write(w)
			return
		}
	}

	payment := s.payment
	if v := strings.TrimSpace(in.PaymentMethod); v != "" {
		if payment, err = core.ParsePaymentMethod(v); err != nil {
			UnprocessableEntityError(fmt.Sprintf("invalid payment method %q", v)).Write(w)
			return
		}
	}

	saved, err := s.deps.Expenses.CreateExpense(r.Context(), core.Expense{
		Name:          sanitizeInput(in.Name),
		Amount:        amount,
		Category:      sanitizeInput(in.Category),
		Subcategory:   sanitizeInput(in.Subcategory),
		Date:          date,
		PaymentMethod: payment,
		Recurring:     in.Recurring,
	})
	if err != nil {
		ServiceError(w, r, err)
		return
	}

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+saved.ID).
		Body(newExpenseView(saved)).
		Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f storage.Filter
	if q.Get("year") != "" || q.Get("month") != "" {
		p, err := ParseMonthParams(q, s.now())
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		f.Year = p.Year
		if q.Get("month") != "" {
			f.Month = p.Month
		}
	}
	f.Category = sanitizeInput(q.Get("category"))

	expenses, err := s.deps.Expenses.ListExpenses(r.Context(), f)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseViews(expenses)).Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.GetExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseView(e)).Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.DeleteExpense(r.Context(), r.PathValue("id"))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(newExpenseView(e)).Write(w)
}
