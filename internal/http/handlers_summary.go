package http

import (
	"net/http"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, err := s.deps.Summaries.Month(r.Context(), p.Year, p.Month)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Body(newSummaryView(p.Year, p.Month, summary)).Write(w)
}

// handleTips returns the month's summary together with spending advice.
func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	summary, tips, err := s.deps.Summaries.Tips(r.Context(), p.Year, p.Month)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	v := newSummaryView(p.Year, p.Month, summary)
	v.Tips = tips
	if v.Tips == nil {
		v.Tips = []string{}
	}
	NewJSONResponse().Body(v).Write(w)
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	groups, err := s.deps.Summaries.Recurring(r.Context())
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	out := make([]recurringGroupView, 0, len(groups))
	for _, g := range groups {
		out = append(out, recurringGroupView{
			Category:     g.Category,
			MonthlyTotal: g.MonthlyTotal.String(),
			Charges:      newExpenseViews(g.Charges),
		})
	}
	NewJSONResponse().Body(out).Write(w)
}
