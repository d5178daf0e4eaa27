package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/taxonomy"
)

type nameRequest struct {
	Name string `json:"name"`
}

type budgetRequest struct {
	Category     string          `json:"category"`
	MonthlyLimit json.RawMessage `json:"monthlyLimit"`
}

// pathError reports an unknown category named in the URL as a missing resource.
func pathError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, taxonomy.ErrUnknownCategory) || errors.Is(err, taxonomy.ErrUnknownSubcategory) {
		NotFoundError(err.Error()).Write(w)
		return
	}
	ServiceError(w, r, err)
}

// refreshTaxonomy picks up edits made by other processes before a listing.
func (s *Server) refreshTaxonomy(r *http.Request) {
	if err := s.deps.Taxonomy.Refresh(r.Context()); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Taxonomy refresh failed", log.FieldError, err)
	}
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	s.refreshTaxonomy(r)
	NewJSONResponse().Body(newCategoryViews(s.deps.Taxonomy.ListCategories())).Write(w)
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	c, err := s.deps.Taxonomy.AddCategory(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newCategoryViews([]core.Category{c})[0]).Write(w)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Taxonomy.RemoveCategory(r.Context(), r.PathValue("name")); err != nil {
		pathError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddSubcategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	category := r.PathValue("name")
	if err := s.deps.Taxonomy.AddSubcategory(r.Context(), category, sanitizeInput(req.Name)); err != nil {
		pathError(w, r, err)
		return
	}
	c, _ := s.deps.Taxonomy.Store().Snapshot().Category(category)
	NewJSONResponse().Status(http.StatusCreated).Body(newCategoryViews([]core.Category{c})[0]).Write(w)
}

func (s *Server) handleRemoveSubcategory(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Taxonomy.RemoveSubcategory(r.Context(), r.PathValue("name"), r.PathValue("sub")); err != nil {
		pathError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	s.refreshTaxonomy(r)
	budgets := s.deps.Taxonomy.ListBudgets()
	out := make([]budgetView, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, newBudgetView(b))
	}
	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleAddBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	limit, err := ParseAmount(req.MonthlyLimit)
	if err != nil {
		UnprocessableEntityError("invalid monthly limit").Write(w)
		return
	}
	b, err := s.deps.Taxonomy.AddBudget(r.Context(), sanitizeInput(req.Category), limit)
	if err != nil {
		ServiceError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(newBudgetView(b)).Write(w)
}

// handleSetBudget creates or replaces the budget of the category in the path.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := DecodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	limit, err := ParseAmount(req.MonthlyLimit)
	if err != nil {
		UnprocessableEntityError("invalid monthly limit").Write(w)
		return
	}
	b, err := s.deps.Taxonomy.SetBudget(r.Context(), r.PathValue("category"), limit)
	if err != nil {
		pathError(w, r, err)
		return
	}
	NewJSONResponse().Body(newBudgetView(b)).Write(w)
}

func (s *Server) handleRemoveBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Taxonomy.RemoveBudget(r.Context(), r.PathValue("category")); err != nil {
		pathError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
