package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/taxonomy"
)

// TaxonomyPersistence is the storage the taxonomy service writes through to.
type TaxonomyPersistence interface {
	storage.TaxonomyStore
	storage.BudgetStore
}

// TaxonomyService applies edits to the in-memory store and persists them.
// When persisting fails the store is rolled back to the previous snapshot.
type TaxonomyService struct {
	mu     sync.Mutex // serialises edit-then-persist
	store  *taxonomy.Store
	repo   TaxonomyPersistence
	logger *log.Logger
}

func NewTaxonomyService(store *taxonomy.Store, repo TaxonomyPersistence, logger *log.Logger) *TaxonomyService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TaxonomyService{store: store, repo: repo, logger: logger.WithComponent(log.ComponentTaxonomy)}
}

func (s *TaxonomyService) Store() *taxonomy.Store {
	return s.store
}

// Bootstrap loads the persisted taxonomy. An empty database is seeded and the
// seed written back, so later runs start from what the user edited.
func (s *TaxonomyService) Bootstrap(ctx context.Context, seed taxonomy.Seed) error {
	cats, err := s.repo.LoadTaxonomy(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}

	if len(cats) == 0 {
		if err := seed.Apply(s.store); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
		for _, b := range budgets {
			if err := s.store.RestoreBudget(b); err != nil {
				return fmt.Errorf("restore budget %q: %w", b.Category, err)
			}
		}
		if err := s.persistAll(ctx); err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "Taxonomy seeded",
			"categories", len(s.store.ListCategories()),
			log.FieldVersion, s.store.Version())
		return nil
	}

	if err := s.store.Replace(cats, budgets); err != nil {
		return fmt.Errorf("install stored taxonomy: %w", err)
	}
	s.logger.InfoContext(ctx, "Taxonomy loaded from storage",
		"categories", len(cats),
		"budgets", len(budgets),
		log.FieldVersion, s.store.Version())
	return nil
}

// Refresh installs the stored taxonomy and budgets when another process
// changed them. An empty database leaves the store untouched.
func (s *TaxonomyService) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reload(ctx)
}

func (s *TaxonomyService) reload(ctx context.Context) error {
	cats, err := s.repo.LoadTaxonomy(ctx)
	if err != nil {
		return fmt.Errorf("load taxonomy: %w", err)
	}
	if len(cats) == 0 {
		return nil
	}
	budgets, err := s.repo.ListBudgets(ctx)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	if sameTaxonomy(s.store.Snapshot(), cats, budgets) {
		return nil
	}
	if err := s.store.Replace(cats, budgets); err != nil {
		return fmt.Errorf("install stored taxonomy: %w", err)
	}
	s.logger.InfoContext(ctx, "Taxonomy reloaded from storage",
		"categories", len(cats),
		"budgets", len(budgets),
		log.FieldVersion, s.store.Version())
	return nil
}

func sameTaxonomy(snap *taxonomy.Snapshot, cats []core.Category, budgets []core.Budget) bool {
	eq := slices.EqualFunc(snap.Categories(), cats, func(a, b core.Category) bool {
		return a.Name == b.Name && slices.Equal(a.Subcategories, b.Subcategories)
	})
	if !eq {
		return false
	}
	stored := make(map[string]core.Money, len(budgets))
	for _, b := range budgets {
		stored[b.Category] = b.MonthlyLimit
	}
	return maps.Equal(snap.Budgets(), stored)
}

func (s *TaxonomyService) persistAll(ctx context.Context) error {
	if err := s.repo.SaveTaxonomy(ctx, s.store.ListCategories()); err != nil {
		return fmt.Errorf("save taxonomy: %w", err)
	}
	for _, b := range s.store.Snapshot().BudgetList() {
		if err := s.repo.SaveBudget(ctx, b); err != nil {
			return fmt.Errorf("save budget %q: %w", b.Category, err)
		}
	}
	return nil
}

// edit reloads from storage, runs mutate, then persist; a persist failure
// restores prev.
func (s *TaxonomyService) edit(ctx context.Context, op string, mutate func() error, persist func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(ctx); err != nil {
		return err
	}
	prev := s.store.Snapshot()
	if err := mutate(); err != nil {
		return err
	}
	if err := persist(); err != nil {
		if rerr := s.store.Replace(prev.Categories(), prev.BudgetList()); rerr != nil {
			s.logger.ErrorContext(ctx, "Failed to roll back taxonomy", log.FieldError, rerr)
		}
		return fmt.Errorf("persist taxonomy: %w", err)
	}
	s.logger.InfoContext(ctx, "Taxonomy updated",
		log.FieldOperation, op,
		log.FieldVersion, s.store.Version())
	return nil
}

func (s *TaxonomyService) saveCategories(ctx context.Context) func() error {
	return func() error { return s.repo.SaveTaxonomy(ctx, s.store.ListCategories()) }
}

func (s *TaxonomyService) AddCategory(ctx context.Context, name string) (core.Category, error) {
	var added core.Category
	err := s.edit(ctx, "add_category", func() error {
		var err error
		added, err = s.store.AddCategory(name)
		return err
	}, s.saveCategories(ctx))
	return added, err
}

func (s *TaxonomyService) AddSubcategory(ctx context.Context, category, name string) error {
	return s.edit(ctx, "add_subcategory", func() error {
		return s.store.AddSubcategory(category, name)
	}, s.saveCategories(ctx))
}

func (s *TaxonomyService) RemoveSubcategory(ctx context.Context, category, name string) error {
	return s.edit(ctx, "remove_subcategory", func() error {
		return s.store.RemoveSubcategory(category, name)
	}, s.saveCategories(ctx))
}

// RemoveCategory also drops the category's budget. The budget row goes first
// and is written back if saving the tree fails.
func (s *TaxonomyService) RemoveCategory(ctx context.Context, name string) error {
	var dropped *core.Budget
	return s.edit(ctx, "remove_category", func() error {
		snap := s.store.Snapshot()
		if c, ok := snap.Category(name); ok {
			if limit, ok := snap.Budget(c.Name); ok {
				dropped = &core.Budget{Category: c.Name, MonthlyLimit: limit}
			}
		}
		return s.store.RemoveCategory(name)
	}, func() error {
		if dropped != nil {
			if err := s.repo.DeleteBudget(ctx, dropped.Category); err != nil {
				return err
			}
		}
		err := s.repo.SaveTaxonomy(ctx, s.store.ListCategories())
		if err != nil && dropped != nil {
			if rerr := s.repo.SaveBudget(ctx, *dropped); rerr != nil {
				s.logger.ErrorContext(ctx, "Failed to restore budget",
					log.FieldCategory, dropped.Category,
					log.FieldError, rerr)
			}
		}
		return err
	})
}

// AddBudget rejects a second budget for the same category.
func (s *TaxonomyService) AddBudget(ctx context.Context, category string, limit core.Money) (core.Budget, error) {
	return s.putBudget(ctx, "add_budget", category, limit, s.store.AddBudget)
}

// SetBudget creates or replaces the category's budget.
func (s *TaxonomyService) SetBudget(ctx context.Context, category string, limit core.Money) (core.Budget, error) {
	return s.putBudget(ctx, "set_budget", category, limit, s.store.SetBudget)
}

func (s *TaxonomyService) putBudget(ctx context.Context, op, category string, limit core.Money, put func(string, core.Money) error) (core.Budget, error) {
	var b core.Budget
	err := s.edit(ctx, op, func() error {
		if err := put(category, limit); err != nil {
			return err
		}
		c, _ := s.store.Snapshot().Category(category)
		b = core.Budget{Category: c.Name, MonthlyLimit: limit}
		return nil
	}, func() error {
		return s.repo.SaveBudget(ctx, b)
	})
	return b, err
}

func (s *TaxonomyService) RemoveBudget(ctx context.Context, category string) error {
	return s.edit(ctx, "remove_budget", func() error {
		return s.store.RemoveBudget(category)
	}, func() error {
		return s.repo.DeleteBudget(ctx, category)
	})
}

func (s *TaxonomyService) ListCategories() []core.Category {
	return s.store.ListCategories()
}

func (s *TaxonomyService) ListBudgets() []core.Budget {
	return s.store.Snapshot().BudgetList()
}
