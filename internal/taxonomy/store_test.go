package taxonomy

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"gastos/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	if _, err := s.AddCategory("Comida"); err != nil {
		t.Fatalf("add Comida: %v", err)
	}
	if _, err := s.AddCategory("Ocio"); err != nil {
		t.Fatalf("add Ocio: %v", err)
	}
	for _, sub := range []string{"Supermercado", "Restaurantes"} {
		if err := s.AddSubcategory("Comida", sub); err != nil {
			t.Fatalf("add %s: %v", sub, err)
		}
	}
	return s
}

func TestSubcategoriesOfUnknownCategoryIsEmpty(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"Nope", "", "   "} {
		subs := s.SubcategoriesOf(name)
		if subs == nil || len(subs) != 0 {
			t.Fatalf("SubcategoriesOf(%q) = %#v, want empty slice", name, subs)
		}
	}
	if got := New().SubcategoriesOf("Comida"); got == nil || len(got) != 0 {
		t.Fatalf("empty store returned %#v", got)
	}
}

func TestAddCategoryTwiceFails(t *testing.T) {
	s := newTestStore(t)
	before := s.Version()

	_, err := s.AddCategory("comida")
	if !errors.Is(err, ErrDuplicateCategory) {
		t.Fatalf("expected ErrDuplicateCategory, got %v", err)
	}
	count := 0
	for _, c := range s.ListCategories() {
		if key(c.Name) == "comida" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one Comida, got %d", count)
	}
	if s.Version() != before {
		t.Fatalf("failed mutation must not bump the version")
	}
	if subs := s.SubcategoriesOf("Comida"); len(subs) != 2 {
		t.Fatalf("existing entry must be untouched, got %v", subs)
	}
}

func TestAddSubcategoryErrors(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddSubcategory("Viajes", "Hotel"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if len(s.ListCategories()) != 2 {
		t.Fatalf("unknown category must not create partial state")
	}
	if err := s.AddSubcategory("Comida", "supermercado"); !errors.Is(err, ErrDuplicateSubcategory) {
		t.Fatalf("expected ErrDuplicateSubcategory, got %v", err)
	}
	if err := s.AddSubcategory("Comida", " "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestInsertionOrderIsPreserved(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddSubcategory("Comida", "Cafetería"); err != nil {
		t.Fatal(err)
	}
	cats := s.ListCategories()
	if cats[0].Name != "Comida" || cats[1].Name != "Ocio" {
		t.Fatalf("unexpected category order: %+v", cats)
	}
	want := []string{"Supermercado", "Restaurantes", "Cafetería"}
	got := s.SubcategoriesOf("Comida")
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("subcategory order = %v, want %v", got, want)
		}
	}
}

func TestRemoveCategoryCascades(t *testing.T) {
	s := newTestStore(t)
	if err := s.AddBudget("Comida", core.Money{Cents: 20000}); err != nil {
		t.Fatalf("AddBudget: %v", err)
	}
	if err := s.RemoveCategory("Comida"); err != nil {
		t.Fatalf("RemoveCategory: %v", err)
	}
	if _, ok := s.Budgets()["Comida"]; ok {
		t.Fatalf("budget for Comida must be removed with its category")
	}
	if subs := s.SubcategoriesOf("Comida"); len(subs) != 0 {
		t.Fatalf("subcategories must be removed, got %v", subs)
	}
	// Re-adding starts from scratch.
	if _, err := s.AddCategory("Comida"); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if subs := s.SubcategoriesOf("Comida"); len(subs) != 0 {
		t.Fatalf("re-added category must be empty, got %v", subs)
	}
	if err := s.RemoveCategory("Nope"); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestRemoveSubcategory(t *testing.T) {
	s := newTestStore(t)
	if err := s.RemoveSubcategory("Comida", "Supermercado"); err != nil {
		t.Fatal(err)
	}
	if got := s.SubcategoriesOf("Comida"); len(got) != 1 || got[0] != "Restaurantes" {
		t.Fatalf("unexpected subcategories %v", got)
	}
	if err := s.RemoveSubcategory("Comida", "Supermercado"); !errors.Is(err, ErrUnknownSubcategory) {
		t.Fatalf("expected ErrUnknownSubcategory, got %v", err)
	}
}

func TestBudgets(t *testing.T) {
	s := newTestStore(t)

	if err := s.AddBudget("comida", core.Money{Cents: 10000}); err != nil {
		t.Fatalf("AddBudget: %v", err)
	}
	if err := s.AddBudget("Comida", core.Money{Cents: 5000}); !errors.Is(err, ErrDuplicateBudget) {
		t.Fatalf("expected ErrDuplicateBudget, got %v", err)
	}
	if got := s.Budgets()["Comida"]; got.Cents != 10000 {
		t.Fatalf("budget stored under canonical name with original limit, got %v", s.Budgets())
	}
	if err := s.SetBudget("Comida", core.Money{Cents: 5000}); err != nil {
		t.Fatalf("SetBudget: %v", err)
	}
	if got, _ := s.Snapshot().Budget("COMIDA"); got.Cents != 5000 {
		t.Fatalf("SetBudget must replace the limit, got %d", got.Cents)
	}
	if err := s.AddBudget("Viajes", core.Money{Cents: 1}); !errors.Is(err, ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
	if err := s.AddBudget("Ocio", core.Money{Cents: 0}); err != nil {
		t.Fatalf("zero budget is a valid sentinel: %v", err)
	}
	if err := s.RemoveBudget("Ocio"); err != nil {
		t.Fatalf("RemoveBudget: %v", err)
	}
	if err := s.RemoveBudget("Ocio"); !errors.Is(err, ErrUnknownBudget) {
		t.Fatalf("expected ErrUnknownBudget, got %v", err)
	}
}

func TestRestoreBudgetToleratesStaleCategory(t *testing.T) {
	s := newTestStore(t)
	if err := s.RestoreBudget(core.Budget{Category: "Antigua", MonthlyLimit: core.Money{Cents: 100}}); err != nil {
		t.Fatalf("RestoreBudget: %v", err)
	}
	if _, ok := s.Budgets()["Antigua"]; !ok {
		t.Fatalf("stale budget must be kept")
	}
}

func TestSnapshotsAreImmutable(t *testing.T) {
	s := newTestStore(t)
	snap := s.Snapshot()
	v := snap.Version()

	if err := s.AddSubcategory("Comida", "Cafetería"); err != nil {
		t.Fatal(err)
	}
	if len(snap.SubcategoriesOf("Comida")) != 2 {
		t.Fatalf("old snapshot changed after mutation")
	}
	if snap.Version() != v || s.Version() != v+1 {
		t.Fatalf("versions: old=%d new=%d", snap.Version(), s.Version())
	}

	cats := snap.Categories()
	cats[0].Subcategories[0] = "mutated"
	if snap.SubcategoriesOf("Comida")[0] != "Supermercado" {
		t.Fatalf("Categories must return deep copies")
	}
}

func TestConcurrentReadersSeeWholeMutations(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			name := fmt.Sprintf("Cat%d", i)
			if _, err := s.AddCategory(name); err != nil {
				t.Errorf("add: %v", err)
				return
			}
			_ = s.AddSubcategory(name, "A")
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			snap := s.Snapshot()
			if snap.Len() != len(snap.Categories()) {
				t.Errorf("inconsistent snapshot")
				return
			}
		}
	}()
	wg.Wait()
	if got := len(s.ListCategories()); got != 200 {
		t.Fatalf("expected 200 categories, got %d", got)
	}
}
