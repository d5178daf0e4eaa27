package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"gastos/internal/core"
)

//go:embed default_taxonomy.toml
var defaultSeed []byte

// Seed is the TOML document used to bootstrap a taxonomy.
type Seed struct {
	Categories []SeedCategory `toml:"category"`
	// Synonyms maps colloquial terms to "Category" or "Category/Subcategory".
	Synonyms map[string]string `toml:"synonyms"`
	// Budgets maps category names to decimal monthly limits ("250" or "99,90").
	Budgets map[string]string `toml:"budgets"`
}

type SeedCategory struct {
	Name          string   `toml:"name"`
	Subcategories []string `toml:"subcategories"`
}

// LoadSeed decodes a seed document.
func LoadSeed(r io.Reader) (Seed, error) {
	var s Seed
	if _, err := toml.NewDecoder(r).Decode(&s); err != nil {
		return Seed{}, fmt.Errorf("decode taxonomy seed: %w", err)
	}
	return s, nil
}

// LoadSeedFile reads a seed from disk; an empty path returns the built-in default.
func LoadSeedFile(path string) (Seed, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSeed()
	}
	f, err := os.Open(path)
	if err != nil {
		return Seed{}, fmt.Errorf("open taxonomy seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f)
}

// DefaultSeed returns the embedded Spanish taxonomy.
func DefaultSeed() (Seed, error) {
	return LoadSeed(bytes.NewReader(defaultSeed))
}

// Apply installs the seed into the store, replacing its content.
func (s Seed) Apply(store *Store) error {
	cats := make([]core.Category, 0, len(s.Categories))
	for _, c := range s.Categories {
		cats = append(cats, core.Category{Name: c.Name, Subcategories: c.Subcategories})
	}
	budgets := make([]core.Budget, 0, len(s.Budgets))
	for name, raw := range s.Budgets {
		limit, err := core.ParseMoney(raw)
		if err != nil {
			return fmt.Errorf("budget %q: %w", name, err)
		}
		budgets = append(budgets, core.Budget{Category: name, MonthlyLimit: limit})
	}
	return store.Replace(cats, budgets)
}

// NewFromSeed builds a store populated from the seed.
func NewFromSeed(s Seed) (*Store, error) {
	store := New()
	if err := s.Apply(store); err != nil {
		return nil, err
	}
	return store, nil
}
