// Package capture turns Spanish free text, typed or transcribed, into a
// candidate expense: the normalizer extracts amount, payment method and date,
// the resolver classifies what is left against the taxonomy and the
// synthesizer fills in defaults and flags what the user should confirm.
package capture

import (
	"time"

	"gastos/internal/core"
	"gastos/internal/taxonomy"
)

// Config tunes a Pipeline. Zero values fall back to the defaults.
type Config struct {
	Threshold        float64
	FuzzyMaxDistance int
	DefaultPayment   core.PaymentMethod
	Synonyms         []Synonym
	Now              func() time.Time
}

// Pipeline runs the three capture stages against one taxonomy snapshot.
type Pipeline struct {
	store          *taxonomy.Store
	normalizer     *Normalizer
	resolver       *Resolver
	synthesizer    *Synthesizer
	defaultPayment core.PaymentMethod
}

func NewPipeline(store *taxonomy.Store, cfg Config) *Pipeline {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Synonyms == nil {
		cfg.Synonyms = DefaultSynonyms()
	}
	if !cfg.DefaultPayment.IsValid() {
		cfg.DefaultPayment = core.Card
	}
	return &Pipeline{
		store:          store,
		normalizer:     &Normalizer{Now: cfg.Now},
		resolver:       NewResolver(Options{Synonyms: cfg.Synonyms, FuzzyMaxDistance: cfg.FuzzyMaxDistance}),
		synthesizer:    NewSynthesizer(cfg.Threshold),
		defaultPayment: cfg.DefaultPayment,
	}
}

// Capture reads one complete utterance. The same snapshot is used for
// resolution and defaults, so a concurrent taxonomy edit cannot split a pass.
func (p *Pipeline) Capture(text string) (CandidateExpense, error) {
	snap := p.store.Snapshot()
	u := p.normalizer.Normalize(text)
	candidates := p.resolver.Resolve(u.Residual, snap)
	return p.synthesizer.Synthesize(u, candidates, snap, Defaults{
		Today:   p.normalizer.today(),
		Payment: p.defaultPayment,
	})
}

// Normalize exposes the first stage for callers that want the raw reading.
func (p *Pipeline) Normalize(text string) Utterance {
	return p.normalizer.Normalize(text)
}

// Resolve classifies text against the current taxonomy.
func (p *Pipeline) Resolve(text string) []Candidate {
	return p.resolver.Resolve(text, p.store.Snapshot())
}
